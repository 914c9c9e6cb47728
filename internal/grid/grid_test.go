package grid

import "testing"

func TestManhattanDistance(t *testing.T) {
	cases := []struct {
		a, b Point
		want int
	}{
		{Point{0, 0}, Point{0, 0}, 0},
		{Point{0, 0}, Point{3, 4}, 7},
		{Point{3, 4}, Point{0, 0}, 7},
		{Point{-2, -2}, Point{2, 2}, 8},
		{Point{5, -1}, Point{-5, 1}, 12},
	}
	for _, tc := range cases {
		if got := ManhattanDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("ManhattanDistance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCenteredMapperOriginLandsMidGrid(t *testing.T) {
	m := NewCenteredMapper(128, 128)
	if got := m.WorldToGrid(0, 0); got != (Point{X: 64, Z: 64}) {
		t.Fatalf("expected world origin in cell (64, 64), got %v", got)
	}
}

func TestMapperRoundTrip(t *testing.T) {
	m := NewCenteredMapper(128, 128)
	for _, p := range []Point{{0, 0}, {64, 64}, {127, 127}, {1, 100}} {
		wx, wz := m.GridToWorld(p)
		if got := m.WorldToGrid(wx, wz); got != p {
			t.Errorf("round trip of %v via (%.2f, %.2f) gave %v", p, wx, wz, got)
		}
	}
}

func TestMapperRoundsToNearestCell(t *testing.T) {
	m := NewCenteredMapper(128, 128)
	wx, wz := m.GridToWorld(Point{X: 70, Z: 70})

	if got := m.WorldToGrid(wx+0.4, wz-0.4); got != (Point{X: 70, Z: 70}) {
		t.Fatalf("expected sub-half offsets to stay in the cell, got %v", got)
	}
	if got := m.WorldToGrid(wx+0.6, wz); got != (Point{X: 71, Z: 70}) {
		t.Fatalf("expected +0.6 to land in the next cell, got %v", got)
	}
}

func TestMapperOddDimensions(t *testing.T) {
	m := NewCenteredMapper(9, 9)
	// Offset -(4.5-0.5) = -4 puts the origin exactly on cell (4, 4).
	if got := m.WorldToGrid(0, 0); got != (Point{X: 4, Z: 4}) {
		t.Fatalf("expected (4, 4), got %v", got)
	}
	wx, wz := m.GridToWorld(Point{X: 4, Z: 4})
	if wx != 0 || wz != 0 {
		t.Fatalf("expected cell (4, 4) at the origin, got (%.2f, %.2f)", wx, wz)
	}
}
