package grid

import "math"

// Point is an integer cell coordinate on the navigation grid.
type Point struct {
	X int
	Z int
}

// ManhattanDistance is the grid distance used to decide whether a move is
// short enough to skip the search entirely.
func ManhattanDistance(a, b Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	return dx + dz
}

// Mapper converts between continuous world coordinates and grid cells. The
// offset centers the grid under the playable area; beyond that the mapper is
// stateless.
type Mapper struct {
	offsetX float64
	offsetZ float64
}

// NewCenteredMapper builds a mapper whose grid of the given dimensions is
// centered at the world origin.
func NewCenteredMapper(width, height int) Mapper {
	return Mapper{
		offsetX: -(float64(width)*0.5 - 0.5),
		offsetZ: -(float64(height)*0.5 - 0.5),
	}
}

func (m Mapper) OffsetX() float64 { return m.offsetX }
func (m Mapper) OffsetZ() float64 { return m.offsetZ }

// WorldToGrid maps a world position to the nearest cell.
func (m Mapper) WorldToGrid(worldX, worldZ float64) Point {
	return Point{
		X: int(math.Round(worldX - m.offsetX)),
		Z: int(math.Round(worldZ - m.offsetZ)),
	}
}

// GridToWorld maps a cell back to world space. The height axis is fixed at
// the reference plane, so only X and Z are produced.
func (m Mapper) GridToWorld(p Point) (float64, float64) {
	return float64(p.X) + m.offsetX, float64(p.Z) + m.offsetZ
}
