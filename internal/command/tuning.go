package command

// MoveOptions modifies how a move command is resolved. Passed by value with
// every command; never stored on the entity.
type MoveOptions struct {
	// GroupMove enables the formation heuristics for multi-unit commands.
	GroupMove bool
	// ClearAttackIntent cancels an existing attack-target intent before
	// moving.
	ClearAttackIntent bool
	// AllowDirectFallback permits snapping straight to the destination when
	// the distance is short or no path comes back.
	AllowDirectFallback bool
}

// Tuning collects the command-layer thresholds. DefaultTuning matches the
// shipped balance; tests and the config loader may override fields.
type Tuning struct {
	// DirectPathThreshold is the Manhattan cell distance at or under which
	// a move skips the search engine entirely.
	DirectPathThreshold int
	// PathRequestCooldown suppresses re-requests issued within this many
	// seconds of the previous one for a near-identical goal.
	PathRequestCooldown float64
	// SameTargetEpsilonSq is the squared world distance under which two
	// destinations count as the same target.
	SameTargetEpsilonSq float64
	// GoalMovementThresholdSq is the squared world distance the goal must
	// move before the cooldown stops suppressing a new request.
	GoalMovementThresholdSq float64
	// WaypointSkipEpsilonSq prunes leading waypoints the entity has already
	// drifted past while the search was in flight.
	WaypointSkipEpsilonSq float64
	// NearThresholdMin/Max clamp the derived "near destination" distance
	// for group moves.
	NearThresholdMin float64
	NearThresholdMax float64
	// ScatterFloor is the minimum cohesion radius used when splitting a
	// group into advance and regroup sets.
	ScatterFloor float64
	// FastUnitSpeedMargin is how far above the group average a member's
	// speed must be to count as fast.
	FastUnitSpeedMargin float64
}

func DefaultTuning() Tuning {
	return Tuning{
		DirectPathThreshold:     4,
		PathRequestCooldown:     1.0,
		SameTargetEpsilonSq:     0.01,
		GoalMovementThresholdSq: 4.0,
		WaypointSkipEpsilonSq:   0.25,
		NearThresholdMin:        4.0,
		NearThresholdMax:        12.0,
		ScatterFloor:            2.5,
		FastUnitSpeedMargin:     0.5,
	}
}

const (
	fastAdvanceDistanceFactor    = 1.5
	scatterAdvanceDistanceFactor = 2.0
	scatterRadiusFactor          = 1.5
	minMemberSpeed               = 0.1
)
