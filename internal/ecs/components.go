package ecs

// Vec2 is a world-space position on the ground plane. The height axis is
// fixed at the reference plane and never stored.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// SpawnType identifies the unit archetype.
type SpawnType string

const (
	SpawnArcher        SpawnType = "archer"
	SpawnSpearman      SpawnType = "spearman"
	SpawnMountedKnight SpawnType = "mounted_knight"
)

// IsFast reports whether the archetype counts as inherently fast for group
// cohesion decisions regardless of its current speed stat.
func (s SpawnType) IsFast() bool {
	return s == SpawnMountedKnight
}

// Transform is the entity's world position and footprint scale.
type Transform struct {
	Position Vec2
	ScaleX   float64
	ScaleZ   float64
}

// Movement is the steering state owned by the command layer and consumed by
// the movement-integration step.
type Movement struct {
	// GoalX/GoalZ record the most recent commanded destination, kept for
	// UI and debugging even while a path is still being computed.
	GoalX float64
	GoalZ float64

	// TargetX/TargetZ is the current immediate steering target.
	TargetX   float64
	TargetZ   float64
	HasTarget bool

	// Path holds the waypoints remaining after the immediate target,
	// nearest first.
	Path []Vec2

	PathPending      bool
	PendingRequestID uint64

	VX float64
	VZ float64

	TimeSinceLastPathRequest float64
	LastGoalX                float64
	LastGoalZ                float64
}

// Attack is the entity's combat profile.
type Attack struct {
	Range       float64
	MeleeRange  float64
	CanRanged   bool
	InMeleeLock bool
}

// AttackTarget is the intent to fight a specific entity.
type AttackTarget struct {
	TargetID    EntityID
	ShouldChase bool
}

// HoldMode marks an entity braced in place. Exiting hold starts the
// stand-up cooldown before the unit can act normally.
type HoldMode struct {
	Active          bool
	ExitCooldown    float64
	StandUpDuration float64
}

// Unit carries the per-archetype stats the command layer reads.
type Unit struct {
	Spawn  SpawnType
	Speed  float64
	Health int
}

// UnitProfile returns the stock stats for an archetype.
func UnitProfile(spawn SpawnType) (Unit, Attack) {
	switch spawn {
	case SpawnMountedKnight:
		return Unit{Spawn: spawn, Speed: 4.2, Health: 140},
			Attack{Range: 1.2, MeleeRange: 1.2, CanRanged: false}
	case SpawnSpearman:
		return Unit{Spawn: spawn, Speed: 2.2, Health: 120},
			Attack{Range: 1.5, MeleeRange: 1.5, CanRanged: false}
	default:
		return Unit{Spawn: SpawnArcher, Speed: 2.6, Health: 90},
			Attack{Range: 6.0, MeleeRange: 1.0, CanRanged: true}
	}
}
