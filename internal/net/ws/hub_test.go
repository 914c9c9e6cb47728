package ws

import (
	"testing"

	"siegeline/server/internal/ecs"
	"siegeline/server/internal/net/proto"
	"siegeline/server/internal/sim"
)

func newSnapshotHub() (*Hub, *ecs.World) {
	world := ecs.NewWorld()
	engine := sim.NewEngine(sim.EngineConfig{World: world})
	return NewHub(nil, engine, nil), world
}

func TestBuildSnapshotCarriesMovementState(t *testing.T) {
	hub, world := newSnapshotHub()
	moving := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{X: 1, Z: 2})
	mv := world.EnsureMovement(moving)
	mv.GoalX = 10
	mv.GoalZ = 20
	mv.HasTarget = true
	mv.PathPending = true
	idle := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{X: 3, Z: 4})

	msg := hub.buildSnapshot(42)

	if msg.Type != proto.MessageTypeState || msg.Tick != 42 {
		t.Fatalf("expected state message for tick 42, got type=%q tick=%d", msg.Type, msg.Tick)
	}
	if msg.ServerTime == 0 {
		t.Fatal("expected server time stamped")
	}
	if len(msg.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(msg.Units))
	}

	byID := make(map[uint64]proto.UnitState, len(msg.Units))
	for _, state := range msg.Units {
		byID[state.ID] = state
	}

	got, ok := byID[uint64(moving)]
	if !ok {
		t.Fatal("moving unit missing from snapshot")
	}
	if got.Spawn != string(ecs.SpawnArcher) || got.X != 1 || got.Z != 2 {
		t.Fatalf("unexpected unit fields %+v", got)
	}
	if got.GoalX != 10 || got.GoalZ != 20 || !got.HasTarget || !got.PathPending {
		t.Fatalf("expected movement state carried, got %+v", got)
	}

	still, ok := byID[uint64(idle)]
	if !ok {
		t.Fatal("idle unit missing from snapshot")
	}
	if still.HasTarget || still.PathPending || still.GoalX != 0 {
		t.Fatalf("expected zero movement state for idle unit, got %+v", still)
	}
}

func TestBuildSnapshotSkipsBuildings(t *testing.T) {
	hub, world := newSnapshotHub()
	world.SpawnBuilding(ecs.Vec2{X: 5, Z: 5}, 4, 4)
	unit := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})

	msg := hub.buildSnapshot(1)

	if len(msg.Units) != 1 || msg.Units[0].ID != uint64(unit) {
		t.Fatalf("expected only the unit in the snapshot, got %+v", msg.Units)
	}
}
