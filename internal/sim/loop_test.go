package sim

import (
	"testing"

	"siegeline/server/internal/command"
	"siegeline/server/internal/ecs"
)

func newTestLoop(cfg LoopConfig, hooks LoopHooks) (*Loop, *ecs.World) {
	world := ecs.NewWorld()
	commands := command.NewService(world, command.ServiceConfig{})
	engine := NewEngine(EngineConfig{World: world, Commands: commands, TickRate: 20})
	return NewLoop(engine, cfg, hooks, nil, nil), world
}

func TestLoopAppliesStagedCommands(t *testing.T) {
	var ticked []uint64
	loop, world := newTestLoop(LoopConfig{}, LoopHooks{AfterTick: func(tick uint64) {
		ticked = append(ticked, tick)
	}})
	id := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})

	ok, reason := loop.Enqueue(Command{
		SessionID: "s1",
		Type:      CommandMove,
		Move: &MoveIntent{
			Units:               []ecs.EntityID{id},
			Targets:             []ecs.Vec2{{X: 5, Z: 0}},
			AllowDirectFallback: true,
		},
	})
	if !ok || reason != "" {
		t.Fatalf("enqueue failed: %s", reason)
	}

	loop.Advance()

	mv := world.Movement(id)
	if mv == nil || !mv.HasTarget || mv.TargetX != 5 {
		t.Fatalf("expected staged move applied on the tick, got %+v", mv)
	}
	if len(ticked) != 1 || ticked[0] != 1 {
		t.Fatalf("expected AfterTick(1), got %v", ticked)
	}
}

func TestLoopPerSessionThrottle(t *testing.T) {
	loop, world := newTestLoop(LoopConfig{PerSessionLimit: 2}, LoopHooks{})
	id := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	cmd := Command{
		SessionID: "spammer",
		Type:      CommandMove,
		Move:      &MoveIntent{Units: []ecs.EntityID{id}, Targets: []ecs.Vec2{{X: 1, Z: 0}}},
	}

	for i := 0; i < 2; i++ {
		if ok, _ := loop.Enqueue(cmd); !ok {
			t.Fatalf("enqueue %d within the limit failed", i)
		}
	}
	ok, reason := loop.Enqueue(cmd)
	if ok || reason != CommandRejectQueueLimit {
		t.Fatalf("expected queue_limit rejection, got ok=%v reason=%q", ok, reason)
	}

	// The window resets every tick.
	loop.Advance()
	if ok, _ := loop.Enqueue(cmd); !ok {
		t.Fatal("expected throttle window cleared after the tick")
	}
}

func TestLoopRejectsWhenBufferFull(t *testing.T) {
	loop, _ := newTestLoop(LoopConfig{CommandCapacity: 1}, LoopHooks{})

	if ok, _ := loop.Enqueue(Command{SessionID: "a", Type: CommandMove, Move: &MoveIntent{}}); !ok {
		t.Fatal("first enqueue failed")
	}
	ok, reason := loop.Enqueue(Command{SessionID: "b", Type: CommandMove, Move: &MoveIntent{}})
	if ok || reason != CommandRejectQueueFull {
		t.Fatalf("expected queue_full rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestLoopStampsOriginTick(t *testing.T) {
	loop, _ := newTestLoop(LoopConfig{}, LoopHooks{})
	loop.Advance()
	loop.Advance()

	loop.Enqueue(Command{SessionID: "a", Type: CommandMove, Move: &MoveIntent{}})
	drained := loop.buffer.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected 1 staged command, got %d", len(drained))
	}
	if drained[0].OriginTick != 2 {
		t.Fatalf("expected origin tick 2, got %d", drained[0].OriginTick)
	}
	if drained[0].IssuedAt.IsZero() {
		t.Fatal("expected issuedAt stamped on enqueue")
	}
}

func TestLoopUnknownCommandIsDropped(t *testing.T) {
	loop, world := newTestLoop(LoopConfig{}, LoopHooks{})
	id := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})

	loop.Enqueue(Command{SessionID: "a", Type: CommandType("Teleport")})
	loop.Advance()

	if mv := world.Movement(id); mv != nil {
		t.Fatalf("expected unknown command ignored, got %+v", mv)
	}
}
