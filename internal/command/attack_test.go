package command

import (
	"math"
	"testing"

	"siegeline/server/internal/ecs"
)

func TestAttackTargetSetsIntentWithoutChase(t *testing.T) {
	svc, world, pf := newTestService(t)
	attacker := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{X: 30, Z: 0})

	svc.AttackTarget([]ecs.EntityID{attacker}, enemy, false)

	intent := world.AttackTarget(attacker)
	if intent == nil || intent.TargetID != enemy || intent.ShouldChase {
		t.Fatalf("expected stationary attack intent, got %+v", intent)
	}
	if mv := world.Movement(attacker); mv != nil && mv.HasTarget {
		t.Fatal("expected no movement without chase")
	}
	if len(pf.submissions) != 0 {
		t.Fatalf("expected no path requests, got %d", len(pf.submissions))
	}
}

func TestAttackTargetRangedUnitHoldsShortOfMaxRange(t *testing.T) {
	svc, world, _ := newTestService(t)
	archer := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{X: 20, Z: 0})

	svc.AttackTarget([]ecs.EntityID{archer}, enemy, true)

	mv := world.Movement(archer)
	if mv == nil || !mv.HasTarget {
		t.Fatal("expected chase movement")
	}
	// Archer range 6.0, ranged hold factor 0.85: stop 5.1 short of the enemy.
	wantX := 20.0 - 6.0*0.85
	if math.Abs(mv.TargetX-wantX) > 1e-9 || mv.TargetZ != 0 {
		t.Fatalf("expected stand-off target (%.2f, 0), got (%.4f, %.4f)", wantX, mv.TargetX, mv.TargetZ)
	}
	if mv.GoalX != mv.TargetX || mv.GoalZ != mv.TargetZ {
		t.Fatalf("expected goal pinned to the stand-off point, got (%.2f, %.2f)", mv.GoalX, mv.GoalZ)
	}
}

func TestAttackTargetMeleeUnitClosesIn(t *testing.T) {
	svc, world, _ := newTestService(t)
	spearman := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{X: 10, Z: 0})

	svc.AttackTarget([]ecs.EntityID{spearman}, enemy, true)

	mv := world.Movement(spearman)
	if mv == nil || !mv.HasTarget {
		t.Fatal("expected chase movement")
	}
	// Spearman range 1.5 minus the backoff: stop 1.3 short.
	wantX := 10.0 - 1.3
	if math.Abs(mv.TargetX-wantX) > 1e-9 {
		t.Fatalf("expected melee stand-off at %.2f, got %.4f", wantX, mv.TargetX)
	}
}

func TestAttackTargetBuildingStandsOutsideFootprint(t *testing.T) {
	svc, world, _ := newTestService(t)
	spearman := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	keep := world.SpawnBuilding(ecs.Vec2{X: 15, Z: 0}, 4, 4)

	svc.AttackTarget([]ecs.EntityID{spearman}, keep, true)

	mv := world.Movement(spearman)
	if mv == nil || !mv.HasTarget {
		t.Fatal("expected chase movement")
	}
	// Footprint radius 2.0 plus the melee stand-off 1.3.
	wantX := 15.0 - (2.0 + 1.3)
	if math.Abs(mv.TargetX-wantX) > 1e-9 {
		t.Fatalf("expected building stand-off at %.2f, got %.4f", wantX, mv.TargetX)
	}
}

func TestAttackTargetWithinStandOffOnlySetsIntent(t *testing.T) {
	svc, world, pf := newTestService(t)
	archer := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{X: 5, Z: 0})

	// Distance 5.0 is inside stand-off 5.1 plus slack, so no movement.
	svc.AttackTarget([]ecs.EntityID{archer}, enemy, true)

	if intent := world.AttackTarget(archer); intent == nil || !intent.ShouldChase {
		t.Fatal("expected chase intent recorded")
	}
	if mv := world.Movement(archer); mv != nil && mv.HasTarget {
		t.Fatalf("expected no movement inside the stand-off margin, got %+v", mv)
	}
	if len(pf.submissions) != 0 {
		t.Fatalf("expected no path requests, got %d", len(pf.submissions))
	}
}

func TestAttackTargetZeroTargetIsNoOp(t *testing.T) {
	svc, world, _ := newTestService(t)
	attacker := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})

	svc.AttackTarget([]ecs.EntityID{attacker}, 0, true)

	if world.AttackTarget(attacker) != nil {
		t.Fatal("expected no intent on zero target")
	}
}

func TestAttackTargetExitsHoldMode(t *testing.T) {
	svc, world, _ := newTestService(t)
	attacker := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{X: 30, Z: 0})
	world.SetHoldMode(attacker, ecs.HoldMode{Active: true, StandUpDuration: 0.8})

	svc.AttackTarget([]ecs.EntityID{attacker}, enemy, true)

	hold := world.HoldMode(attacker)
	if hold.Active {
		t.Fatal("expected hold mode exited by attack order")
	}
	if hold.ExitCooldown != 0.8 {
		t.Fatalf("expected exit cooldown armed, got %.2f", hold.ExitCooldown)
	}
}

func TestAttackTargetLongChaseStillPathfinds(t *testing.T) {
	svc, world, pf := newTestService(t)
	spearman := world.SpawnUnit(ecs.SpawnSpearman, ecs.Vec2{})
	enemy := world.SpawnUnit(ecs.SpawnArcher, ecs.Vec2{X: 40, Z: 40})

	svc.AttackTarget([]ecs.EntityID{spearman}, enemy, true)

	if len(pf.submissions) != 1 {
		t.Fatalf("expected a path request for the long chase, got %d", len(pf.submissions))
	}
	mv := world.Movement(spearman)
	if !mv.PathPending {
		t.Fatal("expected pending path while still steering straight at the stand-off point")
	}
	if !mv.HasTarget {
		t.Fatal("expected provisional direct target during the search")
	}
}
