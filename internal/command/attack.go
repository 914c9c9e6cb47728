package command

import (
	"math"

	"siegeline/server/internal/ecs"
)

const (
	rangeBackoff        = 0.2
	minStandOffDistance = 0.2
	standOffSlack       = 0.15
	rangedHoldFactor    = 0.85
	rangedClassFactor   = 1.5
)

// AttackTarget marks the attack intent on every unit and, when chasing,
// moves each attacker to a stand-off position short of the target: ranged
// units hold near max range, melee units close in, and buildings are
// approached from outside their footprint. Attackers already within the
// stand-off margin keep their position and only gain the intent.
func (s *Service) AttackTarget(units []ecs.EntityID, targetID ecs.EntityID, shouldChase bool) {
	if targetID == 0 {
		return
	}
	for _, id := range units {
		if !s.world.Exists(id) {
			continue
		}
		s.exitHoldMode(id)

		intent := s.world.SetAttackTarget(id, ecs.AttackTarget{TargetID: targetID, ShouldChase: shouldChase})
		if intent == nil {
			continue
		}
		if !shouldChase {
			continue
		}

		desired, ok := s.standOffPosition(id, targetID)
		if !ok {
			continue
		}

		s.moveUnit(id, desired, MoveOptions{
			ClearAttackIntent:   false,
			AllowDirectFallback: true,
		})

		if mv := s.world.EnsureMovement(id); mv != nil {
			mv.TargetX = desired.X
			mv.TargetZ = desired.Z
			mv.GoalX = desired.X
			mv.GoalZ = desired.Z
			mv.HasTarget = true
			mv.Path = nil
		}
	}
}

// standOffPosition computes where the attacker should stand to engage the
// target. ok is false when no movement should be issued: either a transform
// is missing or the attacker is already within the stand-off margin.
func (s *Service) standOffPosition(id, targetID ecs.EntityID) (ecs.Vec2, bool) {
	targetTransform := s.world.Transform(targetID)
	attackerTransform := s.world.Transform(id)
	if targetTransform == nil || attackerTransform == nil {
		return ecs.Vec2{}, false
	}

	targetPos := targetTransform.Position
	attackerPos := attackerTransform.Position

	attackRange := 2.0
	rangedUnit := false
	if atk := s.world.Attack(id); atk != nil {
		attackRange = math.Max(0.1, atk.Range)
		if atk.CanRanged && atk.Range > atk.MeleeRange*rangedClassFactor {
			rangedUnit = true
		}
	}

	dx := targetPos.X - attackerPos.X
	dz := targetPos.Z - attackerPos.Z
	distance := math.Hypot(dx, dz)
	if distance <= 0.001 {
		return targetPos, true
	}

	var standOff float64
	if s.world.IsBuilding(targetID) {
		targetRadius := math.Max(targetTransform.ScaleX, targetTransform.ScaleZ) * 0.5
		standOff = targetRadius + math.Max(attackRange-rangeBackoff, minStandOffDistance)
	} else {
		standOff = math.Max(attackRange-rangeBackoff, minStandOffDistance)
		if rangedUnit {
			standOff = attackRange * rangedHoldFactor
		}
	}

	if distance <= standOff+standOffSlack {
		return ecs.Vec2{}, false
	}

	dirX := dx / distance
	dirZ := dz / distance
	return ecs.Vec2{X: targetPos.X - dirX*standOff, Z: targetPos.Z - dirZ*standOff}, true
}
