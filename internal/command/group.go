package command

import (
	"math"

	"siegeline/server/internal/ecs"
	"siegeline/server/internal/grid"
	"siegeline/server/logging"
)

// groupMember is the per-member working state the group resolver builds
// before deciding who advances and who regroups.
type groupMember struct {
	id               ecs.EntityID
	transform        *ecs.Transform
	movement         *ecs.Movement
	target           ecs.Vec2
	engaged          bool
	speed            float64
	spawn            ecs.SpawnType
	distanceToTarget float64
}

// moveGroup resolves a multi-unit move with formation heuristics: members
// already close to their goals (or fast, or straggling far from the pack)
// advance individually, while the rest share a single path search issued for
// an elected leader.
func (s *Service) moveGroup(units []ecs.EntityID, targets []ecs.Vec2, options MoveOptions) {
	members := make([]groupMember, 0, len(units))
	for i, id := range units {
		s.exitHoldMode(id)

		transform := s.world.Transform(id)
		if transform == nil {
			continue
		}
		mv := s.world.EnsureMovement(id)
		if mv == nil {
			continue
		}

		engaged := s.world.AttackTarget(id) != nil
		if options.ClearAttackIntent {
			s.world.RemoveAttackTarget(id)
			engaged = false
		}

		speed := 1.0
		spawn := ecs.SpawnArcher
		if unit := s.world.Unit(id); unit != nil {
			speed = math.Max(minMemberSpeed, unit.Speed)
			spawn = unit.Spawn
		}

		members = append(members, groupMember{
			id:        id,
			transform: transform,
			movement:  mv,
			target:    targets[i],
			engaged:   engaged,
			speed:     speed,
			spawn:     spawn,
		})
	}

	if len(members) == 0 {
		return
	}
	if len(members) == 1 {
		single := options
		single.GroupMove = false
		s.moveUnit(members[0].id, members[0].target, single)
		return
	}

	moving := members[:0:0]
	for _, member := range members {
		if !member.engaged {
			moving = append(moving, member)
		}
	}
	if len(moving) == 0 {
		return
	}

	// Any unreachable destination aborts the whole batch; a formation must
	// not be split onto cells some members can never occupy.
	if s.engine != nil {
		for _, member := range moving {
			cell := s.mapper.WorldToGrid(member.target.X, member.target.Z)
			if cell.X < 0 || cell.Z < 0 || !s.engine.IsWalkable(cell.X, cell.Z) {
				s.addMetric(metricGroupAborts, 1)
				s.publish(logging.Event{
					Type:     eventGroupAborted,
					Severity: logging.SeverityInfo,
					Category: logging.CategoryCommand,
					Actor:    logging.EntityRef{ID: uint64(member.id), Kind: logging.EntityKindUnit},
					Payload:  map[string]any{"cell": cell},
				})
				return
			}
		}
	}
	members = moving

	var positionCentroid ecs.Vec2
	speedSum := 0.0
	for _, member := range members {
		positionCentroid.X += member.transform.Position.X
		positionCentroid.Z += member.transform.Position.Z
		speedSum += member.speed
	}
	count := float64(len(members))
	positionCentroid.X /= count
	positionCentroid.Z /= count

	targetDistanceSum := 0.0
	maxTargetDistance := 0.0
	scatterSum := 0.0
	for i := range members {
		member := &members[i]
		toTarget := math.Hypot(member.transform.Position.X-member.target.X, member.transform.Position.Z-member.target.Z)
		toCentroid := math.Hypot(member.transform.Position.X-positionCentroid.X, member.transform.Position.Z-positionCentroid.Z)
		member.distanceToTarget = toTarget
		targetDistanceSum += toTarget
		scatterSum += toCentroid
		maxTargetDistance = math.Max(maxTargetDistance, toTarget)
	}
	avgTargetDistance := targetDistanceSum / count
	avgScatter := scatterSum / count
	avgSpeed := speedSum / count

	nearThreshold := clampFloat(avgTargetDistance*0.5, s.tuning.NearThresholdMin, s.tuning.NearThresholdMax)
	if maxTargetDistance <= nearThreshold {
		// Short hop for everyone: no formation logic, just direct moves.
		direct := options
		direct.GroupMove = false
		for _, member := range members {
			s.moveUnit(member.id, member.target, direct)
		}
		return
	}

	scatterThreshold := math.Max(avgScatter, s.tuning.ScatterFloor)

	regroup := make([]groupMember, 0, len(members))
	advance := make([]groupMember, 0, len(members))
	for _, member := range members {
		toCentroid := math.Hypot(member.transform.Position.X-positionCentroid.X, member.transform.Position.Z-positionCentroid.Z)
		nearDestination := member.distanceToTarget <= nearThreshold
		farFromGroup := toCentroid > scatterThreshold*scatterRadiusFactor
		fastUnit := member.speed >= avgSpeed+s.tuning.FastUnitSpeedMargin || member.spawn.IsFast()

		shouldAdvance := nearDestination
		if !shouldAdvance && fastUnit && member.distanceToTarget <= nearThreshold*fastAdvanceDistanceFactor {
			shouldAdvance = true
		}
		if !shouldAdvance && farFromGroup && member.distanceToTarget <= nearThreshold*scatterAdvanceDistanceFactor {
			shouldAdvance = true
		}

		if shouldAdvance {
			advance = append(advance, member)
		} else {
			regroup = append(regroup, member)
		}
	}

	if len(advance) > 0 {
		direct := options
		direct.GroupMove = false
		for _, member := range advance {
			s.moveUnit(member.id, member.target, direct)
		}
	}

	if len(regroup) <= 1 {
		if len(regroup) == 1 {
			single := options
			single.GroupMove = false
			s.moveUnit(regroup[0].id, regroup[0].target, single)
		}
		return
	}

	s.resolveFormationPath(regroup, options)
}

// resolveFormationPath elects the leader, resets every regroup member, and
// issues the one shared search the followers will replay with an offset.
func (s *Service) resolveFormationPath(members []groupMember, options MoveOptions) {
	var targetCentroid ecs.Vec2
	for _, member := range members {
		targetCentroid.X += member.target.X
		targetCentroid.Z += member.target.Z
	}
	count := float64(len(members))
	targetCentroid.X /= count
	targetCentroid.Z /= count

	// The leader's path stands in for everyone, so pick the member whose
	// own destination best represents the group's shared direction.
	leaderIndex := 0
	bestDistSq := math.Inf(1)
	for i, member := range members {
		dx := member.target.X - targetCentroid.X
		dz := member.target.Z - targetCentroid.Z
		if distSq := dx*dx + dz*dz; distSq < bestDistSq {
			bestDistSq = distSq
			leaderIndex = i
		}
	}
	leader := members[leaderIndex]

	for _, member := range members {
		mv := member.movement
		mv.GoalX = member.target.X
		mv.GoalZ = member.target.Z
		s.ledger.cancel(member.id)
		mv.TargetX = member.transform.Position.X
		mv.TargetZ = member.transform.Position.Z
		mv.HasTarget = false
		mv.VX = 0
		mv.VZ = 0
		mv.Path = nil
		mv.PathPending = false
		mv.PendingRequestID = 0
	}

	if s.engine == nil {
		for _, member := range members {
			member.movement.TargetX = member.target.X
			member.movement.TargetZ = member.target.Z
			member.movement.HasTarget = true
		}
		return
	}

	start := s.mapper.WorldToGrid(leader.transform.Position.X, leader.transform.Position.Z)
	end := s.mapper.WorldToGrid(leader.target.X, leader.target.Z)

	if start == end {
		for _, member := range members {
			member.movement.TargetX = member.target.X
			member.movement.TargetZ = member.target.Z
			member.movement.HasTarget = true
		}
		return
	}

	if options.AllowDirectFallback && grid.ManhattanDistance(start, end) <= s.tuning.DirectPathThreshold {
		for _, member := range members {
			member.movement.TargetX = member.target.X
			member.movement.TargetZ = member.target.Z
			member.movement.HasTarget = true
			member.movement.TimeSinceLastPathRequest = 0
			member.movement.LastGoalX = member.target.X
			member.movement.LastGoalZ = member.target.Z
		}
		s.addMetric(metricDirectMoves, 1)
		return
	}

	requestID := s.ledger.allocate()
	for _, member := range members {
		member.movement.PathPending = true
		member.movement.PendingRequestID = requestID
		member.movement.TimeSinceLastPathRequest = 0
		member.movement.LastGoalX = member.target.X
		member.movement.LastGoalZ = member.target.Z
	}

	req := &pendingRequest{
		entityID: leader.id,
		target:   leader.target,
		options:  options,
	}
	for _, member := range members {
		if member.id == leader.id {
			continue
		}
		req.groupMembers = append(req.groupMembers, member.id)
		req.groupTargets = append(req.groupTargets, member.target)
	}
	s.ledger.register(requestID, req)
	s.engine.SubmitPathRequest(requestID, start, end)
	s.addMetric(metricPathRequests, 1)

	targetRefs := make([]logging.EntityRef, 0, len(req.groupMembers))
	for _, member := range req.groupMembers {
		targetRefs = append(targetRefs, logging.EntityRef{ID: uint64(member), Kind: logging.EntityKindUnit})
	}
	s.publish(logging.Event{
		Type:     eventGroupResolved,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCommand,
		Actor:    logging.EntityRef{ID: uint64(leader.id), Kind: logging.EntityKindUnit},
		Targets:  targetRefs,
		Payload: map[string]any{
			"requestId": requestID,
			"followers": len(req.groupMembers),
		},
	})
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
