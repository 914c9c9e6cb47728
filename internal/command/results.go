package command

import (
	"siegeline/server/internal/ecs"
	"siegeline/server/internal/nav"
)

// ProcessPathResults drains every search the engine has finished and applies
// the waypoints to the entities that still own the request. Must be invoked
// once per tick. Each result is consumed exactly once: taking the ledger
// entry removes it, so a duplicate or stale result is discarded without
// touching any entity.
func (s *Service) ProcessPathResults() {
	if s.engine == nil {
		return
	}
	results := s.engine.FetchCompletedPaths()
	if len(results) == 0 {
		return
	}

	for _, result := range results {
		request, ok := s.ledger.take(result.RequestID)
		if !ok {
			s.addMetric(metricStaleResults, 1)
			continue
		}
		s.applyResult(request, result)
	}
}

func (s *Service) applyResult(request pendingRequest, result nav.Result) {
	leaderTarget := request.target

	applied := map[ecs.EntityID]struct{}{}
	apply := func(id ecs.EntityID, target ecs.Vec2) {
		if _, seen := applied[id]; seen {
			return
		}
		applied[id] = struct{}{}
		offset := ecs.Vec2{X: target.X - leaderTarget.X, Z: target.Z - leaderTarget.Z}
		s.applyToMember(id, target, offset, request, result)
	}

	apply(request.entityID, leaderTarget)
	for i, member := range request.groupMembers {
		target := leaderTarget
		if i < len(request.groupTargets) {
			target = request.groupTargets[i]
		}
		apply(member, target)
	}
}

// applyToMember pushes the offset waypoint list onto one entity. Entities
// that vanished or were re-commanded while the search ran are skipped; an
// entity pending a different request keeps that newer state untouched.
func (s *Service) applyToMember(id ecs.EntityID, target, offset ecs.Vec2, request pendingRequest, result nav.Result) {
	mv := s.world.Movement(id)
	if mv == nil {
		return
	}
	transform := s.world.Transform(id)
	if transform == nil {
		return
	}

	if !mv.PathPending || mv.PendingRequestID != result.RequestID {
		mv.PathPending = false
		mv.PendingRequestID = 0
		return
	}

	mv.PathPending = false
	mv.PendingRequestID = 0
	mv.Path = nil
	mv.GoalX = target.X
	mv.GoalZ = target.Z
	mv.VX = 0
	mv.VZ = 0

	if len(result.Path) > 1 {
		// The first cell is where the entity already stands.
		waypoints := make([]ecs.Vec2, 0, len(result.Path)-1)
		for _, cell := range result.Path[1:] {
			wx, wz := s.mapper.GridToWorld(cell)
			waypoints = append(waypoints, ecs.Vec2{X: wx + offset.X, Z: wz + offset.Z})
		}

		// Prune waypoints the entity drifted past while the search ran.
		skip := 0
		for skip < len(waypoints) {
			dx := waypoints[skip].X - transform.Position.X
			dz := waypoints[skip].Z - transform.Position.Z
			if dx*dx+dz*dz > s.tuning.WaypointSkipEpsilonSq {
				break
			}
			skip++
		}
		waypoints = waypoints[skip:]

		if len(waypoints) > 0 {
			mv.TargetX = waypoints[0].X
			mv.TargetZ = waypoints[0].Z
			mv.HasTarget = true
			mv.Path = waypoints
			s.addMetric(metricResultsApplied, 1)
			return
		}
	}

	if request.options.AllowDirectFallback {
		mv.TargetX = target.X
		mv.TargetZ = target.Z
		mv.HasTarget = true
		s.addMetric(metricResultsApplied, 1)
	} else {
		mv.HasTarget = false
	}
}
