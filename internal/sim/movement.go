package sim

import (
	"math"

	"siegeline/server/internal/ecs"
)

// arriveEpsilon is how close an entity must get to its immediate target
// before the next waypoint takes over.
const arriveEpsilon = 0.05

// integrateMovement advances every moving entity toward its immediate
// target for one timestep and rotates the waypoint list on arrival. It also
// ages the per-entity path-request timer the resolvers use for cooldown
// suppression.
func (e *Engine) integrateMovement() {
	e.world.ForEachMovement(func(id ecs.EntityID, mv *ecs.Movement, tr *ecs.Transform) {
		mv.TimeSinceLastPathRequest += e.dt
		if !mv.HasTarget || tr == nil {
			mv.VX = 0
			mv.VZ = 0
			return
		}

		speed := 1.0
		if unit := e.world.Unit(id); unit != nil && unit.Speed > 0 {
			speed = unit.Speed
		}

		dx := mv.TargetX - tr.Position.X
		dz := mv.TargetZ - tr.Position.Z
		dist := math.Hypot(dx, dz)
		maxStep := speed * e.dt

		if dist <= maxStep+arriveEpsilon {
			tr.Position.X = mv.TargetX
			tr.Position.Z = mv.TargetZ
			mv.VX = 0
			mv.VZ = 0
			e.advanceWaypoint(mv)
			return
		}

		mv.VX = dx / dist * speed
		mv.VZ = dz / dist * speed
		tr.Position.X += mv.VX * e.dt
		tr.Position.Z += mv.VZ * e.dt
	})
}

// advanceWaypoint rotates to the next queued waypoint, or finishes the move
// when none remain. The current target is Path[0] while a path is active.
func (e *Engine) advanceWaypoint(mv *ecs.Movement) {
	if len(mv.Path) > 0 {
		head := mv.Path[0]
		if head.X == mv.TargetX && head.Z == mv.TargetZ {
			mv.Path = mv.Path[1:]
		}
	}
	if len(mv.Path) > 0 {
		mv.TargetX = mv.Path[0].X
		mv.TargetZ = mv.Path[0].Z
		return
	}
	mv.Path = nil
	mv.HasTarget = false
}
