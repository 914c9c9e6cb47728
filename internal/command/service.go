// Package command turns player and AI intents into per-unit steering goals.
// It owns the pending-request ledger, mediates access to the asynchronous
// path engine, and reconciles completed searches back onto live entities.
package command

import (
	"context"

	"siegeline/server/internal/ecs"
	"siegeline/server/internal/grid"
	"siegeline/server/internal/nav"
	"siegeline/server/internal/telemetry"
	"siegeline/server/logging"
)

const (
	metricMoveCommands   = "command_move_total"
	metricPathRequests   = "command_path_requests_total"
	metricDirectMoves    = "command_direct_moves_total"
	metricGroupAborts    = "command_group_aborts_total"
	metricResultsApplied = "command_path_results_applied_total"
	metricStaleResults   = "command_path_results_stale_total"
)

const (
	eventPathRequested logging.EventType = "command.path_requested"
	eventGroupResolved logging.EventType = "command.group_resolved"
	eventGroupAborted  logging.EventType = "command.group_aborted"
)

// Pathfinder is the request/response contract with the search engine. Both
// calls return immediately; results arrive later through FetchCompletedPaths.
type Pathfinder interface {
	IsWalkable(cellX, cellZ int) bool
	SubmitPathRequest(requestID uint64, start, end grid.Point)
	FetchCompletedPaths() []nav.Result
}

// ServiceConfig carries the optional collaborators. Nil fields fall back to
// no-ops.
type ServiceConfig struct {
	Tuning    *Tuning
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// Service is the command and movement orchestration layer. One instance is
// owned by the simulation; resolvers run on the simulation thread, while the
// ledger inside tolerates reconciliation from other goroutines.
type Service struct {
	world     *ecs.World
	engine    Pathfinder
	mapper    grid.Mapper
	ledger    *ledger
	tuning    Tuning
	publisher logging.Publisher
	metrics   telemetry.Metrics
	tick      uint64
}

func NewService(world *ecs.World, cfg ServiceConfig) *Service {
	tuning := DefaultTuning()
	if cfg.Tuning != nil {
		tuning = *cfg.Tuning
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Service{
		world:     world,
		ledger:    newLedger(),
		tuning:    tuning,
		publisher: publisher,
		metrics:   cfg.Metrics,
	}
}

// Initialize attaches the path engine for a freshly loaded level and resets
// all ledger state. The coordinate mapper is rebuilt so the grid is centered
// under the playable area. Call once per level load.
func (s *Service) Initialize(engine Pathfinder, worldWidth, worldHeight int) {
	s.engine = engine
	s.mapper = grid.NewCenteredMapper(worldWidth, worldHeight)
	s.ledger.reset()
}

// SetTick stamps subsequent log events with the simulation tick.
func (s *Service) SetTick(tick uint64) {
	s.tick = tick
}

// Mapper exposes the world/grid conversion in use.
func (s *Service) Mapper() grid.Mapper {
	return s.mapper
}

// PendingRequestCount reports in-flight searches, for status endpoints.
func (s *Service) PendingRequestCount() int {
	return s.ledger.pendingCount()
}

// MoveUnits applies one destination per unit. Mismatched slice lengths make
// the whole command a no-op. With GroupMove set and more than one unit the
// formation heuristics take over; otherwise each unit is resolved on its own.
func (s *Service) MoveUnits(units []ecs.EntityID, targets []ecs.Vec2, options MoveOptions) {
	if len(units) != len(targets) {
		return
	}
	units, targets = s.sanitizeSelection(units, targets)
	if len(units) == 0 {
		return
	}
	s.addMetric(metricMoveCommands, 1)

	if options.GroupMove && len(units) > 1 {
		s.moveGroup(units, targets, options)
		return
	}
	for i := range units {
		s.moveUnit(units[i], targets[i], options)
	}
}

// sanitizeSelection drops despawned and dead entities from an incoming
// command before any state is touched.
func (s *Service) sanitizeSelection(units []ecs.EntityID, targets []ecs.Vec2) ([]ecs.EntityID, []ecs.Vec2) {
	keptUnits := units[:0:0]
	keptTargets := targets[:0:0]
	for i, id := range units {
		if !s.world.Exists(id) {
			continue
		}
		if unit := s.world.Unit(id); unit != nil && unit.Health <= 0 {
			continue
		}
		keptUnits = append(keptUnits, id)
		keptTargets = append(keptTargets, targets[i])
	}
	return keptUnits, keptTargets
}

// moveUnit resolves one move command for one entity.
func (s *Service) moveUnit(id ecs.EntityID, target ecs.Vec2, options MoveOptions) {
	s.exitHoldMode(id)

	if atk := s.world.Attack(id); atk != nil && atk.InMeleeLock {
		return
	}

	transform := s.world.Transform(id)
	if transform == nil {
		return
	}
	mv := s.world.EnsureMovement(id)
	if mv == nil {
		return
	}

	if options.ClearAttackIntent {
		s.world.RemoveAttackTarget(id)
	}

	matchedPending := false
	if mv.PathPending {
		matchedPending = s.ledger.reuseIfSameTarget(id, target, s.tuning.SameTargetEpsilonSq, options)
	}

	mv.GoalX = target.X
	mv.GoalZ = target.Z

	if matchedPending {
		return
	}

	if mv.TimeSinceLastPathRequest < s.tuning.PathRequestCooldown {
		dx := mv.LastGoalX - target.X
		dz := mv.LastGoalZ - target.Z
		if dx*dx+dz*dz < s.tuning.GoalMovementThresholdSq {
			if mv.HasTarget || mv.PathPending {
				return
			}
		}
	}

	if !mv.PathPending && s.alreadyHeadedThere(mv, target) {
		return
	}

	if s.engine == nil {
		s.snapTo(id, mv, target)
		return
	}

	start := s.mapper.WorldToGrid(transform.Position.X, transform.Position.Z)
	end := s.mapper.WorldToGrid(target.X, target.Z)

	if start == end {
		s.snapTo(id, mv, target)
		return
	}

	if options.AllowDirectFallback && grid.ManhattanDistance(start, end) <= s.tuning.DirectPathThreshold {
		s.snapTo(id, mv, target)
		mv.TimeSinceLastPathRequest = 0
		mv.LastGoalX = target.X
		mv.LastGoalZ = target.Z
		s.addMetric(metricDirectMoves, 1)
		return
	}

	if s.ledger.supersede(id, target, s.tuning.SameTargetEpsilonSq, options) {
		return
	}

	mv.Path = nil
	mv.HasTarget = false
	mv.VX = 0
	mv.VZ = 0
	mv.PathPending = true

	requestID := s.ledger.allocate()
	mv.PendingRequestID = requestID
	s.ledger.register(requestID, &pendingRequest{
		entityID: id,
		target:   target,
		options:  options,
	})
	s.engine.SubmitPathRequest(requestID, start, end)

	mv.TimeSinceLastPathRequest = 0
	mv.LastGoalX = target.X
	mv.LastGoalZ = target.Z
	s.addMetric(metricPathRequests, 1)
	s.publish(logging.Event{
		Type:     eventPathRequested,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPathing,
		Actor:    logging.EntityRef{ID: uint64(id), Kind: logging.EntityKindUnit},
		Payload: map[string]any{
			"requestId": requestID,
			"start":     start,
			"end":       end,
		},
	})
}

// alreadyHeadedThere reports whether the entity's immediate target or final
// queued waypoint already matches the destination.
func (s *Service) alreadyHeadedThere(mv *ecs.Movement, target ecs.Vec2) bool {
	if mv.HasTarget && len(mv.Path) == 0 {
		dx := mv.TargetX - target.X
		dz := mv.TargetZ - target.Z
		if dx*dx+dz*dz <= s.tuning.SameTargetEpsilonSq {
			return true
		}
	}
	if len(mv.Path) > 0 {
		last := mv.Path[len(mv.Path)-1]
		dx := last.X - target.X
		dz := last.Z - target.Z
		if dx*dx+dz*dz <= s.tuning.SameTargetEpsilonSq {
			return true
		}
	}
	return false
}

// snapTo sets the immediate target directly and clears any path state and
// ledger entry the entity still holds.
func (s *Service) snapTo(id ecs.EntityID, mv *ecs.Movement, target ecs.Vec2) {
	mv.TargetX = target.X
	mv.TargetZ = target.Z
	mv.HasTarget = true
	mv.Path = nil
	mv.PathPending = false
	mv.PendingRequestID = 0
	mv.VX = 0
	mv.VZ = 0
	s.ledger.cancel(id)
}

// exitHoldMode drops the hold stance and arms the stand-up cooldown; a move
// command always implies leaving hold.
func (s *Service) exitHoldMode(id ecs.EntityID) {
	hold := s.world.HoldMode(id)
	if hold == nil || !hold.Active {
		return
	}
	hold.Active = false
	hold.ExitCooldown = hold.StandUpDuration
}

func (s *Service) addMetric(key string, delta uint64) {
	if s.metrics == nil {
		return
	}
	s.metrics.Add(key, delta)
}

func (s *Service) publish(event logging.Event) {
	event.Tick = s.tick
	s.publisher.Publish(context.Background(), event)
}
