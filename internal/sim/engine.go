// Package sim runs the fixed-timestep simulation: drain staged commands,
// resolve them through the command service, reconcile completed path
// searches, then integrate movement.
package sim

import (
	"siegeline/server/internal/command"
	"siegeline/server/internal/ecs"
	"siegeline/server/internal/telemetry"
)

// Engine owns the per-tick pipeline. All world mutation happens inside Step,
// on whichever goroutine drives the loop; producers only touch the command
// buffer.
type Engine struct {
	world    *ecs.World
	commands *command.Service
	logger   telemetry.Logger
	metrics  telemetry.Metrics

	tick uint64
	dt   float64
}

type EngineConfig struct {
	World    *ecs.World
	Commands *command.Service
	TickRate int
	Logger   telemetry.Logger
	Metrics  telemetry.Metrics
}

func NewEngine(cfg EngineConfig) *Engine {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	return &Engine{
		world:    cfg.World,
		commands: cfg.Commands,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		dt:       1.0 / float64(tickRate),
	}
}

func (e *Engine) Tick() uint64 {
	if e == nil {
		return 0
	}
	return e.tick
}

func (e *Engine) World() *ecs.World {
	if e == nil {
		return nil
	}
	return e.world
}

// Apply resolves a batch of drained commands in arrival order.
func (e *Engine) Apply(cmds []Command) {
	if e == nil || e.commands == nil {
		return
	}
	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandMove:
			if cmd.Move == nil {
				continue
			}
			e.commands.MoveUnits(cmd.Move.Units, cmd.Move.Targets, command.MoveOptions{
				GroupMove:           cmd.Move.Group,
				ClearAttackIntent:   cmd.Move.ClearAttackIntent,
				AllowDirectFallback: cmd.Move.AllowDirectFallback,
			})
		case CommandAttack:
			if cmd.Attack == nil {
				continue
			}
			e.commands.AttackTarget(cmd.Attack.Units, cmd.Attack.TargetID, cmd.Attack.Chase)
		default:
			if e.logger != nil {
				e.logger.Printf("dropping unknown command type %q from %s", cmd.Type, cmd.SessionID)
			}
		}
	}
}

// Step advances the simulation one tick: reconcile finished path searches,
// integrate movement, decay hold cooldowns.
func (e *Engine) Step() {
	if e == nil {
		return
	}
	e.tick++
	if e.commands != nil {
		e.commands.SetTick(e.tick)
		e.commands.ProcessPathResults()
	}
	e.integrateMovement()
	e.decayHoldCooldowns()
}

func (e *Engine) decayHoldCooldowns() {
	e.world.ForEachHoldMode(func(_ ecs.EntityID, hold *ecs.HoldMode) {
		if hold.Active || hold.ExitCooldown <= 0 {
			return
		}
		hold.ExitCooldown -= e.dt
		if hold.ExitCooldown < 0 {
			hold.ExitCooldown = 0
		}
	})
}
