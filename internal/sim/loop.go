package sim

import (
	"context"
	"sync"
	"time"

	"siegeline/server/internal/telemetry"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to
	// per-session throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is
	// saturated.
	CommandRejectQueueFull = "queue_full"

	commandRejectMetricKey = "sim_command_reject_total"
)

// LoopConfig tunes command ingestion and the fixed-timestep runner.
type LoopConfig struct {
	TickRate        int
	CommandCapacity int
	PerSessionLimit int
}

// LoopHooks lets the transport observe ticks without the loop knowing about
// sockets.
type LoopHooks struct {
	AfterTick func(tick uint64)
}

// Loop drives the engine at a fixed rate and owns the staging buffer between
// network producers and the simulation thread.
type Loop struct {
	engine  *Engine
	buffer  *CommandBuffer
	hooks   LoopHooks
	config  LoopConfig
	logger  telemetry.Logger
	metrics telemetry.Metrics

	queueMu         sync.Mutex
	perSessionCount map[string]int
}

func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks, logger telemetry.Logger, metrics telemetry.Metrics) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 20
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = 256
	}
	if cfg.PerSessionLimit <= 0 {
		cfg.PerSessionLimit = 32
	}
	return &Loop{
		engine:          engine,
		buffer:          NewCommandBuffer(cfg.CommandCapacity, metrics),
		hooks:           hooks,
		config:          cfg,
		logger:          logger,
		metrics:         metrics,
		perSessionCount: make(map[string]int),
	}
}

// Enqueue stages a command for the next tick. The returned reason is empty
// on success.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	cmd.OriginTick = l.engine.Tick()
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now()
	}

	l.queueMu.Lock()
	count := l.perSessionCount[cmd.SessionID]
	if count >= l.config.PerSessionLimit {
		l.queueMu.Unlock()
		l.reject(cmd, CommandRejectQueueLimit)
		return false, CommandRejectQueueLimit
	}
	l.perSessionCount[cmd.SessionID] = count + 1
	l.queueMu.Unlock()

	if !l.buffer.Push(cmd) {
		l.reject(cmd, CommandRejectQueueFull)
		return false, CommandRejectQueueFull
	}
	return true, ""
}

func (l *Loop) reject(cmd Command, reason string) {
	if l.metrics != nil {
		l.metrics.Add(commandRejectMetricKey, 1)
	}
	if l.logger != nil {
		l.logger.Printf("rejected %s command from %s: %s", cmd.Type, cmd.SessionID, reason)
	}
}

// Advance runs exactly one tick: apply staged commands, then step.
func (l *Loop) Advance() {
	if l == nil {
		return
	}
	l.queueMu.Lock()
	clear(l.perSessionCount)
	l.queueMu.Unlock()

	l.engine.Apply(l.buffer.Drain())
	l.engine.Step()

	if l.hooks.AfterTick != nil {
		l.hooks.AfterTick(l.engine.Tick())
	}
}

// Run drives Advance at the configured tick rate until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	if l == nil {
		return
	}
	interval := time.Second / time.Duration(l.config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Advance()
		}
	}
}
