package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router buffers published events on a channel and forwards them to every
// configured sink from a single dispatch goroutine. Publishing never blocks;
// events are dropped (and counted) when the buffer is full.
type Router struct {
	cfg         Config
	queue       chan Event
	sinks       []NamedSink
	clock       Clock
	fallback    *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	closed      atomic.Bool
	minSeverity Severity
	fields      map[string]any
	wg          sync.WaitGroup

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
	lastDropLog  atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) *Router {
	if clock == nil {
		clock = SystemClock{}
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 512
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:         cfg,
		queue:       make(chan Event, bufferSize),
		clock:       clock,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		ctx:         ctx,
		cancel:      cancel,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.sinks = append(r.sinks, named)
	}

	r.wg.Add(1)
	go r.dispatch()
	return r
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			r.drain()
			return
		case event := <-r.queue:
			r.forward(event)
		}
	}
}

func (r *Router) drain() {
	for {
		select {
		case event := <-r.queue:
			r.forward(event)
		default:
			return
		}
	}
}

func (r *Router) forward(event Event) {
	for _, named := range r.sinks {
		if err := named.Sink.Write(event); err != nil {
			r.fallback.Printf("sink %s write failed: %v", named.Name, err)
		}
	}
}

// Publish implements Publisher. Events below the configured severity are
// filtered here rather than in each sink.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || r.closed.Load() {
		return
	}
	if event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	select {
	case r.queue <- event:
		r.eventsTotal.Add(1)
	default:
		r.noteDrop()
	}
}

func (r *Router) noteDrop() {
	dropped := r.droppedTotal.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		return
	}
	now := r.clock.Now().UnixNano()
	last := r.lastDropLog.Load()
	if now-last < int64(interval) {
		return
	}
	if r.lastDropLog.CompareAndSwap(last, now) {
		r.fallback.Printf("event queue full, %d events dropped so far", dropped)
	}
}

func (r *Router) Stats() RouterStats {
	if r == nil {
		return RouterStats{}
	}
	return RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}

// Close stops the dispatcher, flushes buffered events, and closes every sink.
func (r *Router) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	var firstErr error
	for _, named := range r.sinks {
		if err := named.Sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
