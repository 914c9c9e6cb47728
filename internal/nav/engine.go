// Package nav runs grid path searches on a worker goroutine behind a
// submit/fetch queue. Submitting never blocks the simulation thread, and
// every accepted request is eventually answered, even if only with an empty
// path when the goal is unreachable.
package nav

import (
	"sync"

	"siegeline/server/internal/grid"
)

// Result is one completed search, ready to be drained by the reconciler.
type Result struct {
	RequestID uint64
	// Path lists the cells from start to goal inclusive; nil when no path
	// exists.
	Path []grid.Point
}

type pathRequest struct {
	id    uint64
	start grid.Point
	end   grid.Point
}

const requestQueueSize = 256

// Engine owns the walkability grid and the search worker. Walkability edits
// and worker reads share a RWMutex; completed results accumulate in a
// mutex-guarded buffer until fetched.
type Engine struct {
	width  int
	height int

	gridMu   sync.RWMutex
	walkable []bool

	requests chan pathRequest
	stop     chan struct{}
	wg       sync.WaitGroup

	completedMu sync.Mutex
	completed   []Result
}

// NewEngine builds a fully walkable grid of the given cell dimensions and
// starts the search worker.
func NewEngine(width, height int) *Engine {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	e := &Engine{
		width:    width,
		height:   height,
		walkable: make([]bool, width*height),
		requests: make(chan pathRequest, requestQueueSize),
		stop:     make(chan struct{}),
	}
	for i := range e.walkable {
		e.walkable[i] = true
	}
	e.wg.Add(1)
	go e.worker()
	return e
}

func (e *Engine) Width() int  { return e.width }
func (e *Engine) Height() int { return e.height }

func (e *Engine) index(x, z int) int {
	return z*e.width + x
}

func (e *Engine) inBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < e.width && z < e.height
}

func (e *Engine) walkableLocked(x, z int) bool {
	if !e.inBounds(x, z) {
		return false
	}
	return e.walkable[e.index(x, z)]
}

// IsWalkable reports whether the cell is inside the grid and traversable.
func (e *Engine) IsWalkable(x, z int) bool {
	if e == nil {
		return false
	}
	e.gridMu.RLock()
	defer e.gridMu.RUnlock()
	return e.walkableLocked(x, z)
}

// SetWalkable marks a cell traversable or blocked. Out-of-bounds cells are
// ignored.
func (e *Engine) SetWalkable(x, z int, walkable bool) {
	if e == nil || !e.inBounds(x, z) {
		return
	}
	e.gridMu.Lock()
	e.walkable[e.index(x, z)] = walkable
	e.gridMu.Unlock()
}

// SubmitPathRequest enqueues a search and returns immediately. If the queue
// is saturated the request is answered straight away with an empty path so
// the owner is never left pending forever.
func (e *Engine) SubmitPathRequest(id uint64, start, end grid.Point) {
	if e == nil {
		return
	}
	select {
	case e.requests <- pathRequest{id: id, start: start, end: end}:
	default:
		e.complete(Result{RequestID: id})
	}
}

// FetchCompletedPaths drains every finished search. Non-blocking; returns
// nil when nothing has completed since the last call.
func (e *Engine) FetchCompletedPaths() []Result {
	if e == nil {
		return nil
	}
	e.completedMu.Lock()
	defer e.completedMu.Unlock()
	if len(e.completed) == 0 {
		return nil
	}
	results := e.completed
	e.completed = nil
	return results
}

// Close stops the worker after it finishes the request in hand. Requests
// still queued are answered with empty paths.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	close(e.stop)
	e.wg.Wait()
	for {
		select {
		case req := <-e.requests:
			e.complete(Result{RequestID: req.id})
		default:
			return
		}
	}
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case req := <-e.requests:
			e.complete(e.search(req))
		}
	}
}

func (e *Engine) search(req pathRequest) Result {
	e.gridMu.RLock()
	defer e.gridMu.RUnlock()
	if !e.walkableLocked(req.start.X, req.start.Z) || !e.walkableLocked(req.end.X, req.end.Z) {
		return Result{RequestID: req.id}
	}
	path, ok := e.astar(req.start, req.end)
	if !ok {
		return Result{RequestID: req.id}
	}
	return Result{RequestID: req.id, Path: path}
}

func (e *Engine) complete(result Result) {
	e.completedMu.Lock()
	e.completed = append(e.completed, result)
	e.completedMu.Unlock()
}
