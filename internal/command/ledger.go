package command

import (
	"sync"
	"sync/atomic"

	"siegeline/server/internal/ecs"
)

// pendingRequest is the ledger record for one in-flight path search. The
// owner is the entity whose start/end cells were actually submitted; group
// followers replay the owner's path with a positional offset.
type pendingRequest struct {
	entityID     ecs.EntityID
	target       ecs.Vec2
	options      MoveOptions
	groupMembers []ecs.EntityID
	groupTargets []ecs.Vec2
}

// ledger tracks in-flight path requests in both directions: request id to
// record, and entity to the request it currently owns or follows. Every
// sequence that touches both maps runs under the one mutex so a reader can
// never observe one side updated without the other.
type ledger struct {
	mu       sync.Mutex
	nextID   atomic.Uint64
	requests map[uint64]*pendingRequest
	byEntity map[ecs.EntityID]uint64
}

func newLedger() *ledger {
	return &ledger{
		requests: make(map[uint64]*pendingRequest),
		byEntity: make(map[ecs.EntityID]uint64),
	}
}

// allocate issues a fresh request id. Ids are monotonic and never reused.
func (l *ledger) allocate() uint64 {
	return l.nextID.Add(1)
}

// reset clears both maps. The id counter keeps counting so ids from before a
// level reload can never collide with new ones.
func (l *ledger) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = make(map[uint64]*pendingRequest)
	l.byEntity = make(map[ecs.EntityID]uint64)
}

// register records the request and points the owner plus every group member
// at it.
func (l *ledger) register(id uint64, req *pendingRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[id] = req
	l.byEntity[req.entityID] = id
	for _, member := range req.groupMembers {
		l.byEntity[member] = id
	}
}

// lookupByEntity returns the request id the entity currently points at.
func (l *ledger) lookupByEntity(id ecs.EntityID) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	requestID, ok := l.byEntity[id]
	return requestID, ok
}

// cancel removes the entity's ledger entry. Dropping the entry also drops
// the request record itself and cascades to every member still pointing at
// the same request, so a canceled group search cannot strand followers on a
// dangling id. The cascade only touches the ledger: a follower's movement
// component keeps its stale pending flags (the discarded result never
// reaches it) until its next command resets them.
func (l *ledger) cancel(entityID ecs.EntityID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	requestID, ok := l.byEntity[entityID]
	if !ok {
		return
	}
	delete(l.byEntity, entityID)
	req, ok := l.requests[requestID]
	if !ok {
		return
	}
	delete(l.requests, requestID)
	for _, member := range req.groupMembers {
		if memberID, ok := l.byEntity[member]; ok && memberID == requestID {
			delete(l.byEntity, member)
		}
	}
	if ownerID, ok := l.byEntity[req.entityID]; ok && ownerID == requestID {
		delete(l.byEntity, req.entityID)
	}
}

// reuseIfSameTarget updates the stored options and reports true when the
// entity already has a request in flight for (within epsilon) the same
// destination. A dangling entity entry with no backing request is repaired
// by removal.
func (l *ledger) reuseIfSameTarget(entityID ecs.EntityID, target ecs.Vec2, epsilonSq float64, options MoveOptions) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	requestID, ok := l.byEntity[entityID]
	if !ok {
		return false
	}
	req, ok := l.requests[requestID]
	if !ok {
		delete(l.byEntity, entityID)
		return false
	}
	dx := req.target.X - target.X
	dz := req.target.Z - target.Z
	if dx*dx+dz*dz > epsilonSq {
		return false
	}
	req.options = options
	return true
}

// supersede removes whatever request the entity currently points at,
// cascading like cancel, unless the in-flight request already targets the
// same destination, in which case the options are refreshed and true is
// returned to tell the caller to skip submitting a duplicate.
func (l *ledger) supersede(entityID ecs.EntityID, target ecs.Vec2, epsilonSq float64, options MoveOptions) (reused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	requestID, ok := l.byEntity[entityID]
	if !ok {
		return false
	}
	req, ok := l.requests[requestID]
	if !ok {
		delete(l.byEntity, entityID)
		return false
	}
	dx := req.target.X - target.X
	dz := req.target.Z - target.Z
	if dx*dx+dz*dz <= epsilonSq {
		req.options = options
		return true
	}
	delete(l.requests, requestID)
	delete(l.byEntity, entityID)
	for _, member := range req.groupMembers {
		if memberID, ok := l.byEntity[member]; ok && memberID == requestID {
			delete(l.byEntity, member)
		}
	}
	if ownerID, ok := l.byEntity[req.entityID]; ok && ownerID == requestID {
		delete(l.byEntity, req.entityID)
	}
	return false
}

// take removes and returns the record for a completed request, along with
// every entity entry that still pointed at it. Absent means the request was
// superseded or canceled and the result should be discarded.
func (l *ledger) take(requestID uint64) (pendingRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[requestID]
	if !ok {
		return pendingRequest{}, false
	}
	delete(l.requests, requestID)
	if ownerID, ok := l.byEntity[req.entityID]; ok && ownerID == requestID {
		delete(l.byEntity, req.entityID)
	}
	for _, member := range req.groupMembers {
		if memberID, ok := l.byEntity[member]; ok && memberID == requestID {
			delete(l.byEntity, member)
		}
	}
	return *req, true
}

// pendingCount reports how many requests are in flight.
func (l *ledger) pendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// consistent verifies the cross-reference invariant: every entity entry
// points at a live request that lists that entity as owner or member.
func (l *ledger) consistent() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for entityID, requestID := range l.byEntity {
		req, ok := l.requests[requestID]
		if !ok {
			return false
		}
		if req.entityID == entityID {
			continue
		}
		found := false
		for _, member := range req.groupMembers {
			if member == entityID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
