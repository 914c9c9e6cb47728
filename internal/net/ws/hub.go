// Package ws exposes the simulation to command clients over WebSocket:
// inbound messages are staged into the simulation's command buffer, and a
// state snapshot is broadcast after every tick.
package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"siegeline/server/internal/ecs"
	"siegeline/server/internal/net/proto"
	"siegeline/server/internal/sim"
	"siegeline/server/internal/telemetry"
)

// Hub owns the live client sessions.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	nextID   atomic.Uint64
	loop     *sim.Loop
	engine   *sim.Engine
	logger   telemetry.Logger
}

type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func NewHub(loop *sim.Loop, engine *sim.Engine, logger telemetry.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*session),
		loop:     loop,
		engine:   engine,
		logger:   logger,
	}
}

func (h *Hub) register(conn *websocket.Conn) *session {
	id := fmt.Sprintf("session-%d", h.nextID.Add(1))
	sess := &session{id: id, conn: conn}
	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()
	return sess
}

func (h *Hub) drop(sess *session) {
	h.mu.Lock()
	delete(h.sessions, sess.id)
	h.mu.Unlock()
	sess.conn.Close()
}

// BroadcastTick builds the snapshot and fans it out. It is called from the
// loop's AfterTick hook, so reading the world here stays on the simulation
// goroutine; only the socket writes happen concurrently.
func (h *Hub) BroadcastTick(tick uint64) {
	snapshot := h.buildSnapshot(tick)
	data, err := json.Marshal(snapshot)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("failed to marshal state snapshot: %v", err)
		}
		return
	}

	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		targets = append(targets, sess)
	}
	h.mu.Unlock()

	for _, sess := range targets {
		go func(sess *session) {
			if err := sess.write(data); err != nil {
				if h.logger != nil {
					h.logger.Printf("write to %s failed, dropping: %v", sess.id, err)
				}
				h.drop(sess)
			}
		}(sess)
	}
}

func (h *Hub) buildSnapshot(tick uint64) proto.StateMessage {
	world := h.engine.World()
	msg := proto.StateMessage{
		Type:       proto.MessageTypeState,
		Tick:       tick,
		ServerTime: time.Now().UnixMilli(),
	}
	world.ForEachUnit(func(id ecs.EntityID, unit *ecs.Unit, tr *ecs.Transform) {
		if tr == nil {
			return
		}
		state := proto.UnitState{
			ID:    uint64(id),
			Spawn: string(unit.Spawn),
			X:     tr.Position.X,
			Z:     tr.Position.Z,
		}
		if mv := world.Movement(id); mv != nil {
			state.GoalX = mv.GoalX
			state.GoalZ = mv.GoalZ
			state.HasTarget = mv.HasTarget
			state.PathPending = mv.PathPending
		}
		msg.Units = append(msg.Units, state)
	})
	return msg
}
