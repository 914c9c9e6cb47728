package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"siegeline/server/internal/ecs"
	"siegeline/server/internal/net/proto"
	"siegeline/server/internal/sim"
	"siegeline/server/internal/telemetry"
)

const (
	readLimit  = 64 * 1024
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Handler upgrades HTTP requests and pumps client commands into the loop.
type Handler struct {
	hub      *Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, logger telemetry.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("upgrade failed: %v", err)
		}
		return
	}
	sess := h.hub.register(conn)
	go h.pingLoop(sess)
	go h.readLoop(sess)
}

func (h *Handler) pingLoop(sess *session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		sess.mu.Lock()
		sess.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err := sess.conn.WriteMessage(websocket.PingMessage, nil)
		sess.mu.Unlock()
		if err != nil {
			return
		}
	}
}

func (h *Handler) readLoop(sess *session) {
	defer h.hub.drop(sess)
	sess.conn.SetReadLimit(readLimit)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg proto.ClientCommand
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reject(sess, msg.Seq, "malformed")
			continue
		}
		cmd, ok := commandFromMessage(sess.id, msg)
		if !ok {
			h.reject(sess, msg.Seq, "unknown_type")
			continue
		}
		if ok, reason := h.hub.loop.Enqueue(cmd); !ok {
			h.reject(sess, msg.Seq, reason)
		}
	}
}

func (h *Handler) reject(sess *session, seq uint64, reason string) {
	data, err := json.Marshal(proto.RejectMessage{
		Type:   proto.MessageTypeReject,
		Seq:    seq,
		Reason: reason,
	})
	if err != nil {
		return
	}
	if err := sess.write(data); err != nil && h.logger != nil {
		h.logger.Printf("reject write to %s failed: %v", sess.id, err)
	}
}

func commandFromMessage(sessionID string, msg proto.ClientCommand) (sim.Command, bool) {
	switch msg.Type {
	case "move":
		units := make([]ecs.EntityID, len(msg.Units))
		for i, raw := range msg.Units {
			units[i] = ecs.EntityID(raw)
		}
		targets := make([]ecs.Vec2, len(msg.Targets))
		for i, pos := range msg.Targets {
			targets[i] = ecs.Vec2{X: pos.X, Z: pos.Z}
		}
		return sim.Command{
			SessionID: sessionID,
			Type:      sim.CommandMove,
			Move: &sim.MoveIntent{
				Units:               units,
				Targets:             targets,
				Group:               msg.Group,
				ClearAttackIntent:   msg.ClearAttackIntent,
				AllowDirectFallback: !msg.NoDirectFallback,
			},
		}, true
	case "attack":
		units := make([]ecs.EntityID, len(msg.Units))
		for i, raw := range msg.Units {
			units[i] = ecs.EntityID(raw)
		}
		return sim.Command{
			SessionID: sessionID,
			Type:      sim.CommandAttack,
			Attack: &sim.AttackIntent{
				Units:    units,
				TargetID: ecs.EntityID(msg.TargetID),
				Chase:    msg.Chase,
			},
		}, true
	default:
		return sim.Command{}, false
	}
}
