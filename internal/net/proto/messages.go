// Package proto defines the wire messages exchanged with command clients.
// The schema exporter in cmd/schema publishes these for UI tooling.
package proto

// Position is a world-space ground position.
type Position struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// ClientCommand is any message a client sends. Type selects which of the
// optional sections applies.
type ClientCommand struct {
	Type string `json:"type" jsonschema:"enum=move,enum=attack"`
	Seq  uint64 `json:"seq,omitempty"`

	// Move fields.
	Units   []uint64   `json:"units,omitempty"`
	Targets []Position `json:"targets,omitempty"`
	Group   bool       `json:"group,omitempty"`
	// ClearAttackIntent cancels existing attack orders on the moved units.
	ClearAttackIntent bool `json:"clearAttackIntent,omitempty"`
	// NoDirectFallback forbids snapping straight to the destination; by
	// default short moves skip the path search.
	NoDirectFallback bool `json:"noDirectFallback,omitempty"`

	// Attack fields.
	TargetID uint64 `json:"targetId,omitempty"`
	Chase    bool   `json:"chase,omitempty"`
}

// UnitState is one unit's snapshot entry.
type UnitState struct {
	ID          uint64  `json:"id"`
	Spawn       string  `json:"spawn,omitempty"`
	X           float64 `json:"x"`
	Z           float64 `json:"z"`
	GoalX       float64 `json:"goalX"`
	GoalZ       float64 `json:"goalZ"`
	HasTarget   bool    `json:"hasTarget"`
	PathPending bool    `json:"pathPending"`
}

// StateMessage is the per-tick broadcast.
type StateMessage struct {
	Type       string      `json:"type"`
	Tick       uint64      `json:"tick"`
	ServerTime int64       `json:"serverTime"`
	Units      []UnitState `json:"units"`
}

// RejectMessage tells a client its command was dropped and why.
type RejectMessage struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq,omitempty"`
	Reason string `json:"reason"`
}

const (
	MessageTypeState  = "state"
	MessageTypeReject = "reject"
)
