package sim

import (
	"time"

	"siegeline/server/internal/ecs"
)

// CommandType enumerates the staged simulation commands.
type CommandType string

const (
	CommandMove   CommandType = "Move"
	CommandAttack CommandType = "Attack"
)

// MoveIntent orders units to destinations. Units and Targets are parallel
// slices; a length mismatch makes the command a no-op downstream.
type MoveIntent struct {
	Units               []ecs.EntityID `json:"units"`
	Targets             []ecs.Vec2     `json:"targets"`
	Group               bool           `json:"group"`
	ClearAttackIntent   bool           `json:"clearAttackIntent"`
	AllowDirectFallback bool           `json:"allowDirectFallback"`
}

// AttackIntent orders units to fight one target entity.
type AttackIntent struct {
	Units    []ecs.EntityID `json:"units"`
	TargetID ecs.EntityID   `json:"targetId"`
	Chase    bool           `json:"chase"`
}

// Command is an intent captured off the network for processing on the next
// tick.
type Command struct {
	OriginTick uint64        `json:"originTick"`
	SessionID  string        `json:"sessionId"`
	Type       CommandType   `json:"type"`
	IssuedAt   time.Time     `json:"issuedAt"`
	Move       *MoveIntent   `json:"move,omitempty"`
	Attack     *AttackIntent `json:"attack,omitempty"`
}
