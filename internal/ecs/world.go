package ecs

import "sync/atomic"

// EntityID is the stable identifier for a live entity. Zero is never issued.
type EntityID uint64

// World stores entities and their components in typed maps with explicit
// accessors; capability checks are map lookups, never reflection. All
// component mutation happens on the simulation thread.
type World struct {
	nextID atomic.Uint64

	entities      map[EntityID]struct{}
	transforms    map[EntityID]*Transform
	movements     map[EntityID]*Movement
	attacks       map[EntityID]*Attack
	attackTargets map[EntityID]*AttackTarget
	holdModes     map[EntityID]*HoldMode
	units         map[EntityID]*Unit
	buildings     map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		entities:      make(map[EntityID]struct{}),
		transforms:    make(map[EntityID]*Transform),
		movements:     make(map[EntityID]*Movement),
		attacks:       make(map[EntityID]*Attack),
		attackTargets: make(map[EntityID]*AttackTarget),
		holdModes:     make(map[EntityID]*HoldMode),
		units:         make(map[EntityID]*Unit),
		buildings:     make(map[EntityID]struct{}),
	}
}

// CreateEntity registers a new bare entity and returns its id.
func (w *World) CreateEntity() EntityID {
	id := EntityID(w.nextID.Add(1))
	w.entities[id] = struct{}{}
	return id
}

// SpawnUnit creates a unit entity of the given archetype at a position.
func (w *World) SpawnUnit(spawn SpawnType, pos Vec2) EntityID {
	id := w.CreateEntity()
	unit, attack := UnitProfile(spawn)
	w.units[id] = &unit
	w.attacks[id] = &attack
	w.transforms[id] = &Transform{Position: pos, ScaleX: 1, ScaleZ: 1}
	return id
}

// SpawnBuilding creates a building entity with the given footprint scale.
func (w *World) SpawnBuilding(pos Vec2, scaleX, scaleZ float64) EntityID {
	id := w.CreateEntity()
	w.transforms[id] = &Transform{Position: pos, ScaleX: scaleX, ScaleZ: scaleZ}
	w.buildings[id] = struct{}{}
	return id
}

// RemoveEntity drops the entity and all of its components.
func (w *World) RemoveEntity(id EntityID) {
	delete(w.entities, id)
	delete(w.transforms, id)
	delete(w.movements, id)
	delete(w.attacks, id)
	delete(w.attackTargets, id)
	delete(w.holdModes, id)
	delete(w.units, id)
	delete(w.buildings, id)
}

func (w *World) Exists(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

func (w *World) Transform(id EntityID) *Transform {
	return w.transforms[id]
}

func (w *World) SetTransform(id EntityID, t Transform) {
	if !w.Exists(id) {
		return
	}
	w.transforms[id] = &t
}

func (w *World) Movement(id EntityID) *Movement {
	return w.movements[id]
}

// EnsureMovement lazily attaches a movement component so a command can be
// applied to an entity that has never moved before.
func (w *World) EnsureMovement(id EntityID) *Movement {
	if !w.Exists(id) {
		return nil
	}
	if mv, ok := w.movements[id]; ok {
		return mv
	}
	mv := &Movement{}
	w.movements[id] = mv
	return mv
}

func (w *World) Attack(id EntityID) *Attack {
	return w.attacks[id]
}

func (w *World) AttackTarget(id EntityID) *AttackTarget {
	return w.attackTargets[id]
}

func (w *World) SetAttackTarget(id EntityID, target AttackTarget) *AttackTarget {
	if !w.Exists(id) {
		return nil
	}
	if existing, ok := w.attackTargets[id]; ok {
		*existing = target
		return existing
	}
	at := &target
	w.attackTargets[id] = at
	return at
}

func (w *World) RemoveAttackTarget(id EntityID) {
	delete(w.attackTargets, id)
}

func (w *World) HoldMode(id EntityID) *HoldMode {
	return w.holdModes[id]
}

func (w *World) SetHoldMode(id EntityID, hold HoldMode) {
	if !w.Exists(id) {
		return
	}
	w.holdModes[id] = &hold
}

func (w *World) Unit(id EntityID) *Unit {
	return w.units[id]
}

func (w *World) IsBuilding(id EntityID) bool {
	_, ok := w.buildings[id]
	return ok
}

// ForEachMovement visits every entity carrying a movement component.
func (w *World) ForEachMovement(fn func(id EntityID, mv *Movement, tr *Transform)) {
	for id, mv := range w.movements {
		fn(id, mv, w.transforms[id])
	}
}

// ForEachHoldMode visits every entity carrying a hold-mode component.
func (w *World) ForEachHoldMode(fn func(id EntityID, hold *HoldMode)) {
	for id, hold := range w.holdModes {
		fn(id, hold)
	}
}

// ForEachUnit visits every unit entity.
func (w *World) ForEachUnit(fn func(id EntityID, unit *Unit, tr *Transform)) {
	for id, unit := range w.units {
		fn(id, unit, w.transforms[id])
	}
}
