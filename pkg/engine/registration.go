// pkg/engine/registration.go
package engine

import (
	"context"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// AddPlayer registers a player. A player with the same id is replaced in place.
func (e *Engine) AddPlayer(p *entity.Player) {
	e.players.put(p.ID, p)
	e.ids.Reserve(p.ID)
	e.bus.Publish(event.NewEntityEvent(event.PlayerJoined, e, p.ID, ""))
}

// RemovePlayer unregisters a player. Unknown ids are ignored.
func (e *Engine) RemovePlayer(id string) bool {
	if !e.players.remove(id) {
		return false
	}
	e.bus.Publish(event.NewEntityEvent(event.PlayerLeft, e, id, ""))
	return true
}

// AddDynamic registers a projectile. Call it only once the projectile's id
// is final.
func (e *Engine) AddDynamic(p *entity.Projectile) {
	e.dynamics.put(p.ID, p)
	e.ids.Reserve(p.ID)
	e.bus.Publish(event.NewEntityEvent(event.ProjectileFired, e, p.ID, p.OwnerID))
}

// RemoveDynamic unregisters a projectile. Unknown ids are ignored.
func (e *Engine) RemoveDynamic(id string) bool {
	return e.dynamics.remove(id)
}

// AddStatics registers tiles and adds them to the static index.
func (e *Engine) AddStatics(tiles []*entity.Tile) {
	for _, t := range tiles {
		e.statics.put(t.ID, t)
		e.ids.Reserve(t.ID)
		if !e.staticIndex.Insert(t.Point()) {
			e.logger.Warn(context.Background(), "tile outside map ignored by index",
				"tile", t.ID, "x", t.Location.X, "y", t.Location.Y)
		}
	}
}

// SetStatics replaces every tile and rebuilds the static index.
func (e *Engine) SetStatics(tiles []*entity.Tile) {
	e.statics.clear()
	e.staticIndex = physics.NewQuadTree(e.bounds, e.capacity)
	e.AddStatics(tiles)
}

// SetRegions replaces the trigger regions
func (e *Engine) SetRegions(regions []*entity.Region) {
	e.regions = append([]*entity.Region(nil), regions...)
}

// UpdatePlayer merges a snapshot into the player with the same id, or
// registers a new player built from it. objectives are added either way.
// The boolean reports whether a player was created.
func (e *Engine) UpdatePlayer(s entity.PlayerSnapshot, objectives []string) (*entity.Player, bool) {
	if p, ok := e.players.get(s.ID); ok && s.ID != "" {
		p.ApplySnapshot(s)
		addObjectives(p, objectives)
		return p, false
	}

	if s.ID == "" {
		s.ID = e.ids.Next()
	}
	p := entity.NewPlayerFromSnapshot(s)
	addObjectives(p, objectives)
	e.AddPlayer(p)
	return p, true
}

func addObjectives(p *entity.Player, objectives []string) {
	for _, o := range objectives {
		p.AddObjective(o)
	}
}

// Remove unregisters entities returned by Update. Tiles are never removed.
func (e *Engine) Remove(entities []entity.Entity) {
	for _, ent := range entities {
		removed := false
		switch v := ent.(type) {
		case *entity.Player:
			removed = e.RemovePlayer(v.ID)
		case *entity.Projectile:
			removed = e.RemoveDynamic(v.ID)
		}
		if removed {
			e.bus.Publish(event.NewEntityEvent(event.EntityRemoved, e, ent.Core().ID, ""))
		}
	}
}

// Player returns a registered player
func (e *Engine) Player(id string) (*entity.Player, bool) {
	return e.players.get(id)
}

// Dynamic returns a registered projectile
func (e *Engine) Dynamic(id string) (*entity.Projectile, bool) {
	return e.dynamics.get(id)
}

// Static returns a registered tile
func (e *Engine) Static(id string) (*entity.Tile, bool) {
	return e.statics.get(id)
}

// Players returns every player in registration order
func (e *Engine) Players() []*entity.Player {
	return e.players.values()
}

// Dynamics returns every projectile in registration order
func (e *Engine) Dynamics() []*entity.Projectile {
	return e.dynamics.values()
}

// Statics returns every tile in registration order
func (e *Engine) Statics() []*entity.Tile {
	return e.statics.values()
}

// Regions returns the trigger regions
func (e *Engine) Regions() []*entity.Region {
	return append([]*entity.Region(nil), e.regions...)
}

// Bounds returns the map boundary
func (e *Engine) Bounds() physics.Rect {
	return e.bounds
}

// IDs returns the id allocator
func (e *Engine) IDs() *entity.IDAllocator {
	return e.ids
}

// Events returns the bus the engine publishes on
func (e *Engine) Events() *event.Bus {
	return e.bus
}

// Tick returns the number of completed updates
func (e *Engine) Tick() uint64 {
	return e.tick
}

// Counts returns the registry sizes, for health reporting
func (e *Engine) Counts() (players, dynamics, statics int) {
	return e.players.len(), e.dynamics.len(), e.statics.len()
}
