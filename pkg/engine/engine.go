// Package engine runs the fixed-order collision tick over players,
// projectiles, tiles and regions.
package engine

import (
	"context"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Engine owns the entity registries and both spatial indices.
// It is single-threaded: every call must come from the goroutine that owns it.
type Engine struct {
	bounds   physics.Rect
	capacity int

	players  *registry[*entity.Player]
	dynamics *registry[*entity.Projectile]
	statics  *registry[*entity.Tile]
	regions  []*entity.Region

	dynamicIndex *physics.QuadTree
	staticIndex  *physics.QuadTree

	ids    *entity.IDAllocator
	bus    *event.Bus
	logger *logging.Logger

	tick       uint64
	candidates []physics.IndexedPoint
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEventBus publishes region, hit and registry events on bus
func WithEventBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithIDAllocator shares an id allocator with the caller
func WithIDAllocator(ids *entity.IDAllocator) Option {
	return func(e *Engine) { e.ids = ids }
}

// New creates an engine for a width x height map whose top-left corner is the origin.
func New(cfg config.EngineConfig, opts ...Option) *Engine {
	capacity := cfg.CapacityPerNode
	if capacity <= 0 {
		capacity = physics.DefaultCapacity
	}
	bounds := physics.NewRect(physics.Vec(cfg.Width/2, cfg.Height/2), cfg.Width, cfg.Height)

	e := &Engine{
		bounds:   bounds,
		capacity: capacity,
		players:  newRegistry[*entity.Player](),
		dynamics: newRegistry[*entity.Projectile](),
		statics:  newRegistry[*entity.Tile](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = entity.NewIDAllocator()
	}
	if e.bus == nil {
		e.bus = event.NewEventBus()
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	e.logger = e.logger.With("component", "engine")

	e.dynamicIndex = physics.NewQuadTree(bounds, capacity)
	e.staticIndex = physics.NewQuadTree(bounds, capacity)
	return e
}

// Update runs one tick at simulation time now with step seconds since the
// last one. Player movement must already have been applied. The returned
// entities must be removed by the caller; the engine never removes them itself.
func (e *Engine) Update(now time.Duration, step float64) []entity.Entity {
	e.tick++
	del := newDeletions()

	e.resetRegions()
	e.rebuildDynamicIndex()
	e.updatePlayers()
	e.exitRegions()
	e.updateDynamics(now, step, del)
	e.resolvePlayers(del)
	e.resolveDynamics(del)

	return del.items
}

// resetRegions moves every region's members into its previous-tick set.
func (e *Engine) resetRegions() {
	for _, r := range e.regions {
		r.ResetOverlaps()
	}
}

// rebuildDynamicIndex discards last tick's index and clears static overlap flags.
func (e *Engine) rebuildDynamicIndex() {
	e.dynamicIndex.Clear()
	for _, t := range e.statics.values() {
		t.Overlapping = false
	}
}

// updatePlayers indexes every player, rolling back those that left the map,
// and records region membership.
func (e *Engine) updatePlayers() {
	for _, p := range e.players.values() {
		p.Overlapping = false
		e.insertPlayer(p)
		e.enterRegions(p)
	}
}

func (e *Engine) insertPlayer(p *entity.Player) {
	if e.dynamicIndex.Insert(p.Point()) {
		return
	}
	e.logger.Debug(context.Background(), "player left map, rolling back",
		"player", p.ID, "x", p.Location.X, "y", p.Location.Y)
	p.Rollback()
	if !e.dynamicIndex.Insert(p.Point()) {
		e.logger.Warn(context.Background(), "player rollback outside map",
			"player", p.ID, "x", p.Location.X, "y", p.Location.Y)
	}
}

func (e *Engine) enterRegions(p *entity.Player) {
	for _, r := range e.regions {
		if !r.Contains(p.Location) {
			continue
		}
		if r.AddOverlap(p) {
			r.BeginOverlap(p)
			e.bus.Publish(event.NewRegionEvent(event.RegionEntered, e, r.ID, r.Name, p.ID))
		}
	}
}

// exitRegions fires the exit callback of every region that just became empty.
func (e *Engine) exitRegions() {
	for _, r := range e.regions {
		if r.LastOverlapCount() > 0 && r.OverlapCount() == 0 {
			r.EndOverlap()
			e.bus.Publish(event.NewRegionEvent(event.RegionExited, e, r.ID, r.Name, ""))
		}
	}
}

// updateDynamics advances every projectile and indexes the ones still alive.
func (e *Engine) updateDynamics(now time.Duration, step float64, del *deletions) {
	for _, d := range e.dynamics.values() {
		d.Overlapping = false
		d.Update(now, step, e)
		if d.Expired {
			del.add(d)
			continue
		}
		if !e.dynamicIndex.Insert(d.Point()) {
			e.logger.Debug(context.Background(), "projectile left map",
				"projectile", d.ID, "x", d.Location.X, "y", d.Location.Y)
			del.add(d)
		}
	}
}

// resolvePlayers runs the narrow phase for every player.
func (e *Engine) resolvePlayers(del *deletions) {
	for _, p := range e.players.values() {
		e.resolve(p, "", del, false)
	}
}

// resolveDynamics runs the narrow phase for every projectile not yet
// scheduled for deletion. The first resolution wins.
func (e *Engine) resolveDynamics(del *deletions) {
	for _, d := range e.dynamics.values() {
		if del.has(d.ID) {
			continue
		}
		e.resolve(d, d.OwnerID, del, true)
	}
}

// resolve tests self against the candidates of both indices. ownerID names
// a player self must never hit.
func (e *Engine) resolve(self entity.Entity, ownerID string, del *deletions, skipScheduled bool) {
	selfID := self.Core().ID
	shape := self.Shape()

	e.candidates = e.dynamicIndex.QueryInto(shape, e.candidates[:0])
	e.candidates = e.staticIndex.QueryInto(shape, e.candidates)

	for _, c := range e.candidates {
		if c.OwnerID == selfID || (ownerID != "" && c.OwnerID == ownerID) {
			continue
		}
		if skipScheduled && del.has(c.OwnerID) {
			continue
		}
		other, ok := e.lookup(c.OwnerID)
		if !ok {
			continue
		}
		if proj, ok := other.(*entity.Projectile); ok && proj.OwnerID == selfID {
			continue
		}
		if !shape.Intersects(other.Shape()) {
			continue
		}

		self.Core().Overlapping = true
		other.Core().Overlapping = true

		removed := false
		if self.Hit(other) {
			del.add(self)
			removed = true
		}
		if other.Hit(self) {
			del.add(other)
			removed = true
		}
		e.bus.Publish(event.NewHitEvent(e, selfID, c.OwnerID, removed))
	}
}

// lookup resolves an id against every registry
func (e *Engine) lookup(id string) (entity.Entity, bool) {
	if p, ok := e.players.get(id); ok {
		return p, true
	}
	if d, ok := e.dynamics.get(id); ok {
		return d, true
	}
	if t, ok := e.statics.get(id); ok {
		return t, true
	}
	return nil, false
}

// deletions is the per-tick deletion list; each entity appears once.
type deletions struct {
	seen  map[string]struct{}
	items []entity.Entity
}

func newDeletions() *deletions {
	return &deletions{seen: make(map[string]struct{})}
}

func (d *deletions) add(e entity.Entity) {
	id := e.Core().ID
	if _, ok := d.seen[id]; ok {
		return
	}
	d.seen[id] = struct{}{}
	d.items = append(d.items, e)
}

func (d *deletions) has(id string) bool {
	_, ok := d.seen[id]
	return ok
}
