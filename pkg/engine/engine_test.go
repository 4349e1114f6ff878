// Package engine provides unit tests for the collision tick
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/event"
	"github.com/opd-ai/go-arena/pkg/physics"
)

const step = 0.1

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng := New(config.EngineConfig{Width: 1000, Height: 1000, CapacityPerNode: 4}, opts...)
	require.NotNil(t, eng)
	return eng
}

func newPlayer(id string, x, y float64) *entity.Player {
	return entity.NewPlayer(id, "player-"+id, physics.Vec(x, y), 100, 100)
}

func newArrow(id, owner string, x, y float64) *entity.Projectile {
	return entity.NewProjectile(id, entity.KindArrow, owner, physics.Vec(x, y), physics.Vec(1, 0), 0, 100, 10, 8)
}

func ids(entities []entity.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Core().ID)
	}
	return out
}

func TestNew_Bounds(t *testing.T) {
	eng := New(config.EngineConfig{Width: 800, Height: 600})

	b := eng.Bounds()
	assert.Equal(t, physics.Vec(400, 300), b.Pos)
	assert.Equal(t, 800.0, b.Width())
	assert.Equal(t, 600.0, b.Height())
	assert.Equal(t, physics.DefaultCapacity, eng.capacity)
}

func TestEngine_PlayerLeavingMapIsRolledBack(t *testing.T) {
	tests := []struct {
		name  string
		start physics.Vector2D
		input physics.Vector2D
	}{
		{name: "right_edge", start: physics.Vec(990, 500), input: physics.Vec(1, 0)},
		{name: "left_edge", start: physics.Vec(5, 500), input: physics.Vec(-1, 0)},
		{name: "bottom_edge", start: physics.Vec(500, 995), input: physics.Vec(0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t)
			p := newPlayer("1", tt.start.X, tt.start.Y)
			eng.AddPlayer(p)

			p.Input = tt.input
			p.Update(0, 0.2, eng)
			require.False(t, eng.Bounds().ContainsPoint(p.Location))

			deleted := eng.Update(0, 0.2)
			assert.Empty(t, deleted)
			assert.Equal(t, tt.start, p.Location)
		})
	}
}

func TestEngine_PlayerInsideMapIsKept(t *testing.T) {
	eng := newTestEngine(t)
	p := newPlayer("1", 500, 500)
	eng.AddPlayer(p)

	p.Input = physics.Vec(1, 0)
	p.Update(0, 0.5, eng)
	eng.Update(0, 0.5)

	assert.Equal(t, physics.Vec(550, 500), p.Location)
	assert.Equal(t, uint64(1), eng.Tick())
}

func TestEngine_ProjectileIgnoresOwner(t *testing.T) {
	eng := newTestEngine(t)
	owner := newPlayer("owner", 500, 500)
	enemy := newPlayer("enemy", 520, 500)
	arrow := newArrow("arrow", "owner", 500, 500)
	eng.AddPlayer(owner)
	eng.AddPlayer(enemy)
	eng.AddDynamic(arrow)

	deleted := eng.Update(0, step)

	assert.Equal(t, []string{"arrow"}, ids(deleted))
	assert.Equal(t, 100.0, owner.CurrHealth)
	assert.Equal(t, 90.0, enemy.CurrHealth)
	assert.True(t, arrow.Overlapping)
	assert.True(t, enemy.Overlapping)
}

func TestEngine_OwnerAloneIsNeverHit(t *testing.T) {
	eng := newTestEngine(t)
	owner := newPlayer("owner", 500, 500)
	arrow := newArrow("arrow", "owner", 500, 500)
	eng.AddPlayer(owner)
	eng.AddDynamic(arrow)

	for i := 0; i < 3; i++ {
		assert.Empty(t, eng.Update(time.Duration(i)*time.Second, step))
	}
	assert.Equal(t, 100.0, owner.CurrHealth)
	assert.False(t, owner.Overlapping)
}

func TestEngine_DeletionListHasNoDuplicates(t *testing.T) {
	eng := newTestEngine(t)
	a := newPlayer("a", 490, 500)
	b := newPlayer("b", 510, 500)
	arrow := newArrow("arrow", "owner", 500, 500)
	eng.AddPlayer(a)
	eng.AddPlayer(b)
	eng.AddDynamic(arrow)

	deleted := eng.Update(0, step)

	assert.Equal(t, []string{"arrow"}, ids(deleted))
	assert.Equal(t, 90.0, a.CurrHealth)
	assert.Equal(t, 90.0, b.CurrHealth)
}

func TestEngine_ScheduledProjectileTakesNoFurtherHits(t *testing.T) {
	eng := newTestEngine(t)
	crate := entity.NewTile("crate", physics.Vec(5, 5), "crate", entity.Traversal{Breakable: true}, 0)
	eng.SetStatics([]*entity.Tile{crate})

	owner := newPlayer("owner", 100, 100)
	enemy := newPlayer("enemy", 300, 352)
	arrow := newArrow("arrow", "owner", 316, 352)
	eng.AddPlayer(owner)
	eng.AddPlayer(enemy)
	eng.AddDynamic(arrow)

	deleted := eng.Update(0, step)

	assert.Equal(t, []string{"arrow"}, ids(deleted))
	assert.Equal(t, 90.0, enemy.CurrHealth)
	assert.True(t, crate.Breakable, "the arrow was used up on the player first")
}

func TestEngine_ProjectileBreaksTile(t *testing.T) {
	eng := newTestEngine(t)
	crate := entity.NewTile("crate", physics.Vec(5, 5), "crate", entity.Traversal{Breakable: true}, 0)
	eng.SetStatics([]*entity.Tile{crate})
	arrow := newArrow("arrow", "owner", 316, 352)
	eng.AddDynamic(arrow)

	deleted := eng.Update(0, step)

	assert.Equal(t, []string{"arrow"}, ids(deleted))
	assert.Equal(t, entity.BrokenTileName, crate.Name)
	assert.True(t, crate.Walkable)

	eng.Remove(deleted)
	_, ok := eng.Static("crate")
	assert.True(t, ok, "tiles are mutated, never removed")
}

func TestEngine_ScheduledProjectileFinishesItsPass(t *testing.T) {
	eng := newTestEngine(t)
	left := entity.NewTile("left", physics.Vec(4, 5), "crate", entity.Traversal{Breakable: true}, 0)
	right := entity.NewTile("right", physics.Vec(5, 5), "crate", entity.Traversal{Breakable: true}, 0)
	eng.SetStatics([]*entity.Tile{left, right})
	eng.AddDynamic(newArrow("arrow", "owner", 320, 352))

	deleted := eng.Update(0, step)

	assert.Equal(t, []string{"arrow"}, ids(deleted))
	assert.Equal(t, entity.BrokenTileName, left.Name)
	assert.Equal(t, entity.BrokenTileName, right.Name, "scheduling the arrow does not end its own pass")
}

func TestEngine_UnwalkableTileBlocksPlayer(t *testing.T) {
	tests := []struct {
		name      string
		traversal entity.Traversal
		want      physics.Vector2D
	}{
		{name: "wall", traversal: entity.Traversal{}, want: physics.Vec(300, 352)},
		{name: "floor", traversal: entity.Traversal{Walkable: true, Passable: true}, want: physics.Vec(310, 352)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t)
			eng.SetStatics([]*entity.Tile{entity.NewTile("t", physics.Vec(5, 5), tt.name, tt.traversal, 0)})
			p := newPlayer("p", 300, 352)
			eng.AddPlayer(p)

			p.Input = physics.Vec(1, 0)
			p.Update(0, step, eng)
			assert.Empty(t, eng.Update(0, step))
			assert.Equal(t, tt.want, p.Location)
		})
	}
}

func TestEngine_PassableTileLetsProjectilesThrough(t *testing.T) {
	eng := newTestEngine(t)
	eng.SetStatics([]*entity.Tile{entity.NewTile("water", physics.Vec(5, 5), "water", entity.Traversal{Passable: true}, 0)})
	eng.AddDynamic(newArrow("arrow", "owner", 352, 352))

	assert.Empty(t, eng.Update(0, step))
}

func TestEngine_ProjectileLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		proj    *entity.Projectile
		deleted bool
	}{
		{
			name:    "leaves_map",
			proj:    entity.NewProjectile("p", entity.KindArrow, "o", physics.Vec(995, 500), physics.Vec(1, 0), 100, 1000, 1, 4),
			deleted: true,
		},
		{
			name:    "range_spent",
			proj:    entity.NewProjectile("p", entity.KindFireball, "o", physics.Vec(500, 500), physics.Vec(1, 0), 100, 5, 1, 4),
			deleted: true,
		},
		{
			name:    "in_flight",
			proj:    entity.NewProjectile("p", entity.KindArrow, "o", physics.Vec(500, 500), physics.Vec(1, 0), 100, 1000, 1, 4),
			deleted: false,
		},
		{
			name:    "seed_roots",
			proj:    entity.NewProjectile("p", entity.KindPlantSeed, "o", physics.Vec(500, 500), physics.Vec(1, 0), 100, 5, 1, 4),
			deleted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t)
			eng.AddDynamic(tt.proj)

			deleted := eng.Update(time.Second, step)
			if tt.deleted {
				assert.Equal(t, []string{"p"}, ids(deleted))
			} else {
				assert.Empty(t, deleted)
			}

			eng.Remove(deleted)
			_, ok := eng.Dynamic("p")
			assert.Equal(t, !tt.deleted, ok)
		})
	}
}

func TestEngine_RegionEventsFireOnce(t *testing.T) {
	bus := event.NewEventBus()
	var entered, exited []string
	bus.Subscribe(event.RegionEntered, func(e event.Event) {
		entered = append(entered, e.(*event.RegionEvent).PlayerID)
	})
	bus.Subscribe(event.RegionExited, func(e event.Event) {
		exited = append(exited, e.(*event.RegionEvent).RegionID)
	})

	eng := newTestEngine(t, WithEventBus(bus))
	fire := entity.NewObjectiveRegion("fire", physics.Vec(100, 100), physics.Vec(100, 100), "fire")
	var ended int
	fire.OnEnd = func(*entity.Region) { ended++ }
	eng.SetRegions([]*entity.Region{fire})

	p := newPlayer("p", 100, 100)
	eng.AddPlayer(p)

	eng.Update(0, step)
	eng.Update(0, step)
	assert.Equal(t, []string{"p"}, entered)
	assert.True(t, p.HasObjective("red"))
	assert.Empty(t, exited)

	p.Location = physics.Vec(500, 500)
	eng.Update(0, step)
	eng.Update(0, step)
	assert.Equal(t, []string{"fire"}, exited)
	assert.Equal(t, 1, ended)

	p.Location = physics.Vec(100, 100)
	eng.Update(0, step)
	assert.Equal(t, []string{"p", "p"}, entered)
}

func TestEngine_RegionStaysOccupiedWhileAnyPlayerInside(t *testing.T) {
	eng := newTestEngine(t)
	r := entity.NewRegion("r", "lobby", "white", physics.Vec(100, 100), physics.Vec(100, 100))
	var began, ended int
	r.OnBegin = func(*entity.Region, *entity.Player) { began++ }
	r.OnEnd = func(*entity.Region) { ended++ }
	eng.SetRegions([]*entity.Region{r})

	a := newPlayer("a", 90, 100)
	b := newPlayer("b", 110, 100)
	eng.AddPlayer(a)
	eng.AddPlayer(b)
	eng.Update(0, step)

	a.Location = physics.Vec(500, 500)
	eng.Update(0, step)
	assert.Equal(t, 0, ended)

	b.Location = physics.Vec(600, 600)
	eng.Update(0, step)
	assert.Equal(t, 2, began)
	assert.Equal(t, 1, ended)
}

func TestEngine_HitEventsPublished(t *testing.T) {
	bus := event.NewEventBus()
	var hits []*event.HitEvent
	bus.Subscribe(event.EntityHit, func(e event.Event) { hits = append(hits, e.(*event.HitEvent)) })

	eng := newTestEngine(t, WithEventBus(bus))
	eng.AddPlayer(newPlayer("enemy", 520, 500))
	eng.AddDynamic(newArrow("arrow", "owner", 500, 500))
	eng.Update(0, step)

	require.Len(t, hits, 1)
	assert.Equal(t, "enemy", hits[0].SourceID)
	assert.Equal(t, "arrow", hits[0].TargetID)
	assert.True(t, hits[0].Removed)
}

func TestEngine_UpdatePlayer(t *testing.T) {
	eng := newTestEngine(t)
	loc := physics.Vec(10, 20)
	name := "alice"

	p, created := eng.UpdatePlayer(entity.PlayerSnapshot{ID: "7", Location: &loc, Name: &name}, []string{"red"})
	require.True(t, created)
	assert.Equal(t, "alice", p.Name)
	assert.True(t, p.HasObjective("red"))
	assert.Equal(t, "8", eng.IDs().Next())

	health := 42.0
	same, created := eng.UpdatePlayer(entity.PlayerSnapshot{ID: "7", CurrHealth: &health}, []string{"blue"})
	assert.False(t, created)
	assert.Same(t, p, same)
	assert.Equal(t, 42.0, p.CurrHealth)
	assert.Equal(t, loc, p.Location)
	assert.Equal(t, []string{"blue", "red"}, p.Objectives())
	assert.Len(t, eng.Players(), 1)
}

func TestEngine_UpdatePlayerWithoutIDAllocatesOne(t *testing.T) {
	eng := newTestEngine(t)
	p, created := eng.UpdatePlayer(entity.PlayerSnapshot{}, nil)
	assert.True(t, created)
	assert.Equal(t, "0", p.ID)
}

func TestEngine_UnknownIDsAreNoOps(t *testing.T) {
	eng := newTestEngine(t)
	eng.AddPlayer(newPlayer("a", 1, 1))

	assert.False(t, eng.RemovePlayer("missing"))
	assert.False(t, eng.RemoveDynamic("missing"))
	_, ok := eng.Player("missing")
	assert.False(t, ok)
	_, ok = eng.Dynamic("missing")
	assert.False(t, ok)
	_, ok = eng.Static("missing")
	assert.False(t, ok)

	eng.Remove([]entity.Entity{newArrow("ghost", "a", 1, 1)})
	assert.Len(t, eng.Players(), 1)
}

func TestEngine_RegistrationOrderAndEvents(t *testing.T) {
	bus := event.NewEventBus()
	counts := make(map[event.Type]int)
	for _, typ := range []event.Type{event.PlayerJoined, event.PlayerLeft, event.ProjectileFired, event.EntityRemoved} {
		typ := typ
		bus.Subscribe(typ, func(event.Event) { counts[typ]++ })
	}

	eng := newTestEngine(t, WithEventBus(bus))
	for _, id := range []string{"c", "a", "b"} {
		eng.AddPlayer(newPlayer(id, 1, 1))
	}
	var order []string
	for _, p := range eng.Players() {
		order = append(order, p.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, order)

	arrow := newArrow("x", "a", 1, 1)
	eng.AddDynamic(arrow)
	eng.Remove([]entity.Entity{arrow})
	eng.RemovePlayer("a")

	assert.Equal(t, 3, counts[event.PlayerJoined])
	assert.Equal(t, 1, counts[event.PlayerLeft])
	assert.Equal(t, 1, counts[event.ProjectileFired])
	assert.Equal(t, 1, counts[event.EntityRemoved])

	players, dynamics, statics := eng.Counts()
	assert.Equal(t, 2, players)
	assert.Equal(t, 0, dynamics)
	assert.Equal(t, 0, statics)
}

func TestEngine_SetStaticsReplacesIndex(t *testing.T) {
	eng := newTestEngine(t)
	eng.SetStatics([]*entity.Tile{entity.NewTile("wall", physics.Vec(5, 5), "wall", entity.Traversal{}, 0)})
	eng.SetStatics(nil)

	eng.AddDynamic(newArrow("arrow", "o", 352, 352))
	assert.Empty(t, eng.Update(0, step))
	assert.Empty(t, eng.Statics())
}

func TestEngine_SharedIDAllocator(t *testing.T) {
	alloc := entity.NewIDAllocator()
	eng := newTestEngine(t, WithIDAllocator(alloc))
	eng.AddPlayer(newPlayer("41", 1, 1))

	assert.Same(t, alloc, eng.IDs())
	assert.Equal(t, "42", alloc.Next())
}
