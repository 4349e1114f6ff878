package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/go-arena/pkg/physics"
)

type boundsWorld struct {
	bounds physics.Rect
}

func (w boundsWorld) Bounds() physics.Rect { return w.bounds }

func newWorld(width, height float64) World {
	return boundsWorld{bounds: physics.NewRect(physics.Vec(width/2, height/2), width, height)}
}

func TestProjectile_ExpiresAfterRange(t *testing.T) {
	for _, kind := range []Kind{KindArrow, KindFireball, KindWaterball, Kind("Boomerang")} {
		t.Run(string(kind), func(t *testing.T) {
			p := NewProjectile("1", kind, "owner", physics.Vec(0, 0), physics.Vec(1, 0), 400, 600, 10, 8)

			p.Update(time.Second, 1, newWorld(2000, 2000))
			assert.False(t, p.Expired)
			assert.InDelta(t, 400.0, p.Traveled, 1e-9)

			p.Update(2*time.Second, 1, newWorld(2000, 2000))
			assert.True(t, p.Expired)
			assert.InDelta(t, 800.0, p.Location.X, 1e-9)
		})
	}
}

func TestProjectile_PlantSeedRoots(t *testing.T) {
	w := newWorld(1000, 1000)
	p := NewProjectile("1", KindPlantSeed, "owner", physics.Vec(100, 100), physics.Vec(1, 0), 200, 250, 5, 10)

	p.Update(time.Second, 1, w)
	assert.False(t, p.Rooted)

	p.Update(2*time.Second, 1, w)
	assert.True(t, p.Rooted)
	assert.False(t, p.Expired)
	assert.Equal(t, 0.0, p.Speed)
	assert.Equal(t, 2*time.Second, p.RootedAt)

	loc := p.Location
	p.Update(6*time.Second, 1, w)
	assert.False(t, p.Expired)
	assert.Equal(t, loc, p.Location)

	p.Update(7*time.Second, 1, w)
	assert.True(t, p.Expired)
}

func TestProjectile_PlantSeedOutsideWorldExpires(t *testing.T) {
	w := newWorld(100, 100)
	p := NewProjectile("1", KindPlantSeed, "owner", physics.Vec(90, 50), physics.Vec(1, 0), 200, 250, 5, 10)

	p.Update(time.Second, 1, w)
	p.Update(2*time.Second, 1, w)
	assert.True(t, p.Expired)
	assert.False(t, p.Rooted)
}

func TestProjectile_Hit(t *testing.T) {
	owner := NewPlayer("owner", "o", physics.Vec(0, 0), 0, 100)
	enemy := NewPlayer("enemy", "e", physics.Vec(0, 0), 0, 100)
	wall := NewTile("w", physics.Vec(0, 0), "wall", Traversal{}, 0)
	water := NewTile("t", physics.Vec(1, 0), "water", Traversal{Passable: true}, 0)
	other := NewProjectile("x", KindArrow, "enemy", physics.Vec(0, 0), physics.Vec(1, 0), 0, 0, 0, 1)

	tests := []struct {
		name   string
		target Entity
		want   bool
		health float64
	}{
		{name: "owner_is_ignored", target: owner, want: false},
		{name: "enemy_is_hurt", target: enemy, want: true, health: 90},
		{name: "solid_tile_stops", target: wall, want: true},
		{name: "passable_tile", target: water, want: false},
		{name: "other_projectile", target: other, want: false},
	}

	p := NewProjectile("arrow", KindArrow, "owner", physics.Vec(0, 0), physics.Vec(1, 0), 400, 600, 10, 8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Hit(tt.target); got != tt.want {
				t.Errorf("Hit() = %v, want %v", got, tt.want)
			}
			if tt.health > 0 {
				assert.Equal(t, tt.health, tt.target.Core().CurrHealth)
			}
		})
	}
	assert.Equal(t, 100.0, owner.CurrHealth)
}

func TestProjectile_HitDamagesOncePerProjectile(t *testing.T) {
	enemy := NewPlayer("enemy", "e", physics.Vec(0, 0), 0, 100)
	p := NewProjectile("arrow", KindArrow, "owner", physics.Vec(0, 0), physics.Vec(1, 0), 400, 600, 10, 8)

	p.Hit(enemy)
	p.Hit(enemy)
	assert.Equal(t, 90.0, enemy.CurrHealth)
}

func TestProjectile_OnHitEffects(t *testing.T) {
	tests := []struct {
		kind     Kind
		silenced bool
		stunned  bool
	}{
		{kind: KindArrow},
		{kind: KindFireball},
		{kind: KindWaterball, silenced: true},
		{kind: KindPlantSeed, stunned: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			enemy := NewPlayer("enemy", "e", physics.Vec(0, 0), 0, 100)
			p := NewProjectile("1", tt.kind, "owner", physics.Vec(0, 0), physics.Vec(1, 0), 0, 100, 5, 8)
			p.Update(3*time.Second, 0, newWorld(100, 100))

			assert.True(t, p.Hit(enemy))
			assert.Equal(t, tt.silenced, enemy.Silenced)
			assert.Equal(t, tt.stunned, enemy.Stunned)
			if tt.stunned {
				assert.Equal(t, 3*time.Second+SeedStun, enemy.StunnedUntil)
			}
		})
	}
}
