// pkg/entity/projectile.go
package entity

import (
	"time"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Kind names a projectile subtype. Unrecognised kinds behave like arrows.
type Kind string

const (
	KindArrow     Kind = "Arrow"
	KindFireball  Kind = "Fireball"
	KindWaterball Kind = "Waterball"
	KindPlantSeed Kind = "PlantSeed"
)

// Subtype effect tuning
const (
	WaterballSilence = 1500 * time.Millisecond
	SeedStun         = time.Second
	SeedLifetime     = 5 * time.Second
)

// Projectile is a dynamic entity fired by a player
type Projectile struct {
	Base
	Kind     Kind
	Name     string
	OwnerID  string
	Damage   float64
	Range    float64
	Traveled float64

	// Rooted seeds stop moving and linger until RootedAt+SeedLifetime.
	Rooted   bool
	RootedAt time.Duration
	// Expired projectiles are dropped by the engine on their next update.
	Expired bool

	clock time.Duration
}

// behavior holds the per-kind hooks. think runs once the range is used up.
type behavior struct {
	think func(p *Projectile, now time.Duration, w World)
	onHit func(p *Projectile, target *Player)
}

var behaviors = map[Kind]behavior{
	KindArrow: {
		think: expire,
		onHit: func(p *Projectile, target *Player) {},
	},
	KindFireball: {
		think: expire,
		onHit: func(p *Projectile, target *Player) {},
	},
	KindWaterball: {
		think: expire,
		onHit: func(p *Projectile, target *Player) {
			target.Silence(p.clock + WaterballSilence)
		},
	},
	KindPlantSeed: {
		think: func(p *Projectile, now time.Duration, w World) {
			if w != nil && !w.Bounds().ContainsPoint(p.Location) {
				p.Expired = true
				return
			}
			p.Rooted = true
			p.RootedAt = now
			p.Speed = 0
		},
		onHit: func(p *Projectile, target *Player) {
			target.Stun(p.clock + SeedStun)
		},
	},
}

func expire(p *Projectile, now time.Duration, w World) {
	p.Expired = true
}

func behaviorFor(k Kind) behavior {
	if b, ok := behaviors[k]; ok {
		return b
	}
	return behaviors[KindArrow]
}

// NewProjectile creates a projectile heading along dir from location
func NewProjectile(id string, kind Kind, ownerID string, location, dir physics.Vector2D, speed, rng, damage, radius float64) *Projectile {
	p := &Projectile{
		Base:    NewBase(id, location, physics.Circle{Radius: radius}, speed),
		Kind:    kind,
		Name:    string(kind),
		OwnerID: ownerID,
		Damage:  damage,
		Range:   rng,
	}
	p.Category = CategoryProjectile
	p.LookDirection = dir.Normalize()
	return p
}

// Update moves the projectile and runs the subtype hook once its range is spent
func (p *Projectile) Update(now time.Duration, dt float64, w World) {
	p.clock = now
	if p.Expired {
		return
	}
	if p.Rooted {
		if now-p.RootedAt >= SeedLifetime {
			p.Expired = true
		}
		return
	}
	if p.Speed > 0 {
		p.Move(dt, p.LookDirection)
		p.Traveled += p.Speed * dt
	}
	if p.Traveled >= p.Range {
		behaviorFor(p.Kind).think(p, now, w)
	}
}

// Hit damages players other than the owner and stops on solid tiles.
// It returns true when the projectile is used up.
func (p *Projectile) Hit(other Entity) bool {
	switch o := other.(type) {
	case *Player:
		if o.ID == p.OwnerID {
			return false
		}
		o.Hurt(p.Damage, p.ID)
		behaviorFor(p.Kind).onHit(p, o)
		return true
	case *Tile:
		return !o.Passable
	}
	return false
}
