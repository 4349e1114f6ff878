// pkg/entity/ability.go
package entity

import (
	"time"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Ability is a ranged cast that produces a projectile descriptor.
type Ability struct {
	Name     string
	Kind     Kind
	Cooldown time.Duration
	Speed    float64
	Range    float64
	Damage   float64
	Radius   float64
	Scale    float64

	lastUsed time.Duration
	used     bool
}

// NewArrow returns the basic ranged attack
func NewArrow() *Ability {
	return &Ability{
		Name:     "Arrow",
		Kind:     KindArrow,
		Cooldown: 200 * time.Millisecond,
		Speed:    400,
		Range:    600,
		Damage:   10,
		Radius:   8,
		Scale:    1,
	}
}

// NewFireball returns the fireball ability
func NewFireball() *Ability {
	return &Ability{
		Name:     "Fireball",
		Kind:     KindFireball,
		Cooldown: time.Second,
		Speed:    300,
		Range:    500,
		Damage:   25,
		Radius:   12,
		Scale:    1,
	}
}

// NewWaterball returns the waterball ability
func NewWaterball() *Ability {
	return &Ability{
		Name:     "Waterball",
		Kind:     KindWaterball,
		Cooldown: 1500 * time.Millisecond,
		Speed:    350,
		Range:    450,
		Damage:   15,
		Radius:   12,
		Scale:    1,
	}
}

// NewPlantSeed returns the plant seed ability
func NewPlantSeed() *Ability {
	return &Ability{
		Name:     "PlantSeed",
		Kind:     KindPlantSeed,
		Cooldown: 3 * time.Second,
		Speed:    200,
		Range:    250,
		Damage:   5,
		Radius:   10,
		Scale:    1,
	}
}

// DefaultAbilities returns the loadout every new player starts with
func DefaultAbilities() map[string]*Ability {
	return map[string]*Ability{
		KeyRanged:   NewArrow(),
		KeyAbility1: NewFireball(),
		KeyAbility2: NewWaterball(),
		KeyAbility3: NewPlantSeed(),
	}
}

// Ready reports whether the cooldown has elapsed at time now
func (a *Ability) Ready(now time.Duration) bool {
	return !a.used || now-a.lastUsed >= a.Cooldown
}

func (a *Ability) consume(now time.Duration) {
	a.lastUsed = now
	a.used = true
}

// Use fires the ability from the caster's location toward dir. It returns
// false, without side effects, while the ability is cooling down.
func (a *Ability) Use(now time.Duration, caster *Player, dir physics.Vector2D, ids *IDAllocator) (*Projectile, bool) {
	if !a.Ready(now) {
		return nil, false
	}
	if dir.IsZero() {
		dir = caster.LookDirection
	}
	a.consume(now)

	proj := NewProjectile(ids.Next(), a.Kind, caster.ID, caster.Location, dir, a.Speed, a.Range, a.Damage, a.Radius)
	proj.Name = a.Name
	proj.Scale = a.Scale
	return proj, true
}
