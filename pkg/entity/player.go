// pkg/entity/player.go
package entity

import (
	"errors"
	"sort"
	"time"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Player defaults
const (
	PlayerRadius       = 16.0
	DefaultPlayerSpeed = 200.0
	DefaultMaxHealth   = 100.0
)

// Input bindings for the default ability loadout
const (
	KeyRanged   = "ranged"
	KeyAbility1 = "ability1"
	KeyAbility2 = "ability2"
	KeyAbility3 = "ability3"
)

var (
	// ErrUnknownAbility is returned when no ability is bound to the key.
	ErrUnknownAbility = errors.New("no ability bound to key")
	// ErrSilenced is returned when a silenced or stunned player tries to cast.
	ErrSilenced = errors.New("player cannot cast right now")
	// ErrOnCooldown is returned while the ability is recharging.
	ErrOnCooldown = errors.New("ability on cooldown")
	// ErrLaunchTooFar is returned for a projectile that does not start at its owner.
	ErrLaunchTooFar = errors.New("projectile must start at its owner")
)

// LaunchMargin is how far past the hitbox a client-built projectile may start.
const LaunchMargin = 8.0

// Player represents a connected arena player
type Player struct {
	Base
	Name          string
	SpawnLocation physics.Vector2D
	Abilities     map[string]*Ability

	// Input is the movement direction requested by the controller for the next update.
	Input physics.Vector2D

	Silenced      bool
	SilencedUntil time.Duration
	Stunned       bool
	StunnedUntil  time.Duration

	objectives map[string]struct{}
}

// NewPlayer creates a player with the default hitbox and ability loadout
func NewPlayer(id, name string, location physics.Vector2D, speed, maxHealth float64) *Player {
	p := &Player{
		Base:          NewBase(id, location, physics.Circle{Radius: PlayerRadius}, speed),
		Name:          name,
		SpawnLocation: location,
		Abilities:     DefaultAbilities(),
		objectives:    make(map[string]struct{}),
	}
	p.Category = CategoryPlayer
	p.MaxHealth = maxHealth
	p.CurrHealth = maxHealth
	return p
}

// Update clears expired status effects and applies the movement input.
func (p *Player) Update(now time.Duration, dt float64, w World) {
	if p.Silenced && p.SilencedUntil > 0 && now >= p.SilencedUntil {
		p.Silenced = false
		p.SilencedUntil = 0
	}
	if p.Stunned && p.StunnedUntil > 0 && now >= p.StunnedUntil {
		p.Stunned = false
		p.StunnedUntil = 0
	}
	if p.Stunned || p.Input.IsZero() {
		return
	}
	p.Move(dt, p.Input)
}

// Stun stops movement and casting until the given time.
func (p *Player) Stun(until time.Duration) {
	p.Stunned = true
	if until > p.StunnedUntil {
		p.StunnedUntil = until
	}
}

// Silence blocks casting until the given time.
func (p *Player) Silence(until time.Duration) {
	p.Silenced = true
	if until > p.SilencedUntil {
		p.SilencedUntil = until
	}
}

// Cast uses the ability bound to key toward dir. The returned projectile is a
// descriptor only; registering it with the engine is the caller's job.
func (p *Player) Cast(now time.Duration, key string, dir physics.Vector2D, ids *IDAllocator) (*Projectile, error) {
	ability, ok := p.Abilities[key]
	if !ok {
		return nil, ErrUnknownAbility
	}
	if p.Silenced || p.Stunned {
		return nil, ErrSilenced
	}
	proj, ok := ability.Use(now, p, dir, ids)
	if !ok {
		return nil, ErrOnCooldown
	}
	return proj, nil
}

// Launch applies the casting rules to a projectile the client built itself.
// The ability of the same kind must be ready and the projectile must start
// within the player's hitbox plus LaunchMargin. On success the ability's
// cooldown is consumed.
func (p *Player) Launch(now time.Duration, proj *Projectile) error {
	if p.Silenced || p.Stunned {
		return ErrSilenced
	}
	ability := p.abilityOfKind(proj.Kind)
	if ability == nil {
		return ErrUnknownAbility
	}
	if proj.Location.Distance(p.Location) > p.Radius()+LaunchMargin {
		return ErrLaunchTooFar
	}
	if !ability.Ready(now) {
		return ErrOnCooldown
	}
	ability.consume(now)
	return nil
}

func (p *Player) abilityOfKind(kind Kind) *Ability {
	keys := make([]string, 0, len(p.Abilities))
	for key := range p.Abilities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if a := p.Abilities[key]; a.Kind == kind {
			return a
		}
	}
	return nil
}

// Respawn restores full health at the spawn location.
func (p *Player) Respawn() {
	p.Location = p.SpawnLocation
	p.OldLocation = p.SpawnLocation
	p.CurrHealth = p.MaxHealth
	p.Silenced, p.Stunned = false, false
	p.SilencedUntil, p.StunnedUntil = 0, 0
}

// AddObjective records a marker. Objectives only ever grow.
func (p *Player) AddObjective(marker string) {
	if p.objectives == nil {
		p.objectives = make(map[string]struct{})
	}
	p.objectives[marker] = struct{}{}
}

// HasObjective reports whether the marker was collected
func (p *Player) HasObjective(marker string) bool {
	_, ok := p.objectives[marker]
	return ok
}

// Objectives returns the collected markers in sorted order
func (p *Player) Objectives() []string {
	out := make([]string, 0, len(p.objectives))
	for m := range p.objectives {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
