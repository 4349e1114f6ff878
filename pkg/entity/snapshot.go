package entity

import "github.com/opd-ai/go-arena/pkg/physics"

// PlayerSnapshot is a partial player state received from a peer. Nil fields
// are absent and leave the current value alone.
type PlayerSnapshot struct {
	ID            string            `json:"id"`
	Location      *physics.Vector2D `json:"location,omitempty"`
	OldLocation   *physics.Vector2D `json:"oldLocation,omitempty"`
	SpawnLocation *physics.Vector2D `json:"spawnLocation,omitempty"`
	LookDirection *physics.Vector2D `json:"lookDirection,omitempty"`
	Name          *string           `json:"name,omitempty"`
	ImgSrc        *string           `json:"imgSrc,omitempty"`
	Speed         *float64          `json:"speed,omitempty"`
	MaxHealth     *float64          `json:"maxHealth,omitempty"`
	CurrHealth    *float64          `json:"currHealth,omitempty"`
	Scale         *float64          `json:"scale,omitempty"`
	Hitbox        *Hitbox           `json:"hitbox,omitempty"`
	LastHit       *string           `json:"lastHit,omitempty"`
}

// ApplySnapshot merges the present fields of s into the player. The id and
// hitbox kind never change.
func (p *Player) ApplySnapshot(s PlayerSnapshot) {
	if s.Location != nil {
		p.Location = *s.Location
	}
	if s.OldLocation != nil {
		p.OldLocation = *s.OldLocation
	}
	if s.SpawnLocation != nil {
		p.SpawnLocation = *s.SpawnLocation
	}
	if s.LookDirection != nil {
		p.LookDirection = *s.LookDirection
	}
	if s.Name != nil {
		p.Name = *s.Name
	}
	if s.ImgSrc != nil {
		p.ImgSrc = *s.ImgSrc
	}
	if s.Speed != nil {
		p.Speed = *s.Speed
	}
	if s.MaxHealth != nil {
		p.MaxHealth = *s.MaxHealth
	}
	if s.CurrHealth != nil {
		p.CurrHealth = *s.CurrHealth
	}
	if s.Scale != nil {
		p.Scale = *s.Scale
	}
	if s.LastHit != nil {
		p.SetLastHit(*s.LastHit)
	}
}

// NewPlayerFromSnapshot builds a player shell from a full snapshot. Missing
// locations default to the current location; a missing hitbox uses PlayerRadius.
func NewPlayerFromSnapshot(s PlayerSnapshot) *Player {
	var loc physics.Vector2D
	if s.Location != nil {
		loc = *s.Location
	}
	speed, maxHealth := DefaultPlayerSpeed, DefaultMaxHealth
	if s.Speed != nil {
		speed = *s.Speed
	}
	if s.MaxHealth != nil {
		maxHealth = *s.MaxHealth
	}
	name := ""
	if s.Name != nil {
		name = *s.Name
	}

	p := NewPlayer(s.ID, name, loc, speed, maxHealth)
	if s.Hitbox != nil && s.Hitbox.Radius > 0 {
		p.Hitbox = physics.Circle{Pos: loc, Radius: s.Hitbox.Radius}
	}
	p.ApplySnapshot(s)
	return p
}

// Snapshot returns the full state of the player in snapshot form
func (p *Player) Snapshot() PlayerSnapshot {
	loc, old, spawn, look := p.Location, p.OldLocation, p.SpawnLocation, p.LookDirection
	name, img := p.Name, p.ImgSrc
	speed, maxHealth, currHealth, scale := p.Speed, p.MaxHealth, p.CurrHealth, p.Scale
	s := PlayerSnapshot{
		ID:            p.ID,
		Location:      &loc,
		OldLocation:   &old,
		SpawnLocation: &spawn,
		LookDirection: &look,
		Name:          &name,
		ImgSrc:        &img,
		Speed:         &speed,
		MaxHealth:     &maxHealth,
		CurrHealth:    &currHealth,
		Scale:         &scale,
		Hitbox:        &Hitbox{Radius: p.Radius()},
	}
	if hit, ok := p.LastHit(); ok {
		s.LastHit = &hit
	}
	return s
}
