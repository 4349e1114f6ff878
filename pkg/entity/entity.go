// Package entity defines the actors of the arena simulation: players,
// projectiles, static tiles and trigger regions.
package entity

import (
	"fmt"
	"time"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// Category classifies an entity for hit resolution.
type Category int

const (
	CategoryNone Category = iota
	CategoryPlayer
	CategoryProjectile
	CategoryTile
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryProjectile:
		return "projectile"
	case CategoryTile:
		return "tile"
	default:
		return "none"
	}
}

// World is the read-only view of the simulation handed to Update hooks.
type World interface {
	Bounds() physics.Rect
}

// Entity is the capability set every collidable actor provides.
type Entity interface {
	// Core exposes the shared actor state.
	Core() *Base
	// Update advances the entity by dt seconds at simulation time now.
	Update(now time.Duration, dt float64, w World)
	// Hit reacts to a collision with other. Returning true asks the engine to delete the receiver.
	Hit(other Entity) bool
	// Hurt applies damage unless hitID was the last hit already applied.
	Hurt(damage float64, hitID string)
	// Shape returns the hit shape at the current location.
	Shape() physics.Shape
	// Point returns the broad-phase record for the spatial index.
	Point() physics.IndexedPoint
}

// Base contains common state for all entities
type Base struct {
	ID            string
	Location      physics.Vector2D
	OldLocation   physics.Vector2D
	Hitbox        physics.Shape
	LookDirection physics.Vector2D
	Speed         float64 // pixels per second
	Scale         float64
	ImgSrc        string
	MaxHealth     float64
	CurrHealth    float64
	Category      Category

	// Overlapping is recomputed every tick and only meant for observers.
	Overlapping bool

	lastHit    string
	hasLastHit bool
}

// NewBase builds base state. The hitbox kind is fixed from here on; a nil
// hitbox is a programming error.
func NewBase(id string, location physics.Vector2D, hitbox physics.Shape, speed float64) Base {
	if hitbox == nil {
		panic(fmt.Sprintf("entity %q: nil hitbox", id))
	}
	return Base{
		ID:            id,
		Location:      location,
		OldLocation:   location,
		Hitbox:        hitbox.MoveTo(location),
		LookDirection: physics.Vector2D{X: 1, Y: 0},
		Speed:         speed,
		Scale:         1,
	}
}

// Core returns the receiver
func (b *Base) Core() *Base {
	return b
}

// Update moves the entity along its look direction when it has speed
func (b *Base) Update(now time.Duration, dt float64, w World) {
	if b.Speed > 0 {
		b.Move(dt, b.LookDirection)
	}
}

// Move snapshots the current location into OldLocation and then steps
// Speed*dt along direction. A non-finite direction panics.
func (b *Base) Move(dt float64, direction physics.Vector2D) {
	b.OldLocation = b.Location
	b.Location = physics.Step(b.Location, direction, b.Speed, dt)
}

// Rollback restores the location held before the last move.
func (b *Base) Rollback() {
	b.Location = b.OldLocation
}

// Hit does nothing for a plain entity
func (b *Base) Hit(other Entity) bool {
	return false
}

// Hurt subtracts damage once per distinct hitID. Repeating the previous
// hitID is a silent no-op.
func (b *Base) Hurt(damage float64, hitID string) {
	if b.hasLastHit && b.lastHit == hitID {
		return
	}
	b.lastHit = hitID
	b.hasLastHit = true
	b.CurrHealth -= damage
}

// LastHit returns the de-duplication token of the last applied hit.
func (b *Base) LastHit() (string, bool) {
	return b.lastHit, b.hasLastHit
}

// SetLastHit overwrites the de-duplication token.
func (b *Base) SetLastHit(hitID string) {
	b.lastHit = hitID
	b.hasLastHit = true
}

// Alive reports whether the entity still has health left
func (b *Base) Alive() bool {
	return b.CurrHealth > 0
}

// Shape returns the hitbox centred on the current location
func (b *Base) Shape() physics.Shape {
	return b.Hitbox.MoveTo(b.Location)
}

// Point returns the spatial index record owned by this entity
func (b *Base) Point() physics.IndexedPoint {
	return physics.IndexedPoint{Shape: b.Shape(), OwnerID: b.ID}
}

// Radius returns the hitbox half width, the size used for index records.
func (b *Base) Radius() float64 {
	return b.Hitbox.Bounds().HalfWidth
}
