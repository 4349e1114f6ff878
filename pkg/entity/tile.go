// pkg/entity/tile.go
package entity

import (
	"time"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// BrokenTileName is the sprite a breakable tile turns into once destroyed.
const BrokenTileName = "floor"

// DefaultTileSize is the edge length of a map cell in pixels.
const DefaultTileSize = 64.0

// Traversal describes how a tile can be crossed
type Traversal struct {
	Walkable  bool `json:"walkable" yaml:"walkable"`
	Passable  bool `json:"passable" yaml:"passable"`
	Breakable bool `json:"breakable" yaml:"breakable"`
}

// Tile is a static map cell. Tiles are mutated in place by hits and never deleted.
type Tile struct {
	Base
	Cell   physics.Vector2D // grid cell
	Name   string           // sprite name
	Around int              // neighbour bitmask used by the tile renderer
	Size   physics.Vector2D
	Traversal
}

// NewTile creates a tile at a grid cell. Call MakeBox to place it in the world.
func NewTile(id string, cell physics.Vector2D, name string, traversal Traversal, around int) *Tile {
	size := physics.Vector2D{X: DefaultTileSize, Y: DefaultTileSize}
	t := &Tile{
		Base:      NewBase(id, cell, physics.NewRect(cell, size.X, size.Y), 0),
		Cell:      cell,
		Name:      name,
		Around:    around,
		Size:      size,
		Traversal: traversal,
	}
	t.Category = CategoryTile
	return t.MakeBox(size, physics.Vector2D{})
}

// MakeBox positions the tile hitbox for the given cell size and map offset (in cells).
func (t *Tile) MakeBox(tileSize, topLeft physics.Vector2D) *Tile {
	t.Size = tileSize
	center := t.Cell.Add(topLeft).Mul(tileSize).Add(tileSize.Scale(0.5))
	t.Location = center
	t.OldLocation = center
	t.Hitbox = physics.NewRect(center, tileSize.X, tileSize.Y)
	return t
}

// SetTraversal replaces the traversal flags
func (t *Tile) SetTraversal(tr Traversal) *Tile {
	t.Traversal = tr
	return t
}

// Clone copies the tile under a new id
func (t *Tile) Clone(id string) *Tile {
	c := *t
	c.ID = id
	c.lastHit, c.hasLastHit = "", false
	return &c
}

// Update is a no-op: tiles never move
func (t *Tile) Update(now time.Duration, dt float64, w World) {}

// Hit blocks players on unwalkable tiles and breaks breakable tiles hit by
// projectiles. It never asks for deletion.
func (t *Tile) Hit(other Entity) bool {
	o := other.Core()
	switch o.Category {
	case CategoryPlayer:
		if !t.Walkable {
			o.Rollback()
		}
	case CategoryProjectile:
		if t.Breakable {
			t.Walkable = true
			t.Passable = true
			t.Breakable = false
			t.Name = BrokenTileName
		}
	}
	return false
}
