// pkg/entity/region.go
package entity

import (
	"sort"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// ObjectiveColors maps objective region names to the marker granted on entry.
var ObjectiveColors = map[string]string{
	"fire":  "red",
	"water": "blue",
	"plant": "green",
	"boss":  "purple",
}

// Region is a trigger volume. It takes no part in hit resolution; membership
// is decided by point containment and diffed by the engine every tick.
type Region struct {
	ID       string
	Name     string
	Color    string
	Boundary physics.Rect
	Locked   bool

	// OnBegin runs when a player enters while it was absent last tick.
	OnBegin func(r *Region, p *Player)
	// OnEnd runs once when the last player has left.
	OnEnd func(r *Region)

	overlaps     map[string]struct{}
	lastOverlaps map[string]struct{}
}

// NewRegion creates an unlocked region centred on center with the given size
func NewRegion(id, name, color string, center, dimensions physics.Vector2D) *Region {
	return &Region{
		ID:           id,
		Name:         name,
		Color:        color,
		Boundary:     physics.NewRect(center, dimensions.X, dimensions.Y),
		overlaps:     make(map[string]struct{}),
		lastOverlaps: make(map[string]struct{}),
	}
}

// NewObjectiveRegion creates a locked region that grants its colour as an
// objective marker to every player who enters it.
func NewObjectiveRegion(id string, center, dimensions physics.Vector2D, name string) *Region {
	color, ok := ObjectiveColors[name]
	if !ok {
		color = name
	}
	r := NewRegion(id, name, color, center, dimensions)
	r.Locked = true
	r.OnBegin = func(r *Region, p *Player) {
		p.AddObjective(r.Color)
	}
	return r
}

// Contains reports whether point lies inside the boundary
func (r *Region) Contains(point physics.Vector2D) bool {
	return r.Boundary.ContainsPoint(point)
}

// AddOverlap records the player for this tick and reports whether the player
// is a new entrant, i.e. was not inside last tick.
func (r *Region) AddOverlap(p *Player) bool {
	r.init()
	r.overlaps[p.ID] = struct{}{}
	_, was := r.lastOverlaps[p.ID]
	return !was
}

// ResetOverlaps moves this tick's members into the previous-tick set.
func (r *Region) ResetOverlaps() {
	r.init()
	r.lastOverlaps = r.overlaps
	r.overlaps = make(map[string]struct{}, len(r.lastOverlaps))
}

// IsOverlapped reports whether the player is inside this tick
func (r *Region) IsOverlapped(playerID string) bool {
	_, ok := r.overlaps[playerID]
	return ok
}

// OverlapCount returns the number of players inside this tick
func (r *Region) OverlapCount() int {
	return len(r.overlaps)
}

// LastOverlapCount returns the number of players inside last tick
func (r *Region) LastOverlapCount() int {
	return len(r.lastOverlaps)
}

// Overlaps returns the sorted ids of players inside this tick
func (r *Region) Overlaps() []string {
	return sortedKeys(r.overlaps)
}

// LastOverlaps returns the sorted ids of players inside last tick
func (r *Region) LastOverlaps() []string {
	return sortedKeys(r.lastOverlaps)
}

// BeginOverlap fires the enter callback
func (r *Region) BeginOverlap(p *Player) {
	if r.OnBegin != nil {
		r.OnBegin(r, p)
	}
}

// EndOverlap fires the exit callback
func (r *Region) EndOverlap() {
	if r.OnEnd != nil {
		r.OnEnd(r)
	}
}

func (r *Region) init() {
	if r.overlaps == nil {
		r.overlaps = make(map[string]struct{})
	}
	if r.lastOverlaps == nil {
		r.lastOverlaps = make(map[string]struct{})
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
