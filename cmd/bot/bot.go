// cmd/bot/bot.go
package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/network"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Behavior selects how a bot plays
type Behavior int

const (
	BehaviorWanderer Behavior = iota // Walks around at random
	BehaviorHunter                   // Chases and shoots the nearest player
	BehaviorSeeker                   // Visits every objective region
)

// ParseBehavior maps a flag value to a Behavior
func ParseBehavior(s string) (Behavior, error) {
	switch s {
	case "wanderer":
		return BehaviorWanderer, nil
	case "hunter":
		return BehaviorHunter, nil
	case "seeker":
		return BehaviorSeeker, nil
	}
	return 0, fmt.Errorf("unknown behavior: %s", s)
}

func (b Behavior) String() string {
	switch b {
	case BehaviorWanderer:
		return "Walks around at random"
	case BehaviorHunter:
		return "Chases and shoots the nearest player"
	case BehaviorSeeker:
		return "Collects every objective region"
	default:
		return "Unknown"
	}
}

const (
	huntRange  = 600.0
	arriveDist = 16.0
)

// Action is one decision: the input to send and an optional cast.
type Action struct {
	Move    physics.Vector2D
	Look    physics.Vector2D
	CastKey string
	CastDir physics.Vector2D
}

// Brain decides actions from broadcast state. It holds no connection so it
// can be driven directly.
type Brain struct {
	behavior Behavior
	selfID   string
	random   *rand.Rand
	heading  physics.Vector2D
	casts    []string
	nextCast int
}

// NewBrain creates a brain for the player selfID
func NewBrain(behavior Behavior, selfID string, random *rand.Rand) *Brain {
	return &Brain{
		behavior: behavior,
		selfID:   selfID,
		random:   random,
		heading:  physics.Vec(1, 0),
		casts:    []string{entity.KeyRanged, entity.KeyAbility1, entity.KeyAbility2, entity.KeyAbility3},
	}
}

// Decide returns the next action. ok is false while the bot's own player
// is missing from state.
func (b *Brain) Decide(state network.TickState) (Action, bool) {
	self, ok := findPlayer(state, b.selfID)
	if !ok {
		return Action{}, false
	}
	pos := physics.Vec(self.X, self.Y)

	switch b.behavior {
	case BehaviorHunter:
		return b.hunt(state, pos), true
	case BehaviorSeeker:
		return b.seek(state, self, pos), true
	default:
		return b.wander(), true
	}
}

func (b *Brain) wander() Action {
	if b.random.Float64() < 0.1 {
		angle := b.random.Float64() * 2 * math.Pi
		b.heading = physics.Vec(math.Cos(angle), math.Sin(angle))
	}
	return Action{Move: b.heading, Look: b.heading}
}

func (b *Brain) hunt(state network.TickState, pos physics.Vector2D) Action {
	target, ok := b.nearestPlayer(state, pos)
	if !ok {
		return b.wander()
	}

	toTarget := physics.Vec(target.X, target.Y).Sub(pos)
	dir := toTarget.Normalize()
	action := Action{Move: dir, Look: dir}
	if toTarget.Length() < huntRange {
		action.CastKey = b.casts[b.nextCast%len(b.casts)]
		action.CastDir = dir
		b.nextCast++
	}
	return action
}

func (b *Brain) seek(state network.TickState, self network.PlayerState, pos physics.Vector2D) Action {
	have := make(map[string]bool, len(self.Objectives))
	for _, o := range self.Objectives {
		have[o] = true
	}

	var goal *network.RegionState
	for i := range state.Regions {
		r := &state.Regions[i]
		if !r.Locked || have[r.Color] {
			continue
		}
		goal = r
		break
	}
	if goal == nil {
		return b.wander()
	}

	// regions are broadcast without geometry; head for whoever stands in it
	for _, id := range goal.Players {
		if id == b.selfID {
			return Action{Look: b.heading}
		}
		if p, ok := findPlayer(state, id); ok {
			toward := physics.Vec(p.X, p.Y).Sub(pos)
			if toward.Length() > arriveDist {
				dir := toward.Normalize()
				return Action{Move: dir, Look: dir}
			}
		}
	}
	return b.wander()
}

func (b *Brain) nearestPlayer(state network.TickState, pos physics.Vector2D) (network.PlayerState, bool) {
	var (
		nearest network.PlayerState
		best    = math.Inf(1)
		found   bool
	)
	for _, p := range state.Players {
		if p.ID == b.selfID {
			continue
		}
		if d := physics.Vec(p.X, p.Y).Distance(pos); d < best {
			nearest, best, found = p, d, true
		}
	}
	return nearest, found
}

func findPlayer(state network.TickState, id string) (network.PlayerState, bool) {
	for _, p := range state.Players {
		if p.ID == id {
			return p, true
		}
	}
	return network.PlayerState{}, false
}
