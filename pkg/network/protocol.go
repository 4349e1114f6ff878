// pkg/network/protocol.go
package network

import (
	"encoding/json"

	"github.com/opd-ai/go-arena/pkg/entity"
)

// Client -> Server message types
const (
	MsgJoin       = "join"
	MsgInput      = "input"
	MsgCast       = "cast"
	MsgProjectile = "projectile"
	MsgLeave      = "leave"
)

// Server -> Client message types
const (
	MsgWelcome = "welcome"
	MsgAck     = "ack"
	MsgError   = "error"
)

// Envelope wraps every text frame
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is the decoding side of Envelope; D is decoded once T is known.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg asks the server for a player
type JoinMsg struct {
	Name string `json:"name"`
}

// InputMsg sets the movement direction and, when non-zero, the look direction
type InputMsg struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	LookX float64 `json:"lookX"`
	LookY float64 `json:"lookY"`
}

// CastMsg fires the ability bound to Key. A zero direction casts along the
// player's look direction.
type CastMsg struct {
	Key string  `json:"key"`
	DX  float64 `json:"dx"`
	DY  float64 `json:"dy"`
}

// WelcomeMsg is sent once a join succeeds
type WelcomeMsg struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AckMsg tells a client the id given to its projectile. Ref is the id the
// client used for it, empty for casts.
type AckMsg struct {
	Ref string `json:"ref"`
	ID  string `json:"id"`
}

// ErrorMsg reports a rejected message; the connection stays open
type ErrorMsg struct {
	Message string `json:"message"`
}

// PlayerState is broadcast per player
type PlayerState struct {
	ID         string   `msgpack:"id"`
	Name       string   `msgpack:"n"`
	X          float64  `msgpack:"x"`
	Y          float64  `msgpack:"y"`
	LookX      float64  `msgpack:"lx"`
	LookY      float64  `msgpack:"ly"`
	HP         float64  `msgpack:"hp"`
	MaxHP      float64  `msgpack:"mhp"`
	Silenced   bool     `msgpack:"si,omitempty"`
	Stunned    bool     `msgpack:"st,omitempty"`
	Objectives []string `msgpack:"o,omitempty"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID     string  `msgpack:"id"`
	Kind   string  `msgpack:"k"`
	Owner  string  `msgpack:"o"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"r"`
	Rooted bool    `msgpack:"rt,omitempty"`
}

// RegionState is broadcast per region
type RegionState struct {
	ID      string   `msgpack:"id"`
	Name    string   `msgpack:"n"`
	Color   string   `msgpack:"c"`
	Locked  bool     `msgpack:"l,omitempty"`
	Players []string `msgpack:"p"`
}

// TickState is the binary broadcast. Removed lists every entity dropped
// since the previous broadcast.
type TickState struct {
	Tick        uint64            `msgpack:"tick"`
	Players     []PlayerState     `msgpack:"players"`
	Projectiles []ProjectileState `msgpack:"projectiles"`
	Removed     []string          `msgpack:"removed"`
	Regions     []RegionState     `msgpack:"regions"`
}

func playerState(p *entity.Player) PlayerState {
	return PlayerState{
		ID:         p.ID,
		Name:       p.Name,
		X:          p.Location.X,
		Y:          p.Location.Y,
		LookX:      p.LookDirection.X,
		LookY:      p.LookDirection.Y,
		HP:         p.CurrHealth,
		MaxHP:      p.MaxHealth,
		Silenced:   p.Silenced,
		Stunned:    p.Stunned,
		Objectives: p.Objectives(),
	}
}

func projectileState(p *entity.Projectile) ProjectileState {
	return ProjectileState{
		ID:     p.ID,
		Kind:   string(p.Kind),
		Owner:  p.OwnerID,
		X:      p.Location.X,
		Y:      p.Location.Y,
		Radius: p.Radius(),
		Rooted: p.Rooted,
	}
}

func regionState(r *entity.Region) RegionState {
	return RegionState{
		ID:      r.ID,
		Name:    r.Name,
		Color:   r.Color,
		Locked:  r.Locked,
		Players: r.Overlaps(),
	}
}
