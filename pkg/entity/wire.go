// pkg/entity/wire.go
package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-arena/pkg/physics"
)

// ErrInvalidPayload is returned for projectile payloads that cannot be decoded.
var ErrInvalidPayload = errors.New("invalid projectile payload")

// TypeProjectile is the wire type of a generic projectile.
const TypeProjectile = "Projectile"

// ProjectilePayload is the wire form of a projectile: a type tag plus the
// projectile body. The body may arrive as an object or as a JSON string.
type ProjectilePayload struct {
	Type string          `json:"type" msgpack:"type"`
	JSON json.RawMessage `json:"json" msgpack:"json"`
}

// Hitbox is the wire form of a circular hitbox
type Hitbox struct {
	Radius float64 `json:"radius" msgpack:"radius"`
}

type projectileBody struct {
	ID            string            `json:"id"`
	Location      *physics.Vector2D `json:"location"`
	Name          string            `json:"name"`
	Speed         float64           `json:"speed"`
	Scale         float64           `json:"scale"`
	LookDirection physics.Vector2D  `json:"lookDirection"`
	Range         float64           `json:"range"`
	Hitbox        Hitbox            `json:"hitbox"`
	Damage        float64           `json:"damage"`
	OwnerID       string            `json:"ownerID"`
}

// EncodeProjectile converts a projectile to its wire payload
func EncodeProjectile(p *Projectile) (ProjectilePayload, error) {
	loc := p.Location
	body := projectileBody{
		ID:            p.ID,
		Location:      &loc,
		Name:          p.Name,
		Speed:         p.Speed,
		Scale:         p.Scale,
		LookDirection: p.LookDirection,
		Range:         p.Range,
		Hitbox:        Hitbox{Radius: p.Radius()},
		Damage:        p.Damage,
		OwnerID:       p.OwnerID,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return ProjectilePayload{}, fmt.Errorf("encode projectile %s: %w", p.ID, err)
	}
	return ProjectilePayload{Type: wireType(p.Kind), JSON: raw}, nil
}

// DecodeProjectile builds a projectile from a wire payload. Unknown types
// fall back to a generic projectile carrying the same fields.
func DecodeProjectile(payload ProjectilePayload) (*Projectile, error) {
	raw := bytes.TrimSpace(payload.JSON)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		raw = []byte(inner)
	}

	var body projectileBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if body.Location == nil {
		return nil, fmt.Errorf("%w: missing location", ErrInvalidPayload)
	}
	if !body.Location.IsFinite() || !body.LookDirection.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite vector", ErrInvalidPayload)
	}
	for _, f := range []float64{body.Speed, body.Range, body.Damage, body.Hitbox.Radius, body.Scale} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrInvalidPayload)
		}
	}

	kind := kindFromWire(payload.Type)
	p := NewProjectile(body.ID, kind, body.OwnerID, *body.Location, body.LookDirection,
		body.Speed, body.Range, body.Damage, body.Hitbox.Radius)
	if body.Name != "" {
		p.Name = body.Name
	}
	if body.Scale != 0 {
		p.Scale = body.Scale
	}
	return p, nil
}

func wireType(k Kind) string {
	if k == "" || k == KindArrow {
		return TypeProjectile
	}
	return string(k)
}

func kindFromWire(t string) Kind {
	switch Kind(t) {
	case KindFireball, KindWaterball, KindPlantSeed:
		return Kind(t)
	case "", TypeProjectile:
		return KindArrow
	}
	// keep the tag so the payload re-encodes unchanged; behaviour is generic
	return Kind(t)
}
