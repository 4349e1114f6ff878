// Package validation provides input validation and sanitization for client messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-arena/pkg/entity"
	"github.com/opd-ai/go-arena/pkg/physics"
)

// Message size and content limits
const (
	MaxMessageSize      = 16 * 1024
	MaxPlayerNameLen    = 32
	MaxMessagesPerMin   = 1200
	MaxProjectileSpeed  = 2000.0
	MaxProjectileRadius = 64.0
	MaxProjectileRange  = 5000.0
	MaxProjectileDamage = 100.0
)

var (
	// ErrMessageTooLarge is returned for frames above MaxMessageSize.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrInvalidJSON is returned for frames that are not JSON.
	ErrInvalidJSON = errors.New("invalid JSON format")
	// ErrRateLimited is returned once a client exceeds its message budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidVector is returned for NaN or infinite coordinates.
	ErrInvalidVector = errors.New("vector is not finite")
	// ErrInvalidAbility is returned for keys outside the ability bindings.
	ErrInvalidAbility = errors.New("unknown ability key")
	// ErrInvalidProjectile is returned for client projectiles outside the allowed limits.
	ErrInvalidProjectile = errors.New("projectile out of bounds")
)

// Regular expressions for input validation
var (
	// Allow alphanumeric, spaces, hyphens, underscores, and basic punctuation for player names
	validPlayerNameChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.<>()]+$`)
)

var abilityKeys = map[string]bool{
	entity.KeyRanged:   true,
	entity.KeyAbility1: true,
	entity.KeyAbility2: true,
	entity.KeyAbility3: true,
}

// MessageValidator provides validation for incoming frames
type MessageValidator struct {
	rateLimiter *RateLimiter
	maxPerMin   int
}

// NewMessageValidator creates a message validator allowing maxPerMin frames
// per client per minute. Non-positive values use MaxMessagesPerMin.
func NewMessageValidator(maxPerMin int) *MessageValidator {
	if maxPerMin <= 0 {
		maxPerMin = MaxMessagesPerMin
	}
	return &MessageValidator{
		rateLimiter: NewRateLimiter(maxPerMin, time.Minute),
		maxPerMin:   maxPerMin,
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// Forget drops the rate limiting state of a disconnected client
func (v *MessageValidator) Forget(clientID string) {
	v.rateLimiter.Forget(clientID)
}

// ValidateMessage validates a raw message against size and format constraints
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(data), MaxMessageSize)
	}

	if !json.Valid(data) {
		return ErrInvalidJSON
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("%w: max %d messages per minute", ErrRateLimited, v.maxPerMin)
	}

	return nil
}

// ValidatePlayerName validates and sanitizes a player name
func ValidatePlayerName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("player name cannot be empty")
	}

	if len(name) > MaxPlayerNameLen {
		return "", fmt.Errorf("player name too long: %d characters (max %d)", len(name), MaxPlayerNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("player name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("player name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("player name contains control characters")
		}
	}

	if !validPlayerNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("player name contains invalid characters (only alphanumeric, spaces, hyphens, underscores, and basic punctuation allowed)")
	}

	// Escape HTML to prevent XSS in browser clients
	return html.EscapeString(trimmed), nil
}

// ValidateVector rejects NaN and infinite coordinates
func ValidateVector(v physics.Vector2D) error {
	if !v.IsFinite() {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidVector, v.X, v.Y)
	}
	return nil
}

// ValidateDirection checks a movement or aim direction. The result is
// normalised; a zero vector stays zero.
func ValidateDirection(v physics.Vector2D) (physics.Vector2D, error) {
	if err := ValidateVector(v); err != nil {
		return physics.Vector2D{}, err
	}
	return v.Normalize(), nil
}

// ValidateAbilityKey checks that key is one of the input bindings
func ValidateAbilityKey(key string) error {
	if !abilityKeys[key] {
		return fmt.Errorf("%w: %q", ErrInvalidAbility, key)
	}
	return nil
}

// ValidateProjectile checks a client-built projectile before the server
// assigns it an id. ownerID must be the sending player.
func ValidateProjectile(p *entity.Projectile, ownerID string) error {
	if p.OwnerID != ownerID {
		return fmt.Errorf("%w: owner %q is not the sender", ErrInvalidProjectile, p.OwnerID)
	}
	if err := ValidateVector(p.Location); err != nil {
		return err
	}
	if err := ValidateVector(p.LookDirection); err != nil {
		return err
	}
	checks := []struct {
		name  string
		value float64
		max   float64
	}{
		{"speed", p.Speed, MaxProjectileSpeed},
		{"radius", p.Radius(), MaxProjectileRadius},
		{"range", p.Range, MaxProjectileRange},
		{"damage", p.Damage, MaxProjectileDamage},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < 0 || c.value > c.max {
			return fmt.Errorf("%w: %s %v (max %v)", ErrInvalidProjectile, c.name, c.value, c.max)
		}
	}
	return nil
}
