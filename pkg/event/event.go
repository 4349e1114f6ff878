// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Common event types
const (
	RegionEntered   Type = "region_entered"
	RegionExited    Type = "region_exited"
	EntityHit       Type = "entity_hit"
	EntityRemoved   Type = "entity_removed"
	ProjectileFired Type = "projectile_fired"
	PlayerJoined    Type = "player_joined"
	PlayerLeft      Type = "player_left"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is returned by Subscribe. Cancel is idempotent.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type registered struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching.
// Handlers run synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registered
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registered),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registered{id: id, handler: handler})

	var once sync.Once
	return &Subscription{
		ID: id,
		Cancel: func() {
			once.Do(func() { b.unsubscribe(eventType, id) })
		},
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	for i, h := range handlers {
		if h.id == id {
			// copy so a Publish iterating the old slice is unaffected
			next := make([]registered, 0, len(handlers)-1)
			next = append(next, handlers[:i]...)
			next = append(next, handlers[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, eventType)
			} else {
				b.handlers[eventType] = next
			}
			return
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h.handler(event)
	}
}

// Specific event implementations

// RegionEvent is published when a player enters a region, or when the last
// player leaves one (PlayerID is empty then).
type RegionEvent struct {
	BaseEvent
	RegionID   string
	RegionName string
	PlayerID   string
}

// NewRegionEvent creates a new region event
func NewRegionEvent(eventType Type, source interface{}, regionID, regionName, playerID string) *RegionEvent {
	return &RegionEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		RegionID:   regionID,
		RegionName: regionName,
		PlayerID:   playerID,
	}
}

// HitEvent contains information about a resolved hit. SourceID is the
// entity whose narrow phase found the contact.
type HitEvent struct {
	BaseEvent
	SourceID string
	TargetID string
	Removed  bool // either side was scheduled for deletion
}

// NewHitEvent creates a new hit event
func NewHitEvent(source interface{}, sourceID, targetID string, removed bool) *HitEvent {
	return &HitEvent{
		BaseEvent: BaseEvent{
			EventType: EntityHit,
			Source:    source,
		},
		SourceID: sourceID,
		TargetID: targetID,
		Removed:  removed,
	}
}

// EntityEvent carries a single entity id for join, leave, fire and removal events
type EntityEvent struct {
	BaseEvent
	EntityID string
	OwnerID  string
}

// NewEntityEvent creates a new entity event
func NewEntityEvent(eventType Type, source interface{}, entityID, ownerID string) *EntityEvent {
	return &EntityEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		OwnerID:  ownerID,
	}
}
