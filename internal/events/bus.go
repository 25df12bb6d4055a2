// Package events fans table changes out to whoever is watching a guild.
package events

import (
	"sync"
	"time"
)

// Event types published by tables
const (
	TypeRoster   = "roster"
	TypeChannels = "channels"
	TypeStarted  = "started"
	TypeEnded    = "ended"
	TypePhase    = "phase"
	TypePlayer   = "player"
	TypeDoor     = "door"
)

// Event is one change to a guild's table
type Event struct {
	Type    string
	GuildID string
	Data    any
	At      time.Time
}

// Bus manages event subscriptions per guild
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe subscribes to events for a guild
func (b *Bus) Subscribe(guildID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 10)
	b.subscribers[guildID] = append(b.subscribers[guildID], ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (b *Bus) Unsubscribe(guildID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[guildID]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[guildID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subscribers[guildID]) == 0 {
		delete(b.subscribers, guildID)
	}
}

// Publish sends an event to every subscriber of its guild. Slow
// subscribers miss events rather than block the publisher.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.GuildID] {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Subscribers returns the number of live subscriptions for a guild
func (b *Bus) Subscribers(guildID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers[guildID])
}
