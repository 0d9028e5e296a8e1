// Package events records significant occurrences in the crafting registry:
// registry creation, catalogue and recipe changes, and instance mints.
// Consumers subscribe for live delivery or read back the recent history.
package events

import (
	"sync"
	"time"
)

// Type classifies a crafting event.
type Type string

const (
	TypeRegistryCreated  Type = "registry.created"
	TypeArchetypeDefined Type = "archetype.defined"
	TypeBasicAdded       Type = "basic.added"
	TypeBasicRemoved     Type = "basic.removed"
	TypeRecipeDefined    Type = "recipe.defined"
	TypeInstanceMinted   Type = "instance.minted"
)

// Event is a single entry in the feed.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	RegistryID string            `json:"registry_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Handler processes events as they are published.
type Handler func(Event)

// Feed is a thread-safe circular buffer of events with live subscribers.
type Feed struct {
	mu       sync.RWMutex
	events   []Event
	size     int
	head     int
	count    int
	handlers []handlerEntry
	nextID   int64
}

type handlerEntry struct {
	id      int64
	handler Handler
}

// NewFeed creates a feed retaining up to size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1000
	}
	return &Feed{
		events: make([]Event, size),
		size:   size,
	}
}

// Publish appends an event and notifies subscribers.
func (f *Feed) Publish(event Event) {
	f.mu.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ID == "" {
		event.ID = time.Now().UTC().Format("20060102150405.000000000")
	}

	f.events[f.head] = event
	f.head = (f.head + 1) % f.size
	if f.count < f.size {
		f.count++
	}

	handlers := make([]handlerEntry, len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	// Notify outside the lock.
	for _, h := range handlers {
		h.handler(event)
	}
}

// Subscribe registers a handler and returns an unsubscribe function.
func (f *Feed) Subscribe(handler Handler) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers = append(f.handlers, handlerEntry{id: id, handler: handler})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, h := range f.handlers {
			if h.id == id {
				f.handlers = append(f.handlers[:i], f.handlers[i+1:]...)
				return
			}
		}
	}
}

// Recent returns the most recent n events, newest first.
func (f *Feed) Recent(n int) []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || f.count == 0 {
		return nil
	}
	if n > f.count {
		n = f.count
	}

	result := make([]Event, n)
	for i := 0; i < n; i++ {
		idx := (f.head - 1 - i + f.size) % f.size
		result[i] = f.events[idx]
	}
	return result
}

// RecentByRegistry returns recent events scoped to one registry, newest first.
func (f *Feed) RecentByRegistry(registryID string, n int) []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || f.count == 0 {
		return nil
	}

	var result []Event
	for i := 0; i < f.count && len(result) < n; i++ {
		idx := (f.head - 1 - i + f.size) % f.size
		if f.events[idx].RegistryID == registryID {
			result = append(result, f.events[idx])
		}
	}
	return result
}

// Count returns the number of retained events.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}
