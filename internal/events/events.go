// Package events provides an in-process event bus for engine state changes,
// so a UI can subscribe instead of polling.
package events

import (
	"sync"
	"time"
)

const (
	EventBusy     = "busy"
	EventIdle     = "idle"
	EventProgress = "upload-progress"
	EventToast    = "toast"
	EventNavigate = "navigate"
)

// Event represents one engine state change.
type Event struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace,omitempty"`
	Path      string `json:"path,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	Progress  int    `json:"progress,omitempty"`
	Message   string `json:"message,omitempty"`
	Level     string `json:"level,omitempty"` // info, error
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster manages subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Toast publishes an informational or error message event.
func (b *Broadcaster) Toast(level, message string) {
	b.Publish(Event{Type: EventToast, Level: level, Message: message})
}
