// Package events is a synchronous in-process domain event dispatcher. It lets
// one service react to another's events without either holding a reference to
// the other.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoHandler is returned by Dispatch when nothing is registered for an event.
var ErrNoHandler = errors.New("events: no handler registered")

// Event is a named domain event.
type Event interface {
	EventName() string
}

// Handler reacts to an event. A returned error aborts Dispatch.
type Handler func(ctx context.Context, event Event) error

const FriendRequestAnsweredEvent = "friend_request.answered"

// FriendRequestAnswered is raised when the recipient of a friend request
// answers the notification that carried it.
type FriendRequestAnswered struct {
	NotificationID uint64
	FriendshipID   uint64
	RecipientID    uint64
	Accepted       bool
}

func (FriendRequestAnswered) EventName() string { return FriendRequestAnsweredEvent }

// Dispatcher routes events to the handlers registered for their name.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for events named name.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Dispatch runs every handler for event in registration order and stops at
// the first error.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	d.mu.RLock()
	hs := append([]Handler(nil), d.handlers[event.EventName()]...)
	d.mu.RUnlock()

	if len(hs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoHandler, event.EventName())
	}

	for _, h := range hs {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
