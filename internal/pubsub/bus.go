// Package pubsub carries payloads between server instances by topic. Delivery
// is at-least-once to connected subscribers and best effort otherwise.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("pubsub: bus closed")

// Handler receives a payload published on a subscribed topic.
type Handler func(ctx context.Context, payload []byte)

// Subscription is a live registration of a Handler.
type Subscription interface {
	Unsubscribe() error
}

// Bus publishes payloads to topics and delivers them to subscribers on every
// instance sharing the same backend.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, h Handler) (Subscription, error)
	Close() error
}

// UserNotificationsTopic is the topic carrying a user's new notifications.
func UserNotificationsTopic(userID uint64) string {
	return fmt.Sprintf("user:%d:notifications", userID)
}

// RoomEventsTopic is the topic carrying realtime events for one room.
func RoomEventsTopic(roomID uint64) string {
	return fmt.Sprintf("room:%d:events", roomID)
}

// router keeps the local handlers per topic. Backends use it to fan a received
// message out to this instance's subscribers.
type router struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]Handler
}

func newRouter() *router {
	return &router{topics: make(map[string]map[uint64]Handler)}
}

// add registers h and reports whether it is the first handler for topic.
func (r *router) add(topic string, h Handler) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	hs, ok := r.topics[topic]
	if !ok {
		hs = make(map[uint64]Handler)
		r.topics[topic] = hs
	}
	hs[r.nextID] = h
	return r.nextID, !ok
}

// remove drops a handler and reports whether topic has no handlers left.
func (r *router) remove(topic string, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	hs, ok := r.topics[topic]
	if !ok {
		return false
	}
	if _, ok := hs[id]; !ok {
		return false
	}
	delete(hs, id)
	if len(hs) == 0 {
		delete(r.topics, topic)
		return true
	}
	return false
}

func (r *router) dispatch(ctx context.Context, topic string, payload []byte) {
	r.mu.RLock()
	hs := make([]Handler, 0, len(r.topics[topic]))
	for _, h := range r.topics[topic] {
		hs = append(hs, h)
	}
	r.mu.RUnlock()

	for _, h := range hs {
		h(ctx, payload)
	}
}

// active lists the topics with at least one handler.
func (r *router) active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// subscription runs cancel at most once.
type subscription struct {
	once   sync.Once
	cancel func() error
	err    error
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.cancel()
	})
	return s.err
}
