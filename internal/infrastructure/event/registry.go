package event

import (
	"sync"

	"github.com/fixflow/backend/internal/domain/shared"
)

// subscription binds a handler to the event types it receives
type subscription struct {
	handler shared.EventHandler
	all     bool
	types   map[string]struct{}
}

func (s *subscription) widen(eventTypes []string) {
	if len(eventTypes) == 0 {
		s.all = true
		return
	}
	for _, t := range eventTypes {
		s.types[t] = struct{}{}
	}
}

func (s *subscription) matches(eventType string) bool {
	if s.all {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order. A handler is
// subscribed at most once, so it sees each event once however often it
// registers.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []*subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to eventTypes, or to every event when none are
// given. Registering an existing handler widens its subscription.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.handler == handler {
			s.widen(eventTypes)
			return
		}
	}
	s := &subscription{handler: handler, types: make(map[string]struct{})}
	s.widen(eventTypes)
	r.subs = append(r.subs, s)
}

// Unregister removes handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	for _, s := range r.subs {
		if s.handler != handler {
			kept = append(kept, s)
		}
	}
	r.subs = kept
}

// GetHandlers returns the handlers of eventType in subscription order
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var handlers []shared.EventHandler
	for _, s := range r.subs {
		if s.matches(eventType) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

// GetAllHandlers returns every subscribed handler
func (r *HandlerRegistry) GetAllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		handlers = append(handlers, s.handler)
	}
	return handlers
}
