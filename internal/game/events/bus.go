package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventBus delivers events synchronously on the publisher's goroutine.
// Subscribers are notified in subscription order, then function handlers.
// A panicking handler is logged and skipped.
type EventBus struct {
	mu       sync.RWMutex
	subs     []Subscriber
	handlers map[string][]EventHandler
	logger   zerolog.Logger
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		logger:   log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers s. Subscribing an ID twice replaces the earlier
// subscriber and keeps its position.
func (eb *EventBus) Subscribe(s Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if i := eb.indexOf(s.ID()); i >= 0 {
		eb.subs[i] = s
		return
	}
	eb.subs = append(eb.subs, s)
	eb.logger.Debug().Str("subscriber_id", s.ID()).Msg("Subscriber added")
}

func (eb *EventBus) Unsubscribe(id string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if i := eb.indexOf(id); i >= 0 {
		eb.subs = append(eb.subs[:i], eb.subs[i+1:]...)
		eb.logger.Debug().Str("subscriber_id", id).Msg("Subscriber removed")
	}
}

// SubscribeFunc registers a handler for one event type and returns a
// label for it.
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	return fmt.Sprintf("%s_func_%d", eventType, len(eb.handlers[eventType]))
}

// Subscribers lists subscriber IDs in delivery order.
func (eb *EventBus) Subscribers() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	ids := make([]string, len(eb.subs))
	for i, s := range eb.subs {
		ids[i] = s.ID()
	}
	return ids
}

func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	eventType := event.Type()
	for _, s := range eb.subs {
		if s.InterestedIn(eventType) {
			eb.deliver(s.ID(), event, s.HandleEvent)
		}
	}
	for i, h := range eb.handlers[eventType] {
		eb.deliver(fmt.Sprintf("%s_func_%d", eventType, i+1), event, h)
	}
}

func (eb *EventBus) deliver(id string, event Event, h EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("handler", id).
				Str("event_type", event.Type()).
				Str("match_id", event.MatchID()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	h(event)
}

func (eb *EventBus) indexOf(id string) int {
	for i, s := range eb.subs {
		if s.ID() == id {
			return i
		}
	}
	return -1
}
