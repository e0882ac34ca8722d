package store

import (
	"context"
	"unsafe"

	"github.com/rs/zerolog/log"
)

// Event names a domain event. The taxonomy is declared in the
// services package next to the handlers that emit it.
type Event string

// EventData is the payload delivered to event subscribers.
type EventData struct {
	// ID of the mutated entity.
	ID string
	// Deleted is set when the mutation was a tombstone.
	Deleted bool
	// Payload carries command-specific details for observers.
	Payload map[string]any
}

// Callback consumes one event occurrence.
type Callback func(ctx context.Context, data EventData) error

type subscriber struct {
	key uintptr
	cb  Callback
}

// Bus is an in-process observer table: a map from event to the ordered
// list of its subscribers. It is installed once per session and not
// mutated afterwards, so no locking is needed on the notify path.
type Bus struct {
	subscribers map[Event][]subscriber
}

// Observe registers cb for event, deduplicating by function identity:
// registering the same stored value twice is a no-op, while distinct
// closures sharing one code body stay distinct.
func (b *Bus) Observe(event Event, cb Callback) {
	if b.subscribers == nil {
		b.subscribers = make(map[Event][]subscriber)
	}
	key := callbackKey(cb)
	for _, s := range b.subscribers[event] {
		if s.key == key {
			return
		}
	}
	b.subscribers[event] = append(b.subscribers[event], subscriber{key: key, cb: cb})
}

// callbackKey returns the address of the callback's underlying function
// value. reflect's Pointer() would return the code pointer instead,
// which conflates every closure produced by one constructor.
func callbackKey(cb Callback) uintptr {
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&cb)))
}

// Notify invokes the event's subscribers in registration order. A
// failing or panicking subscriber is logged and does not prevent the
// remaining ones from running.
func (b *Bus) Notify(ctx context.Context, event Event, data EventData) {
	for _, s := range b.subscribers[event] {
		invoke(ctx, event, s.cb, data)
	}
}

func invoke(ctx context.Context, event Event, cb Callback, data EventData) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", string(event)).
				Str("id", data.ID).Msg("event subscriber panicked")
		}
	}()
	if err := cb(ctx, data); err != nil {
		log.Error().Err(err).Str("event", string(event)).
			Str("id", data.ID).Msg("event subscriber failed")
	}
}
