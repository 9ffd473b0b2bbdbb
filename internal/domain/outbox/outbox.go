package outbox

import "context"

// Event is any domain event carrying a stable name identifier.
type Event interface {
	EventName() string
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, e Event) error

// Publisher hands an event to whatever dispatches it to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers a handler for a given event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
