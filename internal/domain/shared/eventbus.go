package shared

import "context"

// EventHandler consumes domain events after the producing transaction commits
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; nil means every type.
	EventTypes() []string
}

// EventPublisher hands committed events to the bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registration. Subscribing with no types
// delivers every event to the handler.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher and subscriber with a lifecycle
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// CollectEvents takes the pending events off each aggregate, keeping the
// order in which the aggregates were passed. Nil aggregates are skipped.
func CollectEvents(aggregates ...AggregateRoot) []DomainEvent {
	var out []DomainEvent
	for _, a := range aggregates {
		if a == nil {
			continue
		}
		out = append(out, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return out
}
