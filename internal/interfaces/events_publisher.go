package interfaces

import "context"

// EventPublisher ships domain events to a broker. key groups related events
// onto the same partition.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
