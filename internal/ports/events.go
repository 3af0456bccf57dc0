package ports

import "context"

// EventPublisher is the outbound event publish port.
// The partition key keeps events for one listing or submitter ordered on the
// broker; adapters that have no partitioning concept may ignore it.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
