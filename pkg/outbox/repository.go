package outbox

import "context"

// Repository defines outbox event persistence
type Repository interface {
	// SaveAll saves events; callers pass a session context to join a transaction
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished retrieves unpublished events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
}
