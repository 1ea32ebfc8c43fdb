package domain

import "context"

// ListSource loads lists to execute
type ListSource interface {
	FetchRows(ctx context.Context, listID string) (Operation, []ListRow, error)
	FetchProgress(ctx context.Context, listID string) (Progress, error)
}

// CommitSink persists row results. A returned error leaves the row uncommitted.
type CommitSink interface {
	CommitPick(ctx context.Context, result PickResult) error
	CommitInventoryCount(ctx context.Context, result InventoryResult) error
}

// ExecutionNotifier is told about list-level lifecycle events
type ExecutionNotifier interface {
	ListCompleted(ctx context.Context, event *ListCompletedEvent) error
	ExecutionCancelled(ctx context.Context, event *ExecutionCancelledEvent) error
}
