package store

import "context"

// Store defines the interface for assignment and event storage
type Store interface {
	// Variant assignments
	LoadVariant(ctx context.Context, key string) (string, bool, error)
	SaveVariant(ctx context.Context, key, value string) error
	GetVariant(ctx context.Context, key string) (*VariantAssignment, error)
	ListVariants(ctx context.Context) ([]*VariantAssignment, error)

	// Event operations
	RecordEvent(ctx context.Context, eventType, intentID, variant string) error
	GetEvents(ctx context.Context, intentID string) ([]*Event, error)
	CountEvents(ctx context.Context) (int, error)
	GetVariantStats(ctx context.Context) ([]VariantStats, error)

	// Lifecycle
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
