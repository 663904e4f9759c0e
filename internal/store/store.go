package store

import (
	"context"
	"errors"

	"github.com/TimurManjosov/segmentd/internal/rules"
)

// Sentinel errors shared by all backends.
var (
	ErrNotFound = errors.New("segment not found")
	ErrReadOnly = errors.New("store is read-only")
)

// Store defines the interface for segment persistence operations.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// ListSegments retrieves all segments for the given environment.
	// Returns an empty slice if none are found.
	ListSegments(ctx context.Context, env string) ([]rules.Segment, error)

	// GetSegment retrieves a single segment by key and environment.
	// Returns ErrNotFound if it does not exist.
	GetSegment(ctx context.Context, key, env string) (*rules.Segment, error)

	// UpsertSegment creates or updates a segment. The ID is assigned on
	// first insert and preserved on update.
	UpsertSegment(ctx context.Context, params UpsertParams) (*rules.Segment, error)

	// DeleteSegment removes a segment by key and environment. Deleting a
	// segment that does not exist is not an error (idempotent).
	DeleteSegment(ctx context.Context, key, env string) error

	// Close releases any resources held by the store.
	Close() error
}

// UpsertParams contains the parameters for upserting a segment.
type UpsertParams struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Condition   string `json:"condition"`
	Env         string `json:"env"`
}
