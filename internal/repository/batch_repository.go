package repository

import (
	"context"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

// BatchFilter holds the optional criteria for listing batches.
type BatchFilter struct {
	// Status restricts the result to batches in any of the given states.
	Status []domain.BatchStatus

	// CreatedBy restricts the result to batches created by one user.
	CreatedBy *int64
}

// StatusUpdate describes a requested batch status change.
type StatusUpdate struct {
	Status domain.BatchStatus

	// ItemsProcessed optionally advances the progress counter along with the
	// transition. Must not exceed the batch's items_total.
	ItemsProcessed *int
}

// BatchRepository manages batch lifecycle, status transitions, and progress.
type BatchRepository interface {
	// Create inserts a new batch in PENDING state and sets its generated ID
	// and CreatedAt. A missing creator user returns a not-found error.
	Create(ctx context.Context, batch *domain.Batch) error

	// Get retrieves one batch by ID.
	Get(ctx context.Context, id int64) (*domain.Batch, error)

	// List returns one page of batches matching the filter, newest first.
	List(ctx context.Context, filter BatchFilter, page PageRequest) (Page[domain.Batch], error)

	// UpdateStatus applies a status transition under row-level locking and
	// returns the updated batch. Transitions outside the lifecycle state
	// machine return InvalidStatusTransitionError. Entering RUNNING stamps
	// started_at; entering DONE or FAILED stamps finished_at when unset;
	// restarting (FAILED to PENDING) clears both and resets items_processed.
	UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*domain.Batch, error)

	// Delete removes a batch and, via cascade, all of its analyses.
	Delete(ctx context.Context, id int64) error

	// Stats returns the service-wide batch and analysis rollup.
	Stats(ctx context.Context) (*domain.BatchStats, error)
}
