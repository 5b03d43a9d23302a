package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

const batchColumns = `id, name, created_by, status, items_total, items_processed,
		strategy_snapshot, created_at, started_at, finished_at`

// Compile-time interface verification.
var _ BatchRepository = (*PgBatchRepository)(nil)

// PgBatchRepository is a PostgreSQL implementation of BatchRepository.
type PgBatchRepository struct {
	db DBTX
}

// NewPgBatchRepository creates a new PostgreSQL batch repository.
func NewPgBatchRepository(db DBTX) *PgBatchRepository {
	return &PgBatchRepository{db: db}
}

// Create inserts a new batch. Status always starts at PENDING regardless of
// what the caller set; the state machine owns every later change.
func (r *PgBatchRepository) Create(ctx context.Context, batch *domain.Batch) error {
	if batch == nil {
		return domain.NewValidationError("batch", "batch cannot be nil")
	}
	if batch.Name == "" {
		return domain.NewValidationError("name", "batch name is required")
	}
	if batch.CreatedBy == 0 {
		return domain.NewValidationError("created_by", "creator user ID is required")
	}
	if batch.ItemsTotal < 0 {
		return domain.NewValidationError("items_total", "items total cannot be negative")
	}

	snapshotJSON, err := json.Marshal(batch.StrategySnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy snapshot: %w", err)
	}

	batch.Status = domain.BatchStatusPending
	batch.ItemsProcessed = 0

	query := `
		INSERT INTO batches (name, created_by, status, items_total, items_processed, strategy_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = r.db.QueryRow(ctx, query,
		batch.Name, batch.CreatedBy, batch.Status, batch.ItemsTotal, batch.ItemsProcessed, snapshotJSON,
	).Scan(&batch.ID, &batch.CreatedAt)

	if err != nil {
		if isPgForeignKeyViolation(err) {
			return domain.NewNotFoundError("user", strconv.FormatInt(batch.CreatedBy, 10))
		}
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

// Get retrieves a batch by its ID.
func (r *PgBatchRepository) Get(ctx context.Context, id int64) (*domain.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE id = $1", batchColumns)

	row := r.db.QueryRow(ctx, query, id)
	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("batch", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return batch, nil
}

// List returns one page of batches, newest first with an id tie-break.
func (r *PgBatchRepository) List(ctx context.Context, filter BatchFilter, page PageRequest) (Page[domain.Batch], error) {
	var conds []Condition

	if len(filter.Status) > 0 {
		values := make([]any, len(filter.Status))
		for i, s := range filter.Status {
			if !s.IsValid() {
				return Page[domain.Batch]{}, domain.NewValidationError("status",
					fmt.Sprintf("unknown batch status %q", s))
			}
			values[i] = s
		}
		conds = append(conds, In("status", values))
	}
	if filter.CreatedBy != nil {
		conds = append(conds, Eq("created_by", *filter.CreatedBy))
	}

	return paginate(ctx, r.db, "batches", batchColumns, conds,
		orderClause("created_at", true), page, scanBatchFromRows)
}

// UpdateStatus applies a lifecycle transition using SELECT FOR UPDATE.
//
// When the underlying DBTX is a connection pool the lock-read and the write
// are wrapped in an explicit transaction automatically. Callers already inside
// a transaction get the sequence executed on it directly.
func (r *PgBatchRepository) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*domain.Batch, error) {
	if !update.Status.IsValid() {
		return nil, domain.NewValidationError("status",
			fmt.Sprintf("unknown batch status %q", update.Status))
	}

	if beginner, ok := r.db.(txBeginner); ok {
		tx, err := beginner.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction for status update: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		txRepo := &PgBatchRepository{db: tx}
		batch, err := txRepo.updateStatusInTx(ctx, id, update)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit status update: %w", err)
		}
		return batch, nil
	}

	return r.updateStatusInTx(ctx, id, update)
}

// updateStatusInTx performs the SELECT FOR UPDATE + UPDATE sequence. Must run
// inside a transaction for the row lock to be meaningful.
func (r *PgBatchRepository) updateStatusInTx(ctx context.Context, id int64, update StatusUpdate) (*domain.Batch, error) {
	selectQuery := fmt.Sprintf("SELECT %s FROM batches WHERE id = $1 FOR UPDATE", batchColumns)

	rows, err := r.db.Query(ctx, selectQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch for update: %w", err)
	}

	batch, err := scanBatchRows(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("batch", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}

	if !batch.Status.CanTransitionTo(update.Status) {
		return nil, domain.NewInvalidStatusTransitionError(batch.Status, update.Status)
	}

	if update.ItemsProcessed != nil {
		if *update.ItemsProcessed < 0 {
			return nil, domain.NewValidationError("items_processed", "cannot be negative")
		}
		if *update.ItemsProcessed > batch.ItemsTotal {
			return nil, domain.NewValidationError("items_processed",
				fmt.Sprintf("cannot exceed items_total (%d)", batch.ItemsTotal))
		}
		batch.ItemsProcessed = *update.ItemsProcessed
	}

	now := time.Now().UTC()
	switch update.Status {
	case domain.BatchStatusRunning:
		if batch.StartedAt == nil {
			batch.StartedAt = &now
		}
	case domain.BatchStatusDone, domain.BatchStatusFailed:
		if batch.FinishedAt == nil {
			batch.FinishedAt = &now
		}
	case domain.BatchStatusPending:
		// Restart: the next run gets fresh timestamps and a clean counter.
		batch.StartedAt = nil
		batch.FinishedAt = nil
		batch.ItemsProcessed = 0
	}
	batch.Status = update.Status

	updateQuery := `
		UPDATE batches SET
			status = $1,
			items_processed = $2,
			started_at = $3,
			finished_at = $4
		WHERE id = $5`

	_, err = r.db.Exec(ctx, updateQuery,
		batch.Status, batch.ItemsProcessed, batch.StartedAt, batch.FinishedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update batch status: %w", err)
	}

	return batch, nil
}

// Delete removes a batch; its analyses go with it via ON DELETE CASCADE.
func (r *PgBatchRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, "DELETE FROM batches WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("batch", strconv.FormatInt(id, 10))
	}
	return nil
}

// Stats returns the service-wide rollup of batch and analysis counts.
func (r *PgBatchRepository) Stats(ctx context.Context) (*domain.BatchStats, error) {
	stats := &domain.BatchStats{
		BatchesByStatus: make(map[domain.BatchStatus]int64),
	}

	rows, err := r.db.Query(ctx, "SELECT status, COUNT(*) FROM batches GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query batch status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.BatchStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan batch status count: %w", err)
		}
		stats.BatchesByStatus[status] = count
		stats.TotalBatches += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch status counts: %w", err)
	}

	stats.RunningBatches = stats.BatchesByStatus[domain.BatchStatusRunning]

	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM analyses").Scan(&stats.TotalAnalyses); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	var latestID int64
	var latestAt time.Time
	err = r.db.QueryRow(ctx,
		"SELECT id, created_at FROM batches ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&latestID, &latestAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No batches yet; latest fields stay nil.
	case err != nil:
		return nil, fmt.Errorf("failed to query latest batch: %w", err)
	default:
		stats.LatestBatchID = &latestID
		stats.LatestBatchAt = &latestAt
	}

	return stats, nil
}

// batchScanDest holds the destination pointers for scanning a batch row.
type batchScanDest struct {
	batch        domain.Batch
	snapshotJSON []byte
}

func (d *batchScanDest) destinations() []any {
	return []any{
		&d.batch.ID, &d.batch.Name, &d.batch.CreatedBy, &d.batch.Status,
		&d.batch.ItemsTotal, &d.batch.ItemsProcessed,
		&d.snapshotJSON, &d.batch.CreatedAt, &d.batch.StartedAt, &d.batch.FinishedAt,
	}
}

func (d *batchScanDest) finalize() (*domain.Batch, error) {
	if len(d.snapshotJSON) > 0 {
		if err := json.Unmarshal(d.snapshotJSON, &d.batch.StrategySnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal strategy snapshot: %w", err)
		}
	}
	return &d.batch, nil
}

// scanBatch scans a single row into a Batch.
func scanBatch(row pgx.Row) (*domain.Batch, error) {
	var dest batchScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanBatchRows scans a single row from pgx.Rows into a Batch.
// Used with SELECT FOR UPDATE which returns Rows instead of Row.
func scanBatchRows(rows pgx.Rows) (*domain.Batch, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	batch, err := scanBatchFromRows(rows)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// scanBatchFromRows scans the current row from pgx.Rows into a Batch.
func scanBatchFromRows(rows pgx.Rows) (domain.Batch, error) {
	var dest batchScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return domain.Batch{}, err
	}
	batch, err := dest.finalize()
	if err != nil {
		return domain.Batch{}, err
	}
	return *batch, nil
}
