package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

// AnalysisSortFields is the allow-list of columns ListFiltered accepts for
// ordering. Requests naming any other field are rejected before a query is
// built.
var AnalysisSortFields = []string{
	"roi_percent",
	"velocity_score",
	"profit",
	"current_price",
	"bsr",
	"created_at",
}

// AnalysisFilter holds the optional criteria for ListFiltered. Nil range
// bounds are omitted from the query. ISBNs are normalized before matching.
type AnalysisFilter struct {
	MinROI      *decimal.Decimal
	MaxROI      *decimal.Decimal
	MinVelocity *decimal.Decimal
	MaxVelocity *decimal.Decimal
	MinProfit   *decimal.Decimal
	MaxProfit   *decimal.Decimal

	ISBNs []string

	// SortBy must be one of AnalysisSortFields; empty selects created_at.
	SortBy   string
	SortDesc bool
}

// Thresholds are the cutoffs for opportunity counting.
type Thresholds struct {
	ROI      decimal.Decimal
	Velocity decimal.Decimal
	Profit   decimal.Decimal
}

// AnalysisRepository manages book analysis persistence, filtering, and ranking.
type AnalysisRepository interface {
	// Create inserts a new analysis and sets its generated ID and CreatedAt.
	// A (batch_id, isbn_or_asin) collision returns DuplicateISBNError and
	// leaves the store unchanged.
	Create(ctx context.Context, analysis *domain.Analysis) error

	// Get retrieves one analysis by ID.
	Get(ctx context.Context, id int64) (*domain.Analysis, error)

	// ListFiltered returns one page of a batch's analyses matching the filter,
	// ordered by the requested sort field with an id tie-break.
	ListFiltered(ctx context.Context, batchID int64, filter AnalysisFilter, page PageRequest) (Page[domain.Analysis], error)

	// TopNForBatch returns the best n analyses of a batch under the given
	// ranking strategy. n is clamped to [1, 100]; zero selects the default 10.
	TopNForBatch(ctx context.Context, batchID int64, strategy domain.RankStrategy, n int) ([]domain.Analysis, error)

	// CountByThresholds aggregates opportunity counts for a batch in a single
	// pass over the data.
	CountByThresholds(ctx context.Context, batchID int64, t Thresholds) (*domain.OpportunityCounts, error)

	// DeleteByBatch removes every analysis of a batch and returns the number
	// deleted, zero when the batch has none.
	DeleteByBatch(ctx context.Context, batchID int64) (int64, error)

	// DeleteByIDs removes the analyses with the given IDs and returns the
	// number actually deleted. Unknown IDs are skipped, an empty list is a
	// no-op returning zero.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
