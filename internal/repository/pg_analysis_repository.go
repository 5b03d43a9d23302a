package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

// TopN bounds. A request outside [1, maxTopN] is clamped; zero selects the default.
const (
	defaultTopN = 10
	maxTopN     = 100
)

const analysisColumns = `id, batch_id, isbn_or_asin, title,
		current_price, target_price, profit, roi_percent, velocity_score,
		risk_level, bsr, raw_keepa, created_at`

// balancedScoreSQL is the composite ranking expression. Computed in NUMERIC so
// it is exact and matches domain.Analysis.BalancedScore.
const balancedScoreSQL = "(roi_percent * 0.6 + velocity_score * 0.4)"

// strategyOrderColumns maps each ranking strategy to its ORDER BY column.
var strategyOrderColumns = map[domain.RankStrategy]string{
	domain.StrategyROI:      "roi_percent",
	domain.StrategyVelocity: "velocity_score",
	domain.StrategyProfit:   "profit",
	domain.StrategyBalanced: balancedScoreSQL,
}

// Compile-time interface verification.
var _ AnalysisRepository = (*PgAnalysisRepository)(nil)

// PgAnalysisRepository is a PostgreSQL implementation of AnalysisRepository.
type PgAnalysisRepository struct {
	db DBTX
}

// NewPgAnalysisRepository creates a new PostgreSQL analysis repository.
func NewPgAnalysisRepository(db DBTX) *PgAnalysisRepository {
	return &PgAnalysisRepository{db: db}
}

// Create inserts a new analysis. The identifier is normalized before insert so
// the uniqueness guarantee covers case and whitespace variants.
func (r *PgAnalysisRepository) Create(ctx context.Context, analysis *domain.Analysis) error {
	if analysis == nil {
		return domain.NewValidationError("analysis", "analysis cannot be nil")
	}
	if analysis.BatchID == 0 {
		return domain.NewValidationError("batch_id", "batch ID is required")
	}

	analysis.ISBNOrASIN = domain.NormalizeISBN(analysis.ISBNOrASIN)
	if analysis.ISBNOrASIN == "" {
		return domain.NewValidationError("isbn_or_asin", "identifier is required")
	}

	query := `
		INSERT INTO analyses (
			batch_id, isbn_or_asin, title,
			current_price, target_price, profit, roi_percent, velocity_score,
			risk_level, bsr, raw_keepa
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11
		)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		analysis.BatchID, analysis.ISBNOrASIN, nullString(analysis.Title),
		analysis.CurrentPrice, analysis.TargetPrice, analysis.Profit, analysis.ROIPercent, analysis.VelocityScore,
		nullString(string(analysis.RiskLevel)), analysis.BSR, nullString(analysis.RawKeepa),
	).Scan(&analysis.ID, &analysis.CreatedAt)

	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewDuplicateISBNError(analysis.BatchID, analysis.ISBNOrASIN)
		}
		if isPgForeignKeyViolation(err) {
			return domain.NewNotFoundError("batch", strconv.FormatInt(analysis.BatchID, 10))
		}
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	return nil
}

// Get retrieves an analysis by its ID.
func (r *PgAnalysisRepository) Get(ctx context.Context, id int64) (*domain.Analysis, error) {
	query := fmt.Sprintf("SELECT %s FROM analyses WHERE id = $1", analysisColumns)

	row := r.db.QueryRow(ctx, query, id)
	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("analysis", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return analysis, nil
}

// ListFiltered returns one page of a batch's analyses matching the filter.
// The sort field and range bounds are validated before any query is built, so
// a bad request never reaches the store.
func (r *PgAnalysisRepository) ListFiltered(ctx context.Context, batchID int64, filter AnalysisFilter, page PageRequest) (Page[domain.Analysis], error) {
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !isSortableAnalysisField(sortBy) {
		return Page[domain.Analysis]{}, domain.NewInvalidSortFieldError(sortBy, AnalysisSortFields)
	}

	ranges := []struct {
		field    string
		min, max *decimal.Decimal
	}{
		{"roi_percent", filter.MinROI, filter.MaxROI},
		{"velocity_score", filter.MinVelocity, filter.MaxVelocity},
		{"profit", filter.MinProfit, filter.MaxProfit},
	}
	for _, rb := range ranges {
		if rb.min != nil && rb.max != nil && rb.min.GreaterThan(*rb.max) {
			return Page[domain.Analysis]{}, domain.NewValidationError(rb.field,
				fmt.Sprintf("minimum %s exceeds maximum %s", rb.min, rb.max))
		}
	}

	conds := []Condition{Eq("batch_id", batchID)}

	if filter.MinROI != nil {
		conds = append(conds, Gte("roi_percent", *filter.MinROI))
	}
	if filter.MaxROI != nil {
		conds = append(conds, Lte("roi_percent", *filter.MaxROI))
	}
	if filter.MinVelocity != nil {
		conds = append(conds, Gte("velocity_score", *filter.MinVelocity))
	}
	if filter.MaxVelocity != nil {
		conds = append(conds, Lte("velocity_score", *filter.MaxVelocity))
	}
	if filter.MinProfit != nil {
		conds = append(conds, Gte("profit", *filter.MinProfit))
	}
	if filter.MaxProfit != nil {
		conds = append(conds, Lte("profit", *filter.MaxProfit))
	}

	if isbns := domain.NormalizeISBNList(filter.ISBNs); len(isbns) > 0 {
		values := make([]any, len(isbns))
		for i, isbn := range isbns {
			values[i] = isbn
		}
		conds = append(conds, In("isbn_or_asin", values))
	}

	return paginate(ctx, r.db, "analyses", analysisColumns, conds,
		orderClause(sortBy, filter.SortDesc), page, scanAnalysisFromRows)
}

// TopNForBatch returns the best n analyses of a batch under the requested
// strategy. Ties break on id ascending so repeated calls over unchanged data
// return identical slices.
func (r *PgAnalysisRepository) TopNForBatch(ctx context.Context, batchID int64, strategy domain.RankStrategy, n int) ([]domain.Analysis, error) {
	orderCol, ok := strategyOrderColumns[strategy]
	if !ok {
		return nil, domain.NewValidationError("strategy",
			fmt.Sprintf("unknown strategy %q (allowed: roi, velocity, profit, balanced)", strategy))
	}

	if n <= 0 {
		n = defaultTopN
	}
	if n > maxTopN {
		n = maxTopN
	}

	query := fmt.Sprintf(`
		SELECT %s FROM analyses
		WHERE batch_id = $1
		ORDER BY %s DESC, id ASC
		LIMIT $2`, analysisColumns, orderCol)

	rows, err := r.db.Query(ctx, query, batchID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]domain.Analysis, 0, n)
	for rows.Next() {
		a, err := scanAnalysisFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top analyses: %w", err)
	}

	return analyses, nil
}

// CountByThresholds aggregates all five opportunity counts in one statement so
// the figures reflect a single snapshot of the batch.
func (r *PgAnalysisRepository) CountByThresholds(ctx context.Context, batchID int64, t Thresholds) (*domain.OpportunityCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE roi_percent >= $2),
			COUNT(*) FILTER (WHERE velocity_score >= $3),
			COUNT(*) FILTER (WHERE profit >= $4),
			COUNT(*) FILTER (WHERE roi_percent >= $2 AND velocity_score >= $3 AND profit >= $4)
		FROM analyses
		WHERE batch_id = $1`

	var counts domain.OpportunityCounts
	err := r.db.QueryRow(ctx, query, batchID, t.ROI, t.Velocity, t.Profit).Scan(
		&counts.Total,
		&counts.HighROI,
		&counts.HighVelocity,
		&counts.HighProfit,
		&counts.Golden,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}

	return &counts, nil
}

// DeleteByBatch removes every analysis of the batch.
func (r *PgAnalysisRepository) DeleteByBatch(ctx context.Context, batchID int64) (int64, error) {
	result, err := r.db.Exec(ctx, "DELETE FROM analyses WHERE batch_id = $1", batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analyses for batch: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteByIDs removes the analyses with the given IDs. Missing IDs are simply
// not counted; the operation never fails on them.
func (r *PgAnalysisRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM analyses WHERE id IN (%s)", strings.Join(placeholders, ", "))
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete analyses: %w", err)
	}
	return result.RowsAffected(), nil
}

// isSortableAnalysisField reports whether the field is on the sort allow-list.
func isSortableAnalysisField(field string) bool {
	for _, f := range AnalysisSortFields {
		if f == field {
			return true
		}
	}
	return false
}

// analysisScanDest holds the destination pointers for scanning an analysis row.
// This eliminates code duplication between pgx.Row and pgx.Rows scanning.
type analysisScanDest struct {
	analysis  domain.Analysis
	title     *string
	riskLevel *string
	rawKeepa  *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *analysisScanDest) destinations() []any {
	return []any{
		&d.analysis.ID, &d.analysis.BatchID, &d.analysis.ISBNOrASIN, &d.title,
		&d.analysis.CurrentPrice, &d.analysis.TargetPrice, &d.analysis.Profit,
		&d.analysis.ROIPercent, &d.analysis.VelocityScore,
		&d.riskLevel, &d.analysis.BSR, &d.rawKeepa, &d.analysis.CreatedAt,
	}
}

// finalize sets the nullable string fields after scanning.
func (d *analysisScanDest) finalize() domain.Analysis {
	if d.title != nil {
		d.analysis.Title = *d.title
	}
	if d.riskLevel != nil {
		d.analysis.RiskLevel = domain.RiskLevel(*d.riskLevel)
	}
	if d.rawKeepa != nil {
		d.analysis.RawKeepa = *d.rawKeepa
	}
	return d.analysis
}

// scanAnalysis scans a single row into an Analysis.
func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var dest analysisScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	a := dest.finalize()
	return &a, nil
}

// scanAnalysisFromRows scans the current row from pgx.Rows into an Analysis.
func scanAnalysisFromRows(rows pgx.Rows) (domain.Analysis, error) {
	var dest analysisScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return domain.Analysis{}, err
	}
	return dest.finalize(), nil
}

// nullString returns a pointer to the string if non-empty, otherwise nil.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
