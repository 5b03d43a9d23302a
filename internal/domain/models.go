// Package domain provides domain models and business logic for the
// ArbitrageVault BookFinder service.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole represents the role assigned to a user account.
// These values must match the database enum user_role.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleSourcer UserRole = "sourcer"
)

// IsValid reports whether the role is a known value.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleSourcer:
		return true
	default:
		return false
	}
}

// BatchStatus represents the lifecycle states of an analysis batch.
// These values must match the database enum batch_status.
type BatchStatus string

const (
	BatchStatusPending BatchStatus = "PENDING"
	BatchStatusRunning BatchStatus = "RUNNING"
	BatchStatusDone    BatchStatus = "DONE"
	BatchStatusFailed  BatchStatus = "FAILED"
)

// validBatchTransitions defines the allowed batch status transitions.
// FAILED -> PENDING is the only way out of a terminal-looking state; it
// restarts the batch.
var validBatchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusPending: {BatchStatusRunning},
	BatchStatusRunning: {BatchStatusDone, BatchStatusFailed},
	BatchStatusFailed:  {BatchStatusPending},
}

// IsValid reports whether the status is a known value.
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusRunning, BatchStatusDone, BatchStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is final. FAILED is deliberately not
// terminal: a failed batch may be restarted.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusDone
}

// CanTransitionTo reports whether the state machine allows moving from s to
// the requested status.
func (s BatchStatus) CanTransitionTo(to BatchStatus) bool {
	for _, allowed := range validBatchTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RankStrategy selects the ordering used when ranking analyses in a batch.
type RankStrategy string

const (
	StrategyROI      RankStrategy = "roi"
	StrategyVelocity RankStrategy = "velocity"
	StrategyProfit   RankStrategy = "profit"
	StrategyBalanced RankStrategy = "balanced"
)

// IsValid reports whether the strategy is a known value.
func (s RankStrategy) IsValid() bool {
	switch s {
	case StrategyROI, StrategyVelocity, StrategyProfit, StrategyBalanced:
		return true
	default:
		return false
	}
}

// Balanced strategy weighting. These are fixed policy constants; changing them
// changes historical ranking reproducibility, so they are not configurable.
var (
	BalancedROIWeight      = decimal.RequireFromString("0.6")
	BalancedVelocityWeight = decimal.RequireFromString("0.4")
)

// RiskLevel classifies the sourcing risk of an analysis.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// User is an operator account. Users are referenced by batches and must not
// be deleted while any batch points at them.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StrategySnapshot captures the scoring configuration in effect when a batch
// was created. Stored as JSONB so historical batches keep the thresholds they
// were evaluated against even if defaults change later.
type StrategySnapshot struct {
	// Strategy is the ranking strategy selected for the batch.
	Strategy RankStrategy `json:"strategy"`

	// ROIThreshold is the minimum ROI percent for a high-ROI opportunity.
	ROIThreshold decimal.Decimal `json:"roi_threshold"`

	// VelocityThreshold is the minimum velocity score for a high-velocity opportunity.
	VelocityThreshold decimal.Decimal `json:"velocity_threshold"`

	// ProfitThreshold is the minimum net profit for a high-profit opportunity.
	ProfitThreshold decimal.Decimal `json:"profit_threshold"`
}

// Batch is a named unit of analysis work. A batch owns its analyses
// exclusively; deleting a batch cascades to them.
type Batch struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Status BatchStatus `json:"status"`

	// CreatedBy references the user that created the batch.
	CreatedBy int64 `json:"created_by"`

	// ItemsTotal is the number of identifiers submitted for this batch.
	ItemsTotal int `json:"items_total"`

	// ItemsProcessed is the number of identifiers evaluated so far.
	ItemsProcessed int `json:"items_processed"`

	// StrategySnapshot is the scoring configuration at batch creation time.
	StrategySnapshot StrategySnapshot `json:"strategy_snapshot"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// BatchProgress is a derived, read-only view of batch completion.
type BatchProgress struct {
	// ProgressPercent is items_processed / items_total * 100, rounded to one
	// decimal place. Zero when the batch has no items.
	ProgressPercent decimal.Decimal `json:"progress_percent"`

	// ItemsRemaining is the number of identifiers still to evaluate, never negative.
	ItemsRemaining int `json:"items_remaining"`
}

// Progress derives the completion metrics for the batch. It never divides by
// zero: an empty batch reports zero percent.
func (b *Batch) Progress() BatchProgress {
	remaining := b.ItemsTotal - b.ItemsProcessed
	if remaining < 0 {
		remaining = 0
	}

	percent := decimal.Zero
	if b.ItemsTotal > 0 {
		percent = decimal.NewFromInt(int64(b.ItemsProcessed)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(b.ItemsTotal))).
			Round(1)
	}

	return BatchProgress{
		ProgressPercent: percent,
		ItemsRemaining:  remaining,
	}
}

// Analysis is one evaluated identifier within a batch. Analyses are immutable
// once written; the only delete paths are batch-scoped or id-list bulk deletes.
// The pair (BatchID, ISBNOrASIN) is unique within the store.
type Analysis struct {
	ID      int64 `json:"id"`
	BatchID int64 `json:"batch_id"`

	// ISBNOrASIN is the normalized (trimmed, uppercased) book identifier.
	ISBNOrASIN string `json:"isbn_or_asin"`

	Title string `json:"title,omitempty"`

	// Monetary and scoring fields are fixed-point decimals; float arithmetic
	// would make rankings platform-dependent.
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	Profit        decimal.Decimal `json:"profit"`
	ROIPercent    decimal.Decimal `json:"roi_percent"`
	VelocityScore decimal.Decimal `json:"velocity_score"`

	RiskLevel RiskLevel `json:"risk_level,omitempty"`

	// BSR is the best-seller rank; lower values sell faster.
	BSR int64 `json:"bsr"`

	// RawKeepa is the opaque marketplace payload the metrics were derived
	// from, kept verbatim for audit and re-scoring.
	RawKeepa string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// BalancedScore computes the composite ranking score
// 0.6*roi_percent + 0.4*velocity_score using decimal arithmetic end-to-end.
func (a *Analysis) BalancedScore() decimal.Decimal {
	return a.ROIPercent.Mul(BalancedROIWeight).Add(a.VelocityScore.Mul(BalancedVelocityWeight))
}

// OpportunityCounts holds the threshold aggregation over one batch. All five
// figures come from a single snapshot of the data.
type OpportunityCounts struct {
	// Total is the number of analyses in the batch.
	Total int64 `json:"total"`

	// HighROI counts analyses with roi_percent >= the ROI threshold.
	HighROI int64 `json:"high_roi"`

	// HighVelocity counts analyses with velocity_score >= the velocity threshold.
	HighVelocity int64 `json:"high_velocity"`

	// HighProfit counts analyses with profit >= the profit threshold.
	HighProfit int64 `json:"high_profit"`

	// Golden counts analyses meeting all three thresholds simultaneously.
	Golden int64 `json:"golden"`
}

// BatchStats is a service-wide rollup of batch and analysis counts.
type BatchStats struct {
	BatchesByStatus map[BatchStatus]int64 `json:"batches_by_status"`
	TotalBatches    int64                 `json:"total_batches"`
	TotalAnalyses   int64                 `json:"total_analyses"`
	RunningBatches  int64                 `json:"running_batches"`
	LatestBatchID   *int64                `json:"latest_batch_id,omitempty"`
	LatestBatchAt   *time.Time            `json:"latest_batch_created,omitempty"`
}
