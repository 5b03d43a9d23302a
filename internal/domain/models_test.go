package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBatchStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from BatchStatus
		to   BatchStatus
		want bool
	}{
		{"pending to running", BatchStatusPending, BatchStatusRunning, true},
		{"running to done", BatchStatusRunning, BatchStatusDone, true},
		{"running to failed", BatchStatusRunning, BatchStatusFailed, true},
		{"failed to pending restarts", BatchStatusFailed, BatchStatusPending, true},
		{"pending to done skips running", BatchStatusPending, BatchStatusDone, false},
		{"pending to failed", BatchStatusPending, BatchStatusFailed, false},
		{"done to running", BatchStatusDone, BatchStatusRunning, false},
		{"done to pending", BatchStatusDone, BatchStatusPending, false},
		{"done to failed", BatchStatusDone, BatchStatusFailed, false},
		{"failed to running", BatchStatusFailed, BatchStatusRunning, false},
		{"running to pending", BatchStatusRunning, BatchStatusPending, false},
		{"self transition rejected", BatchStatusRunning, BatchStatusRunning, false},
		{"unknown status", BatchStatus("ARCHIVED"), BatchStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBatchStatusIsTerminal(t *testing.T) {
	assert.True(t, BatchStatusDone.IsTerminal())
	assert.False(t, BatchStatusFailed.IsTerminal(), "failed batches can be restarted")
	assert.False(t, BatchStatusPending.IsTerminal())
	assert.False(t, BatchStatusRunning.IsTerminal())
}

func TestBatchStatusIsValid(t *testing.T) {
	for _, s := range []BatchStatus{BatchStatusPending, BatchStatusRunning, BatchStatusDone, BatchStatusFailed} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, BatchStatus("pending").IsValid(), "status values are case sensitive")
	assert.False(t, BatchStatus("").IsValid())
}

func TestRankStrategyIsValid(t *testing.T) {
	for _, s := range []RankStrategy{StrategyROI, StrategyVelocity, StrategyProfit, StrategyBalanced} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, RankStrategy("bsr").IsValid())
	assert.False(t, RankStrategy("").IsValid())
}

func TestBatchProgress(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		processed     int
		wantPercent   string
		wantRemaining int
	}{
		{"empty batch reports zero", 0, 0, "0", 0},
		{"untouched batch", 100, 0, "0", 100},
		{"halfway", 100, 50, "50", 50},
		{"complete", 100, 100, "100", 0},
		{"fractional percent rounds to one decimal", 3, 1, "33.3", 2},
		{"two thirds", 3, 2, "66.7", 1},
		{"overcount clamps remaining", 10, 12, "120", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Batch{ItemsTotal: tt.total, ItemsProcessed: tt.processed}
			p := b.Progress()
			assert.True(t, p.ProgressPercent.Equal(decimal.RequireFromString(tt.wantPercent)),
				"got %s, want %s", p.ProgressPercent, tt.wantPercent)
			assert.Equal(t, tt.wantRemaining, p.ItemsRemaining)
		})
	}
}

func TestAnalysisBalancedScore(t *testing.T) {
	a := &Analysis{
		ROIPercent:    decimal.RequireFromString("40"),
		VelocityScore: decimal.RequireFromString("85"),
	}
	// 40*0.6 + 85*0.4 = 24 + 34 = 58
	assert.True(t, a.BalancedScore().Equal(decimal.RequireFromString("58")))
}

func TestAnalysisBalancedScoreDominance(t *testing.T) {
	// If one analysis beats another on both roi and velocity, it must also win
	// on the balanced composite.
	better := &Analysis{
		ROIPercent:    decimal.RequireFromString("52.5"),
		VelocityScore: decimal.RequireFromString("71.2"),
	}
	worse := &Analysis{
		ROIPercent:    decimal.RequireFromString("52.4"),
		VelocityScore: decimal.RequireFromString("71.1"),
	}
	assert.True(t, better.BalancedScore().GreaterThan(worse.BalancedScore()))
}

func TestBatchProgressTimestamps(t *testing.T) {
	now := time.Now()
	b := &Batch{
		Status:    BatchStatusRunning,
		StartedAt: &now,
	}
	assert.Nil(t, b.FinishedAt)
	assert.NotNil(t, b.StartedAt)
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  978-0134190440  ", "978-0134190440"},
		{"b00exyzasd", "B00EXYZASD"},
		{"\t9780134190440\n", "9780134190440"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeISBN(tt.in), tt.in)
	}
}

func TestNormalizeISBNList(t *testing.T) {
	got := NormalizeISBNList([]string{" b001 ", "B001", "b002", "", "  ", "B001"})
	assert.Equal(t, []string{"B001", "B002"}, got)

	assert.Nil(t, NormalizeISBNList(nil))
	assert.Nil(t, NormalizeISBNList([]string{"", "  "}))
}
