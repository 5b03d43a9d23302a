package httpserver

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/config"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/observability"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

// Function-backed fakes for the repository interfaces. Tests set only the
// functions a handler is expected to call; an unexpected call panics on the
// nil function, which is the failure we want.

type fakeAnalysisRepo struct {
	createFn            func(ctx context.Context, analysis *domain.Analysis) error
	getFn               func(ctx context.Context, id int64) (*domain.Analysis, error)
	listFilteredFn      func(ctx context.Context, batchID int64, filter repository.AnalysisFilter, page repository.PageRequest) (repository.Page[domain.Analysis], error)
	topNForBatchFn      func(ctx context.Context, batchID int64, strategy domain.RankStrategy, n int) ([]domain.Analysis, error)
	countByThresholdsFn func(ctx context.Context, batchID int64, t repository.Thresholds) (*domain.OpportunityCounts, error)
	deleteByBatchFn     func(ctx context.Context, batchID int64) (int64, error)
	deleteByIDsFn       func(ctx context.Context, ids []int64) (int64, error)
}

func (f *fakeAnalysisRepo) Create(ctx context.Context, analysis *domain.Analysis) error {
	return f.createFn(ctx, analysis)
}

func (f *fakeAnalysisRepo) Get(ctx context.Context, id int64) (*domain.Analysis, error) {
	return f.getFn(ctx, id)
}

func (f *fakeAnalysisRepo) ListFiltered(ctx context.Context, batchID int64, filter repository.AnalysisFilter, page repository.PageRequest) (repository.Page[domain.Analysis], error) {
	return f.listFilteredFn(ctx, batchID, filter, page)
}

func (f *fakeAnalysisRepo) TopNForBatch(ctx context.Context, batchID int64, strategy domain.RankStrategy, n int) ([]domain.Analysis, error) {
	return f.topNForBatchFn(ctx, batchID, strategy, n)
}

func (f *fakeAnalysisRepo) CountByThresholds(ctx context.Context, batchID int64, t repository.Thresholds) (*domain.OpportunityCounts, error) {
	return f.countByThresholdsFn(ctx, batchID, t)
}

func (f *fakeAnalysisRepo) DeleteByBatch(ctx context.Context, batchID int64) (int64, error) {
	return f.deleteByBatchFn(ctx, batchID)
}

func (f *fakeAnalysisRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	return f.deleteByIDsFn(ctx, ids)
}

type fakeBatchRepo struct {
	createFn       func(ctx context.Context, batch *domain.Batch) error
	getFn          func(ctx context.Context, id int64) (*domain.Batch, error)
	listFn         func(ctx context.Context, filter repository.BatchFilter, page repository.PageRequest) (repository.Page[domain.Batch], error)
	updateStatusFn func(ctx context.Context, id int64, update repository.StatusUpdate) (*domain.Batch, error)
	deleteFn       func(ctx context.Context, id int64) error
	statsFn        func(ctx context.Context) (*domain.BatchStats, error)
}

func (f *fakeBatchRepo) Create(ctx context.Context, batch *domain.Batch) error {
	return f.createFn(ctx, batch)
}

func (f *fakeBatchRepo) Get(ctx context.Context, id int64) (*domain.Batch, error) {
	return f.getFn(ctx, id)
}

func (f *fakeBatchRepo) List(ctx context.Context, filter repository.BatchFilter, page repository.PageRequest) (repository.Page[domain.Batch], error) {
	return f.listFn(ctx, filter, page)
}

func (f *fakeBatchRepo) UpdateStatus(ctx context.Context, id int64, update repository.StatusUpdate) (*domain.Batch, error) {
	return f.updateStatusFn(ctx, id, update)
}

func (f *fakeBatchRepo) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeBatchRepo) Stats(ctx context.Context) (*domain.BatchStats, error) {
	return f.statsFn(ctx)
}

type fakeUserRepo struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getFn        func(ctx context.Context, id int64) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	listFn       func(ctx context.Context, page repository.PageRequest) (repository.Page[domain.User], error)
	updateFn     func(ctx context.Context, user *domain.User) error
	deleteFn     func(ctx context.Context, id int64) error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	return f.getFn(ctx, id)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepo) List(ctx context.Context, page repository.PageRequest) (repository.Page[domain.User], error) {
	return f.listFn(ctx, page)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	return f.updateFn(ctx, user)
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

// newTestServer builds a Server wired to the given fakes. Metrics are nil so
// tests never touch the global Prometheus registry.
func newTestServer(analysisRepo repository.AnalysisRepository, batchRepo repository.BatchRepository, userRepo repository.UserRepository) *Server {
	app := config.AppConfig{
		DefaultROIThreshold:      "20.0",
		DefaultVelocityThreshold: "50.0",
		DefaultProfitThreshold:   "10.0",
	}
	logger := observability.NewLogger(observability.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	return NewServer(
		Config{Address: "127.0.0.1:0", MaxBodyBytes: 1 << 20},
		analysisRepo, batchRepo, userRepo,
		nil, app, nil, logger,
	)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
