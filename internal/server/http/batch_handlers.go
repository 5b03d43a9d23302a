package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/observability"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

// createBatchRequest is the JSON request body for creating a batch. Threshold
// overrides are decimal strings; missing values take the configured defaults.
type createBatchRequest struct {
	Name              string `json:"name" validate:"required,max=200"`
	CreatedBy         int64  `json:"created_by" validate:"required,gt=0"`
	ItemsTotal        int    `json:"items_total" validate:"gte=0"`
	Strategy          string `json:"strategy" validate:"omitempty,oneof=roi velocity profit balanced"`
	ROIThreshold      string `json:"roi_threshold,omitempty"`
	VelocityThreshold string `json:"velocity_threshold,omitempty"`
	ProfitThreshold   string `json:"profit_threshold,omitempty"`
}

// updateBatchStatusRequest is the JSON request body for a status transition.
type updateBatchStatusRequest struct {
	Status         string `json:"status" validate:"required,oneof=PENDING RUNNING DONE FAILED"`
	ItemsProcessed *int   `json:"items_processed,omitempty" validate:"omitempty,gte=0"`
}

// transitionSource maps each reachable status to the only state it can be
// entered from. Used to label the transition metric without a pre-read.
var transitionSource = map[domain.BatchStatus]domain.BatchStatus{
	domain.BatchStatusRunning: domain.BatchStatusPending,
	domain.BatchStatusDone:    domain.BatchStatusRunning,
	domain.BatchStatusFailed:  domain.BatchStatusRunning,
	domain.BatchStatusPending: domain.BatchStatusFailed,
}

// createBatch handles POST /api/v1/batches.
// The strategy snapshot is frozen at creation time from the configured
// defaults plus any per-request overrides.
func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	snapshot := domain.StrategySnapshot{
		Strategy:          domain.StrategyBalanced,
		ROIThreshold:      s.app.ROIThreshold(),
		VelocityThreshold: s.app.VelocityThreshold(),
		ProfitThreshold:   s.app.ProfitThreshold(),
	}
	if req.Strategy != "" {
		snapshot.Strategy = domain.RankStrategy(req.Strategy)
	}
	overrides := []struct {
		name string
		raw  string
		dest *decimal.Decimal
	}{
		{"roi_threshold", req.ROIThreshold, &snapshot.ROIThreshold},
		{"velocity_threshold", req.VelocityThreshold, &snapshot.VelocityThreshold},
		{"profit_threshold", req.ProfitThreshold, &snapshot.ProfitThreshold},
	}
	for _, o := range overrides {
		if o.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(o.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, o.name+" must be a decimal number")
			return
		}
		*o.dest = d
	}

	batch := &domain.Batch{
		Name:             strings.TrimSpace(req.Name),
		CreatedBy:        req.CreatedBy,
		ItemsTotal:       req.ItemsTotal,
		StrategySnapshot: snapshot,
	}

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordBatchCreated()
	}
	batchLogger := observability.WithBatchContext(s.logger, batch.ID)
	batchLogger.Info().
		Str("name", batch.Name).
		Int("items_total", batch.ItemsTotal).
		Msg("batch created")
	writeJSON(w, http.StatusCreated, newBatchResponse(batch))
}

// getBatch handles GET /api/v1/batches/{batchID}.
func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "batchID"), "batch_id")
	if !ok {
		return
	}

	batch, err := s.batchRepo.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBatchResponse(batch))
}

// listBatches handles GET /api/v1/batches.
func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	filter := repository.BatchFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, domain.BatchStatus(strings.TrimSpace(part)))
		}
	}
	if raw := r.URL.Query().Get("created_by"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "created_by must be a positive integer")
			return
		}
		filter.CreatedBy = &id
	}

	page, err := s.batchRepo.List(r.Context(), filter, parsePageRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]batchResponse, len(page.Items))
	for i := range page.Items {
		items[i] = newBatchResponse(&page.Items[i])
	}
	writeJSON(w, http.StatusOK, repository.Page[batchResponse]{
		Items:    items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		Pages:    page.Pages,
		HasNext:  page.HasNext,
		HasPrev:  page.HasPrev,
	})
}

// updateBatchStatus handles PATCH /api/v1/batches/{batchID}/status.
func (s *Server) updateBatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "batchID"), "batch_id")
	if !ok {
		return
	}

	var req updateBatchStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	update := repository.StatusUpdate{
		Status:         domain.BatchStatus(req.Status),
		ItemsProcessed: req.ItemsProcessed,
	}

	batch, err := s.batchRepo.UpdateStatus(r.Context(), id, update)
	if err != nil {
		if s.metrics != nil {
			var transitionErr *domain.InvalidStatusTransitionError
			if errors.As(err, &transitionErr) {
				s.metrics.RecordBatchTransitionRejected()
			}
		}
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		from := transitionSource[batch.Status]
		s.metrics.RecordBatchTransition(string(from), string(batch.Status))
	}
	statusLogger := observability.WithBatchContext(s.logger, batch.ID)
	statusLogger.Info().
		Str("status", string(batch.Status)).
		Int("items_processed", batch.ItemsProcessed).
		Msg("batch status updated")
	writeJSON(w, http.StatusOK, newBatchResponse(batch))
}

// deleteBatch handles DELETE /api/v1/batches/{batchID}.
// Deleting a batch cascades to its analyses.
func (s *Server) deleteBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "batchID"), "batch_id")
	if !ok {
		return
	}

	if err := s.batchRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batchStats handles GET /api/v1/batches/stats.
func (s *Server) batchStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.batchRepo.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
