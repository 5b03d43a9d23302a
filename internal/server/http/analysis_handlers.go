package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/observability"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

// createAnalysisRequest is the JSON request body for storing one analysis.
type createAnalysisRequest struct {
	BatchID       int64           `json:"batch_id" validate:"required,gt=0"`
	ISBNOrASIN    string          `json:"isbn_or_asin" validate:"required"`
	Title         string          `json:"title"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	Profit        decimal.Decimal `json:"profit"`
	ROIPercent    decimal.Decimal `json:"roi_percent"`
	VelocityScore decimal.Decimal `json:"velocity_score"`
	RiskLevel     string          `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	BSR           int64           `json:"bsr" validate:"gte=0"`
	RawKeepa      string          `json:"raw_keepa,omitempty"`
}

// deleteAnalysesRequest is the JSON request body for bulk deletion by ID.
type deleteAnalysesRequest struct {
	IDs []int64 `json:"ids"`
}

// createAnalysis handles POST /api/v1/analyses.
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	analysis := &domain.Analysis{
		BatchID:       req.BatchID,
		ISBNOrASIN:    req.ISBNOrASIN,
		Title:         req.Title,
		CurrentPrice:  req.CurrentPrice,
		TargetPrice:   req.TargetPrice,
		Profit:        req.Profit,
		ROIPercent:    req.ROIPercent,
		VelocityScore: req.VelocityScore,
		RiskLevel:     domain.RiskLevel(req.RiskLevel),
		BSR:           req.BSR,
		RawKeepa:      req.RawKeepa,
	}

	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		var dup *domain.DuplicateISBNError
		if errors.As(err, &dup) && s.metrics != nil {
			s.metrics.RecordAnalysisDuplicate()
		}
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordAnalysisCreated()
	}
	analysisLogger := observability.WithAnalysisContext(s.logger, analysis.ID, analysis.ISBNOrASIN)
	analysisLogger.Info().
		Int64("batch_id", analysis.BatchID).
		Msg("analysis stored")
	writeJSON(w, http.StatusCreated, analysis)
}

// getAnalysis handles GET /api/v1/analyses/{analysisID}.
func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "analysisID"), "analysis_id")
	if !ok {
		return
	}

	analysis, err := s.analysisRepo.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// listAnalyses handles GET /api/v1/analyses.
// Filters, sorting, and pagination are all query-driven; batch_id is required.
func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseIDParam(w, r.URL.Query().Get("batch_id"), "batch_id")
	if !ok {
		return
	}

	filter := repository.AnalysisFilter{
		SortBy:   r.URL.Query().Get("sort_by"),
		SortDesc: r.URL.Query().Get("sort_desc") == "true",
	}

	bounds := []struct {
		name string
		dest **decimal.Decimal
	}{
		{"min_roi", &filter.MinROI},
		{"max_roi", &filter.MaxROI},
		{"min_velocity", &filter.MinVelocity},
		{"max_velocity", &filter.MaxVelocity},
		{"min_profit", &filter.MinProfit},
		{"max_profit", &filter.MaxProfit},
	}
	for _, b := range bounds {
		val, ok := parseDecimalQuery(w, r, b.name)
		if !ok {
			return
		}
		*b.dest = val
	}

	if raw := r.URL.Query().Get("isbn_list"); raw != "" {
		filter.ISBNs = strings.Split(raw, ",")
	}

	page, err := s.analysisRepo.ListFiltered(r.Context(), batchID, filter, parsePageRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// topAnalyses handles GET /api/v1/analyses/top.
// Returns the best n analyses of a batch under the requested ranking strategy.
func (s *Server) topAnalyses(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseIDParam(w, r.URL.Query().Get("batch_id"), "batch_id")
	if !ok {
		return
	}

	strategy := domain.StrategyBalanced
	if raw := r.URL.Query().Get("strategy"); raw != "" {
		strategy = domain.RankStrategy(raw)
	}

	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, convErr := strconv.Atoi(raw)
		if convErr != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	start := time.Now()
	analyses, err := s.analysisRepo.TopNForBatch(r.Context(), batchID, strategy, n)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRankingQuery(string(strategy), time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"batch_id": batchID,
		"strategy": strategy,
		"items":    analyses,
	})
}

// countOpportunities handles GET /api/v1/analyses/opportunities.
// Thresholds default to the configured service-wide values; each can be
// overridden per request.
func (s *Server) countOpportunities(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseIDParam(w, r.URL.Query().Get("batch_id"), "batch_id")
	if !ok {
		return
	}

	thresholds := repository.Thresholds{
		ROI:      s.app.ROIThreshold(),
		Velocity: s.app.VelocityThreshold(),
		Profit:   s.app.ProfitThreshold(),
	}
	overrides := []struct {
		name string
		dest *decimal.Decimal
	}{
		{"roi_threshold", &thresholds.ROI},
		{"velocity_threshold", &thresholds.Velocity},
		{"profit_threshold", &thresholds.Profit},
	}
	for _, o := range overrides {
		val, ok := parseDecimalQuery(w, r, o.name)
		if !ok {
			return
		}
		if val != nil {
			*o.dest = *val
		}
	}

	counts, err := s.analysisRepo.CountByThresholds(r.Context(), batchID, thresholds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOpportunityCount()
	}
	writeJSON(w, http.StatusOK, opportunitiesResponse{
		BatchID:           batchID,
		ROIThreshold:      thresholds.ROI,
		VelocityThreshold: thresholds.Velocity,
		ProfitThreshold:   thresholds.Profit,
		Counts:            counts,
	})
}

// deleteAnalyses handles DELETE /api/v1/analyses.
// An empty ID list is a no-op that reports zero deletions.
func (s *Server) deleteAnalyses(w http.ResponseWriter, r *http.Request) {
	var req deleteAnalysesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	deleted, err := s.analysisRepo.DeleteByIDs(r.Context(), req.IDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil && deleted > 0 {
		s.metrics.RecordAnalysesDeleted("ids", deleted)
	}
	writeJSON(w, http.StatusOK, deleteCountResponse{Deleted: deleted})
}

// deleteBatchAnalyses handles DELETE /api/v1/batches/{batchID}/analyses.
// The batch itself survives; only its analyses are removed.
func (s *Server) deleteBatchAnalyses(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseIDParam(w, chi.URLParam(r, "batchID"), "batch_id")
	if !ok {
		return
	}

	// Distinguish "batch has no analyses" from "batch does not exist".
	if _, err := s.batchRepo.Get(r.Context(), batchID); err != nil {
		writeDomainError(w, err)
		return
	}

	deleted, err := s.analysisRepo.DeleteByBatch(r.Context(), batchID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil && deleted > 0 {
		s.metrics.RecordAnalysesDeleted("batch", deleted)
	}
	writeJSON(w, http.StatusOK, deleteCountResponse{Deleted: deleted})
}
