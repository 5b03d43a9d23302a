package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

// writeJSON writes a JSON response with the given status code. The status
// line is sent before encoding, so an encode failure cannot be reported to
// the client; it surfaces as a truncated body.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeDomainError maps domain errors to HTTP status codes and writes a JSON
// error response. Typed errors carry enough detail to be surfaced verbatim;
// anything unrecognized becomes an opaque 500 so internals are not leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var sortErr *domain.InvalidSortFieldError
	var transitionErr *domain.InvalidStatusTransitionError
	var dupErr *domain.DuplicateISBNError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &sortErr):
		writeError(w, http.StatusUnprocessableEntity, sortErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusUnprocessableEntity, transitionErr.Error())
	case errors.As(err, &dupErr):
		writeError(w, http.StatusConflict, dupErr.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeValidationError turns validator failures into a 400 with one message
// per failed field. Non-validator errors fall back to a generic message.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed validation on %q", strings.ToLower(fe.Field()), fe.Tag())
	}
	writeError(w, http.StatusBadRequest, strings.Join(msgs, "; "))
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseIDParam parses a positive int64 path parameter, writing a 400 error
// response if invalid.
func parseIDParam(w http.ResponseWriter, raw, fieldName string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", fieldName))
		return 0, false
	}
	return id, true
}

// parsePageRequest extracts page and page_size query parameters. Out-of-range
// values are left to the repository layer to normalize.
func parsePageRequest(r *http.Request) repository.PageRequest {
	req := repository.PageRequest{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.Page = parsed
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			req.PageSize = parsed
		}
	}
	return req
}

// parseDecimalQuery parses an optional decimal query parameter. A missing or
// empty parameter returns (nil, true); a malformed one writes a 400 response.
func parseDecimalQuery(w http.ResponseWriter, r *http.Request, name string) (*decimal.Decimal, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a decimal number", name))
		return nil, false
	}
	return &d, true
}

// deleteCountResponse reports how many rows a bulk delete removed.
type deleteCountResponse struct {
	Deleted int64 `json:"deleted"`
}

// batchResponse is a batch together with its derived progress view.
type batchResponse struct {
	domain.Batch
	Progress domain.BatchProgress `json:"progress"`
}

func newBatchResponse(b *domain.Batch) batchResponse {
	return batchResponse{
		Batch:    *b,
		Progress: b.Progress(),
	}
}

// opportunitiesResponse echoes the thresholds a count was evaluated against
// alongside the counts themselves.
type opportunitiesResponse struct {
	BatchID           int64                     `json:"batch_id"`
	ROIThreshold      decimal.Decimal           `json:"roi_threshold"`
	VelocityThreshold decimal.Decimal           `json:"velocity_threshold"`
	ProfitThreshold   decimal.Decimal           `json:"profit_threshold"`
	Counts            *domain.OpportunityCounts `json:"counts"`
}
