package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/repository"
)

func newRequestWithHeader(method, target, key, value string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(key, value)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("echoes provided request id", func(t *testing.T) {
		batchRepo := &fakeBatchRepo{
			statsFn: func(ctx context.Context) (*domain.BatchStats, error) {
				return &domain.BatchStats{}, nil
			},
		}
		s := newTestServer(&fakeAnalysisRepo{}, batchRepo, &fakeUserRepo{})

		req := newRequestWithHeader(http.MethodGet, "/api/v1/batches/stats", "X-Request-ID", "trace-me-123")
		rec := serve(s, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "trace-me-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generates an id when absent", func(t *testing.T) {
		batchRepo := &fakeBatchRepo{
			statsFn: func(ctx context.Context) (*domain.BatchStats, error) {
				return &domain.BatchStats{}, nil
			},
		}
		s := newTestServer(&fakeAnalysisRepo{}, batchRepo, &fakeUserRepo{})

		rec := doRequest(s, http.MethodGet, "/api/v1/batches/stats", "")

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestJSONContentType(t *testing.T) {
	batchRepo := &fakeBatchRepo{
		statsFn: func(ctx context.Context) (*domain.BatchStats, error) {
			return &domain.BatchStats{}, nil
		},
	}
	s := newTestServer(&fakeAnalysisRepo{}, batchRepo, &fakeUserRepo{})

	rec := doRequest(s, http.MethodGet, "/api/v1/batches/stats", "")

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(&fakeAnalysisRepo{}, &fakeBatchRepo{}, &fakeUserRepo{})

	// Body exceeds the 1 MB cap, so decoding fails before any repo call.
	huge := `{"name":"` + strings.Repeat("x", 2<<20) + `","created_by":3}`
	rec := doRequest(s, http.MethodPost, "/api/v1/batches", huge)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	s := newTestServer(&fakeAnalysisRepo{}, &fakeBatchRepo{}, &fakeUserRepo{})

	rec := doRequest(s, http.MethodPost, "/api/v1/batches", `{"name":"x","created_by":3,"surprise":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPageRequestParsing(t *testing.T) {
	var gotPage repository.PageRequest
	userRepo := &fakeUserRepo{
		listFn: func(ctx context.Context, page repository.PageRequest) (repository.Page[domain.User], error) {
			gotPage = page
			return repository.NewPage[domain.User](nil, page, 0), nil
		},
	}
	s := newTestServer(&fakeAnalysisRepo{}, &fakeBatchRepo{}, userRepo)

	rec := doRequest(s, http.MethodGet, "/api/v1/users?page=3&page_size=20", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotPage.Page)
	assert.Equal(t, 20, gotPage.PageSize)
}
