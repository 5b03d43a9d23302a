package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero value gets defaults", PageRequest{}, 1, DefaultPageSize},
		{"negative page clamps to 1", PageRequest{Page: -3, PageSize: 20}, 1, 20},
		{"oversized page size clamps to max", PageRequest{Page: 2, PageSize: 5000}, 2, MaxPageSize},
		{"valid request unchanged", PageRequest{Page: 4, PageSize: 25}, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPageSize, got.PageSize)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PageSize: 50}.offset())
	assert.Equal(t, 50, PageRequest{Page: 2, PageSize: 50}.offset())
	assert.Equal(t, 90, PageRequest{Page: 10, PageSize: 10}.offset())
}

func TestNewPageEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		req       PageRequest
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty result", 0, PageRequest{Page: 1, PageSize: 50}, 0, 0, false, false},
		{"single partial page", 3, PageRequest{Page: 1, PageSize: 50}, 3, 1, false, false},
		{"first of many", 50, PageRequest{Page: 1, PageSize: 50}, 120, 3, true, false},
		{"middle page", 50, PageRequest{Page: 2, PageSize: 50}, 120, 3, true, true},
		{"last page", 20, PageRequest{Page: 3, PageSize: 50}, 120, 3, false, true},
		{"exact multiple", 50, PageRequest{Page: 2, PageSize: 50}, 100, 2, false, true},
		{"page beyond data", 0, PageRequest{Page: 9, PageSize: 50}, 120, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			page := NewPage(items, tt.req, tt.total)
			assert.Equal(t, tt.wantPages, page.Pages)
			assert.Equal(t, tt.wantNext, page.HasNext)
			assert.Equal(t, tt.wantPrev, page.HasPrev)
			assert.Equal(t, tt.total, page.Total)
			assert.Len(t, page.Items, tt.items)
		})
	}
}

func TestNewPageNilItems(t *testing.T) {
	page := NewPage[int](nil, PageRequest{}, 0)
	assert.NotNil(t, page.Items, "items must serialize as [] not null")
}

func TestWhereClause(t *testing.T) {
	t.Run("empty renders TRUE", func(t *testing.T) {
		var args []any
		where, next := whereClause(nil, &args, 1)
		assert.Equal(t, "TRUE", where)
		assert.Equal(t, 1, next)
		assert.Empty(t, args)
	})

	t.Run("scalar operators", func(t *testing.T) {
		var args []any
		conds := []Condition{
			Eq("batch_id", int64(7)),
			Gte("roi_percent", "20"),
			Lt("bsr", 100000),
		}
		where, next := whereClause(conds, &args, 1)
		assert.Equal(t, "batch_id = $1 AND roi_percent >= $2 AND bsr < $3", where)
		assert.Equal(t, 4, next)
		assert.Equal(t, []any{int64(7), "20", 100000}, args)
	})

	t.Run("in expands placeholders", func(t *testing.T) {
		var args []any
		conds := []Condition{
			Eq("batch_id", int64(7)),
			In("isbn_or_asin", []any{"A", "B"}),
		}
		where, next := whereClause(conds, &args, 1)
		assert.Equal(t, "batch_id = $1 AND isbn_or_asin IN ($2, $3)", where)
		assert.Equal(t, 4, next)
	})

	t.Run("empty in matches nothing", func(t *testing.T) {
		var args []any
		where, _ := whereClause([]Condition{In("id", nil)}, &args, 1)
		assert.Equal(t, "FALSE", where)
	})

	t.Run("continues numbering from argIndex", func(t *testing.T) {
		args := []any{int64(1)}
		where, next := whereClause([]Condition{Gt("profit", "0")}, &args, 2)
		assert.Equal(t, "profit > $2", where)
		assert.Equal(t, 3, next)
	})
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "roi_percent DESC, id ASC", orderClause("roi_percent", true))
	assert.Equal(t, "created_at ASC, id ASC", orderClause("created_at", false))
	assert.Equal(t, "id ASC", orderClause("id", false))
	assert.Equal(t, "id DESC", orderClause("id", true))
}
