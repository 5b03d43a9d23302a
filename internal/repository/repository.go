// Package repository provides data access interfaces and implementations
// for the ArbitrageVault BookFinder service.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL implementations
// following the repository pattern to abstract data persistence from business logic.
//
// # Repository Interfaces
//
//   - AnalysisRepository: Manages book analysis persistence, filtering, and ranking
//   - BatchRepository: Manages batch lifecycle, status transitions, and progress
//   - UserRepository: Manages operator accounts
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple goroutines.
// The underlying pgxpool handles connection pooling and synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Wrap database errors with context using fmt.Errorf with %w verb.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrAlreadyExists: Unique constraint violation
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Use the DBTX interface to support both pool and transaction contexts.
// Pass a transaction from database.DB.WithTransaction for atomic operations.
//
// # Usage Pattern
//
// Repositories are typically created at application startup and passed to handlers:
//
//	db, _ := database.New(ctx, cfg, logger)
//	analysisRepo := repository.NewPgAnalysisRepository(db)
//	batchRepo := repository.NewPgBatchRepository(db)
//	userRepo := repository.NewPgUserRepository(db)
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// Repository constructors accept DBTX so the same implementation works against
// a connection pool, an open pgx.Tx, or a mock in tests.
type DBTX = database.DBTX

// txBeginner is implemented by types that can begin a transaction, such as
// *pgxpool.Pool and *database.DB. Used to automatically wrap
// SELECT FOR UPDATE sequences in a transaction when the repository holds a
// pool rather than an existing transaction.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgreSQL error codes used for constraint violation detection.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
)

// isPgUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// isPgForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func isPgForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

// Pagination defaults and limits.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// PageRequest describes one requested page. Zero values select the defaults.
type PageRequest struct {
	Page     int
	PageSize int
}

// normalize clamps the request into valid bounds: page >= 1,
// page size in [1, MaxPageSize] with the default applied when unset.
func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// offset returns the OFFSET value for the normalized request.
func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results plus the pagination envelope.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
}

// NewPage assembles the pagination envelope from a normalized request and the
// total match count. Pages is ceil(total/page_size), zero for an empty result.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	req = req.normalize()

	pages := 0
	if total > 0 {
		pages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
		Pages:    pages,
		HasNext:  req.Page < pages,
		HasPrev:  req.Page > 1 && total > 0,
	}
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpIn  Op = "IN"
	OpGte Op = ">="
	OpLte Op = "<="
	OpGt  Op = ">"
	OpLt  Op = "<"
)

// Condition is a single column comparison in a WHERE clause. Column names are
// never taken from user input; callers pass identifiers from their own
// allow-lists.
type Condition struct {
	Column string
	Op     Op
	Value  any    // scalar operators
	Values []any  // OpIn
}

// Eq builds an equality condition.
func Eq(column string, value any) Condition { return Condition{Column: column, Op: OpEq, Value: value} }

// In builds a set-membership condition.
func In(column string, values []any) Condition {
	return Condition{Column: column, Op: OpIn, Values: values}
}

// Gte builds a greater-or-equal condition.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Op: OpGte, Value: value}
}

// Lte builds a less-or-equal condition.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Op: OpLte, Value: value}
}

// Gt builds a strictly-greater condition.
func Gt(column string, value any) Condition { return Condition{Column: column, Op: OpGt, Value: value} }

// Lt builds a strictly-less condition.
func Lt(column string, value any) Condition { return Condition{Column: column, Op: OpLt, Value: value} }

// whereClause renders conditions to "col op $n" fragments joined with AND,
// appending values to args. argIndex is the next positional parameter number;
// the updated index is returned. An empty condition list renders to "TRUE" so
// callers can always interpolate the result after WHERE.
func whereClause(conds []Condition, args *[]any, argIndex int) (string, int) {
	if len(conds) == 0 {
		return "TRUE", argIndex
	}

	fragments := make([]string, 0, len(conds))
	for _, c := range conds {
		switch c.Op {
		case OpIn:
			if len(c.Values) == 0 {
				// IN over the empty set matches nothing.
				fragments = append(fragments, "FALSE")
				continue
			}
			placeholders := make([]string, len(c.Values))
			for i, v := range c.Values {
				placeholders[i] = fmt.Sprintf("$%d", argIndex)
				*args = append(*args, v)
				argIndex++
			}
			fragments = append(fragments, fmt.Sprintf("%s IN (%s)", c.Column, strings.Join(placeholders, ", ")))
		default:
			fragments = append(fragments, fmt.Sprintf("%s %s $%d", c.Column, c.Op, argIndex))
			*args = append(*args, c.Value)
			argIndex++
		}
	}

	return strings.Join(fragments, " AND "), argIndex
}

// orderClause renders an ORDER BY expression with the mandatory id ASC
// tie-break. column must come from a sort allow-list; desc selects direction.
// The tie-break keeps pagination stable when metric values collide.
func orderClause(column string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if column == "id" {
		return fmt.Sprintf("id %s", dir)
	}
	return fmt.Sprintf("%s %s, id ASC", column, dir)
}

// paginate runs the count query and the select query for one page over the
// given table. scan maps the current row to T. Both queries share the WHERE
// clause and args so the envelope totals match the returned items.
func paginate[T any](
	ctx context.Context,
	db DBTX,
	table string,
	columns string,
	conds []Condition,
	orderBy string,
	req PageRequest,
	scan func(rows pgx.Rows) (T, error),
) (Page[T], error) {
	req = req.normalize()

	var args []any
	where, argIndex := whereClause(conds, &args, 1)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	var total int64
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page[T]{}, fmt.Errorf("failed to count %s: %w", table, err)
	}

	selectQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		columns, table, where, orderBy, argIndex, argIndex+1,
	)
	args = append(args, req.PageSize, req.offset())

	rows, err := db.Query(ctx, selectQuery, args...)
	if err != nil {
		return Page[T]{}, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]T, 0, req.PageSize)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return Page[T]{}, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Page[T]{}, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return NewPage(items, req, total), nil
}
