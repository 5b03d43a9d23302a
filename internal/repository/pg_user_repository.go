package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

const userColumns = "id, email, name, role, created_at, updated_at"

// Compile-time interface verification.
var _ UserRepository = (*PgUserRepository)(nil)

// PgUserRepository is a PostgreSQL implementation of UserRepository.
type PgUserRepository struct {
	db DBTX
}

// NewPgUserRepository creates a new PostgreSQL user repository.
func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// Create inserts a new user.
func (r *PgUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.NewValidationError("user", "user cannot be nil")
	}
	if user.Email == "" {
		return domain.NewValidationError("email", "email is required")
	}
	if !user.Role.IsValid() {
		return domain.NewValidationError("role",
			fmt.Sprintf("unknown role %q (allowed: admin, sourcer)", user.Role))
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	query := `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, user.Email, user.Name, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID.
func (r *PgUserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	return r.getOne(ctx, query, strconv.FormatInt(id, 10), id)
}

// GetByEmail retrieves a user by email.
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	return r.getOne(ctx, query, email, email)
}

func (r *PgUserRepository) getOne(ctx context.Context, query, label string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user", label)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// List returns one page of users, oldest first.
func (r *PgUserRepository) List(ctx context.Context, page PageRequest) (Page[domain.User], error) {
	return paginate(ctx, r.db, "users", userColumns, nil,
		orderClause("created_at", false), page, scanUserFromRows)
}

// Update changes a user's mutable fields.
func (r *PgUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.NewValidationError("user", "user cannot be nil")
	}
	if user.ID == 0 {
		return domain.NewValidationError("id", "user ID is required")
	}
	if !user.Role.IsValid() {
		return domain.NewValidationError("role",
			fmt.Sprintf("unknown role %q (allowed: admin, sourcer)", user.Role))
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	query := `
		UPDATE users SET email = $1, name = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, user.Email, user.Name, user.Role, user.ID).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFoundError("user", strconv.FormatInt(user.ID, 10))
		}
		if isPgUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete removes a user unless batches still reference it.
func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return domain.NewValidationError("id", "user still owns batches and cannot be deleted")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("user", strconv.FormatInt(id, 10))
	}
	return nil
}

// scanUserFromRows scans the current row from pgx.Rows into a User.
func scanUserFromRows(rows pgx.Rows) (domain.User, error) {
	var user domain.User
	err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
