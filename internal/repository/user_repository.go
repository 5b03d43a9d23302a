package repository

import (
	"context"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

// UserRepository manages operator accounts.
type UserRepository interface {
	// Create inserts a new user and sets its generated ID and timestamps.
	// A duplicate email returns ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves one user by ID.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves one user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users ordered by creation time.
	List(ctx context.Context, page PageRequest) (Page[domain.User], error)

	// Update changes a user's name, email, or role.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user. Users still referenced by batches cannot be
	// deleted; the foreign key restriction surfaces as a validation error.
	Delete(ctx context.Context, id int64) error
}
