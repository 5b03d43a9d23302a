package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

var userTestColumns = []string{"id", "email", "name", "role", "created_at", "updated_at"}

func TestPgUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and lowercases email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)
		user := &domain.User{
			Email: "  Amadou@Example.COM ",
			Name:  "Amadou",
			Role:  domain.UserRoleSourcer,
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs("amadou@example.com", "Amadou", domain.UserRoleSourcer).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(int64(3), time.Now().UTC(), time.Now().UTC()))

		err = repo.Create(ctx, user)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.Equal(t, "amadou@example.com", user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns already exists on duplicate email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)
		user := &domain.User{Email: "amadou@example.com", Name: "Amadou", Role: domain.UserRoleAdmin}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(user.Email, user.Name, user.Role).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err = repo.Create(ctx, user)

		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown role without touching the store", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		err = repo.Create(ctx, &domain.User{Email: "x@example.com", Role: "owner"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgUserRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns user by id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(userTestColumns).
				AddRow(int64(3), "amadou@example.com", "Amadou", domain.UserRoleSourcer,
					time.Now().UTC(), time.Now().UTC()))

		user, err := repo.Get(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, "amadou@example.com", user.Email)
		assert.Equal(t, domain.UserRoleSourcer, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(404)).
			WillReturnRows(pgxmock.NewRows(userTestColumns))

		_, err = repo.Get(ctx, 404)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns user by normalized email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
			WithArgs("amadou@example.com").
			WillReturnRows(pgxmock.NewRows(userTestColumns).
				AddRow(int64(3), "amadou@example.com", "Amadou", domain.UserRoleAdmin,
					time.Now().UTC(), time.Now().UTC()))

		user, err := repo.GetByEmail(ctx, " Amadou@Example.com ")

		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates mutable fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)
		user := &domain.User{ID: 3, Email: "new@example.com", Name: "Amadou", Role: domain.UserRoleAdmin}

		mock.ExpectQuery("UPDATE users SET").
			WithArgs("new@example.com", "Amadou", domain.UserRoleAdmin, int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now().UTC()))

		err = repo.Update(ctx, user)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)
		user := &domain.User{ID: 404, Email: "x@example.com", Role: domain.UserRoleAdmin}

		mock.ExpectQuery("UPDATE users SET").
			WithArgs("x@example.com", "", domain.UserRoleAdmin, int64(404)).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}))

		err = repo.Update(ctx, user)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgUserRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes user without batches", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses to delete user that still owns batches", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgUserRepository(mock)

		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err = repo.Delete(ctx, 3)

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
