package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

func TestUsersRepo_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "inserts normalized email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", "hash", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation is a duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", "hash", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"})
			},
			wantErr: user.ErrDuplicateEmail,
		},
		{
			name: "other errors pass through",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", "hash", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUsersRepo(mock, nil)
			got, err := repo.Create(context.Background(), " Ann@Example.COM ", "hash", "Ann")

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
				assert.Equal(t, "ann@example.com", got.Email)
				assert.Equal(t, "hash", got.PasswordHash)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepo_GetByEmail(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs("ann@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("5b0c7d43-0a5e-4a57-9c1f-1d1f7f0f6b2a", "ann@example.com", "Ann", "hash", now, now))

		got, err := NewUsersRepo(mock, nil).GetByEmail(context.Background(), "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, "5b0c7d43-0a5e-4a57-9c1f-1d1f7f0f6b2a", got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewUsersRepo(mock, nil).GetByEmail(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, user.ErrNotFound)
	})
}

func TestUsersRepo_GetByID(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	id := "5b0c7d43-0a5e-4a57-9c1f-1d1f7f0f6b2a"

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(id, "ann@example.com", "Ann", "hash", now, now))

		got, err := NewUsersRepo(mock, nil).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, user.Profile{ID: id, Email: "ann@example.com", Name: "Ann"}, got.Profile())
	})

	t.Run("non uuid never hits the database", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewUsersRepo(mock, nil).GetByID(context.Background(), "not-a-uuid")
		require.ErrorIs(t, err, user.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err = NewUsersRepo(mock, nil).GetByID(context.Background(), id)
		require.ErrorIs(t, err, user.ErrNotFound)
	})
}
