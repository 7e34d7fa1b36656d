package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	"github.com/astroeyes/authcore/internal/user/domain"
)

var userRowColumns = []string{"id", "username", "display_name", "password_hash", "created_at", "updated_at"}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func newTestUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "john_doe_1",
		DisplayName:  "John",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$salt$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgreSQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	user := newTestUser()
	query := regexp.QuoteMeta("INSERT INTO users")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).
			WithArgs(user.ID, user.Username, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgreSQLUserRepository(db).Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DuplicateUsername", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WillReturnError(&pq.Error{Code: "23505"})

		err := NewPostgreSQLUserRepository(db).Create(ctx, user)
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Error_Driver", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WillReturnError(sql.ErrConnDone)

		err := NewPostgreSQLUserRepository(db).Create(ctx, user)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestPostgreSQLUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	user := newTestUser()
	query := regexp.QuoteMeta("FROM users WHERE username = $1")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).
			WithArgs(user.Username).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
				user.ID.String(),
				user.Username,
				user.DisplayName,
				user.PasswordHash,
				user.CreatedAt,
				user.UpdatedAt,
			))

		got, err := NewPostgreSQLUserRepository(db).GetByUsername(ctx, user.Username)
		require.NoError(t, err)
		assert.Equal(t, user, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

		_, err := NewPostgreSQLUserRepository(db).GetByUsername(ctx, user.Username)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	user := newTestUser()

	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(user.ID).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			user.ID.String(),
			user.Username,
			user.DisplayName,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		))

	got, err := NewPostgreSQLUserRepository(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Username, got.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
