package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

func binaryUUID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestMySQLTokenRepository_Find(t *testing.T) {
	ctx := context.Background()
	record := newTestRecord()
	query := regexp.QuoteMeta("FROM access_tokens WHERE subject_id = ? AND device_id = ?")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).
			WithArgs(binaryUUID(t, record.SubjectID), record.DeviceID).
			WillReturnRows(sqlmock.NewRows(tokenColumns).AddRow(
				binaryUUID(t, record.ID),
				binaryUUID(t, record.SubjectID),
				record.DeviceID,
				record.TokenValue,
				record.CreatedAt,
				record.ExpiresAt,
			))

		got, err := NewMySQLTokenRepository(db).Find(ctx, record.SubjectID, record.DeviceID)
		require.NoError(t, err)
		assert.Equal(t, record, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

		_, err := NewMySQLTokenRepository(db).Find(ctx, record.SubjectID, record.DeviceID)
		assert.ErrorIs(t, err, sessionDomain.ErrTokenNotFound)
	})

	t.Run("Error_InvalidStoredID", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows(tokenColumns).AddRow(
				[]byte{0x01},
				binaryUUID(t, record.SubjectID),
				record.DeviceID,
				record.TokenValue,
				record.CreatedAt,
				record.ExpiresAt,
			))

		_, err := NewMySQLTokenRepository(db).Find(ctx, record.SubjectID, record.DeviceID)
		assert.ErrorContains(t, err, "failed to unmarshal token id")
	})
}

func TestMySQLTokenRepository_FindByValue(t *testing.T) {
	db, mock := newSQLMock(t)
	record := newTestRecord()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE token_hash = UNHEX(SHA2(?, 256)) AND token_value = ?")).
		WithArgs(record.TokenValue, record.TokenValue).
		WillReturnRows(sqlmock.NewRows(tokenColumns).AddRow(
			binaryUUID(t, record.ID),
			binaryUUID(t, record.SubjectID),
			record.DeviceID,
			record.TokenValue,
			record.CreatedAt,
			record.ExpiresAt,
		))

	got, err := NewMySQLTokenRepository(db).FindByValue(context.Background(), record.TokenValue)
	require.NoError(t, err)
	assert.Equal(t, record, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_Insert(t *testing.T) {
	ctx := context.Background()
	record := newTestRecord()
	query := regexp.QuoteMeta("INSERT INTO access_tokens")

	t.Run("Success", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).
			WithArgs(
				binaryUUID(t, record.ID),
				binaryUUID(t, record.SubjectID),
				record.DeviceID,
				record.TokenValue,
				record.CreatedAt,
				record.ExpiresAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewMySQLTokenRepository(db).Insert(ctx, record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DuplicateEntry", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := NewMySQLTokenRepository(db).Insert(ctx, record)
		assert.ErrorIs(t, err, sessionDomain.ErrTokenConflict)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(query).WillReturnError(mysql.ErrInvalidConn)

		err := NewMySQLTokenRepository(db).Insert(ctx, record)
		assert.ErrorIs(t, err, sessionDomain.ErrStoreUnavailable)
	})
}

func TestMySQLTokenRepository_Delete(t *testing.T) {
	db, mock := newSQLMock(t)
	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_tokens WHERE id = ?")).
		WithArgs(binaryUUID(t, id)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewMySQLTokenRepository(db).Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTokenRepository_DeleteBySubject(t *testing.T) {
	db, mock := newSQLMock(t)
	subjectID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_tokens WHERE subject_id = ?")).
		WithArgs(binaryUUID(t, subjectID)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := NewMySQLTokenRepository(db).DeleteBySubject(context.Background(), subjectID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMySQLTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	before := time.Now().UTC()

	t.Run("Success_Delete", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_tokens WHERE expires_at < ?")).
			WithArgs(before).
			WillReturnResult(sqlmock.NewResult(0, 5))

		count, err := NewMySQLTokenRepository(db).DeleteExpired(ctx, before, false)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("Success_DryRun", func(t *testing.T) {
		db, mock := newSQLMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM access_tokens WHERE expires_at < ?")).
			WithArgs(before).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		count, err := NewMySQLTokenRepository(db).DeleteExpired(ctx, before, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
