package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/database"
	apperrors "github.com/astroeyes/authcore/internal/errors"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

const mysqlTokenColumns = `id, subject_id, device_id, token_value, created_at, expires_at`

// MySQLTokenRepository implements TokenRecord persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLTokenRepository struct {
	db *sql.DB
}

// NewMySQLTokenRepository creates a new MySQL token repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}

// Find retrieves the record of a subject's device. Returns ErrTokenNotFound if none exists.
func (m *MySQLTokenRepository) Find(
	ctx context.Context,
	subjectID uuid.UUID,
	deviceID string,
) (*sessionDomain.TokenRecord, error) {
	querier := database.GetTx(ctx, m.db)

	subject, err := subjectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `SELECT ` + mysqlTokenColumns + `
			  FROM access_tokens WHERE subject_id = ? AND device_id = ?`

	return m.scanOne(querier.QueryRowContext(ctx, query, subject, deviceID), "failed to find token")
}

// FindByValue retrieves the record holding exactly tokenValue.
func (m *MySQLTokenRepository) FindByValue(
	ctx context.Context,
	tokenValue string,
) (*sessionDomain.TokenRecord, error) {
	querier := database.GetTx(ctx, m.db)

	// token_value is too long for a MySQL index; token_hash is its stored
	// SHA-256 and carries the unique index.
	query := `SELECT ` + mysqlTokenColumns + `
			  FROM access_tokens WHERE token_hash = UNHEX(SHA2(?, 256)) AND token_value = ?`

	return m.scanOne(
		querier.QueryRowContext(ctx, query, tokenValue, tokenValue),
		"failed to find token by value",
	)
}

// Insert stores a new record. Returns ErrTokenConflict when the device or the
// value already has a record.
func (m *MySQLTokenRepository) Insert(ctx context.Context, record *sessionDomain.TokenRecord) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	subject, err := record.SubjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subject id")
	}

	query := `INSERT INTO access_tokens (` + mysqlTokenColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		subject,
		record.DeviceID,
		record.TokenValue,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sessionDomain.ErrTokenConflict
		}
		return storeError(err, "failed to insert token")
	}
	return nil
}

// Delete removes a record by id. Deleting a missing record is not an error.
func (m *MySQLTokenRepository) Delete(ctx context.Context, recordID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := recordID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = ?`, id); err != nil {
		return storeError(err, "failed to delete token")
	}
	return nil
}

// DeleteBySubject removes every record of a subject and returns how many were removed.
func (m *MySQLTokenRepository) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	subject, err := subjectID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal subject id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE subject_id = ?`, subject)
	if err != nil {
		return 0, storeError(err, "failed to delete subject tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(err, "failed to get affected rows")
	}
	return count, nil
}

// DeleteExpired removes records that expired before the given time. In dry-run
// mode it only counts them.
func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM access_tokens WHERE expires_at < ?`,
			before,
		).Scan(&count)
		if err != nil {
			return 0, storeError(err, "failed to count expired tokens")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at < ?`, before)
	if err != nil {
		return 0, storeError(err, "failed to delete expired tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(err, "failed to get affected rows")
	}
	return count, nil
}

func (m *MySQLTokenRepository) scanOne(row *sql.Row, message string) (*sessionDomain.TokenRecord, error) {
	var record sessionDomain.TokenRecord
	var idBytes, subjectBytes []byte

	err := row.Scan(
		&idBytes,
		&subjectBytes,
		&record.DeviceID,
		&record.TokenValue,
		&record.CreatedAt,
		&record.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessionDomain.ErrTokenNotFound
		}
		return nil, storeError(err, message)
	}

	if err := record.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	if err := record.SubjectID.UnmarshalBinary(subjectBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal subject id")
	}

	record.CreatedAt = record.CreatedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	return &record, nil
}
