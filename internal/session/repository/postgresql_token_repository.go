package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/database"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

const postgresTokenColumns = `id, subject_id, device_id, token_value, created_at, expires_at`

// PostgreSQLTokenRepository implements TokenRecord persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}

// Find retrieves the record of a subject's device. Returns ErrTokenNotFound if none exists.
func (p *PostgreSQLTokenRepository) Find(
	ctx context.Context,
	subjectID uuid.UUID,
	deviceID string,
) (*sessionDomain.TokenRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM access_tokens WHERE subject_id = $1 AND device_id = $2`

	return p.scanOne(querier.QueryRowContext(ctx, query, subjectID, deviceID), "failed to find token")
}

// FindByValue retrieves the record holding exactly tokenValue.
func (p *PostgreSQLTokenRepository) FindByValue(
	ctx context.Context,
	tokenValue string,
) (*sessionDomain.TokenRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresTokenColumns + `
			  FROM access_tokens WHERE token_value = $1`

	return p.scanOne(querier.QueryRowContext(ctx, query, tokenValue), "failed to find token by value")
}

// Insert stores a new record. Returns ErrTokenConflict when the device or the
// value already has a record.
func (p *PostgreSQLTokenRepository) Insert(ctx context.Context, record *sessionDomain.TokenRecord) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO access_tokens (` + postgresTokenColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.SubjectID,
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
func (p *PostgreSQLTokenRepository) Delete(ctx context.Context, recordID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = $1`, recordID); err != nil {
		return storeError(err, "failed to delete token")
	}
	return nil
}

// DeleteBySubject removes every record of a subject and returns how many were removed.
func (p *PostgreSQLTokenRepository) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE subject_id = $1`, subjectID)
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
func (p *PostgreSQLTokenRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		err := querier.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM access_tokens WHERE expires_at < $1`,
			before,
		).Scan(&count)
		if err != nil {
			return 0, storeError(err, "failed to count expired tokens")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, storeError(err, "failed to delete expired tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(err, "failed to get affected rows")
	}
	return count, nil
}

func (p *PostgreSQLTokenRepository) scanOne(row *sql.Row, message string) (*sessionDomain.TokenRecord, error) {
	var record sessionDomain.TokenRecord

	err := row.Scan(
		&record.ID,
		&record.SubjectID,
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

	record.CreatedAt = record.CreatedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	return &record, nil
}
