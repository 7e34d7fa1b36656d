// Package usecase implements the session lifecycle: issuing, refreshing and
// revoking device-scoped credentials, and verifying presented credentials
// against both their signature and the token store.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// TokenRepository defines persistence operations for token records.
// Implementations must support transaction-aware operations via context propagation.
type TokenRepository interface {
	// Find retrieves the record of a subject's device. Returns ErrTokenNotFound if none exists.
	Find(ctx context.Context, subjectID uuid.UUID, deviceID string) (*sessionDomain.TokenRecord, error)

	// FindByValue retrieves the record holding the serialized credential.
	// Returns ErrTokenNotFound if none exists.
	FindByValue(ctx context.Context, tokenValue string) (*sessionDomain.TokenRecord, error)

	// Insert stores a new record. Returns ErrTokenConflict when the device or
	// the credential value already has a record.
	Insert(ctx context.Context, record *sessionDomain.TokenRecord) error

	// Delete removes a record by id. Deleting a missing record is a no-op.
	Delete(ctx context.Context, recordID uuid.UUID) error

	// DeleteBySubject removes every record of a subject and returns how many were removed.
	DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error)

	// DeleteExpired removes records that expired before the given time. When
	// dryRun is true it only counts them.
	DeleteExpired(ctx context.Context, before time.Time, dryRun bool) (int64, error)
}

// StaleRecordReaper deletes records found expired while reading the store.
type StaleRecordReaper interface {
	ReapStale(ctx context.Context, record *sessionDomain.TokenRecord) error
}

// SessionUseCase is the only component allowed to mutate the token store.
// Every operation keeps at most one live record per (subject, device).
type SessionUseCase interface {
	StaleRecordReaper

	// Login returns the device's live credential or mints a new one.
	//
	// A live record is returned unchanged with OutcomeReused. An expired record
	// is deleted and replaced (OutcomeRotated). With no record a credential is
	// minted (OutcomeIssued). Concurrent logins for the same device converge on
	// a single record.
	Login(ctx context.Context, input *sessionDomain.LoginInput) (*sessionDomain.Session, error)

	// Refresh renews a credential once it is within the renewal threshold of its expiry.
	//
	// Returns ErrTokenNotFound when no record holds the credential for the device,
	// ErrExpired after reaping an expired record and ErrDeviceMismatch when the
	// credential claims another device. A credential far from expiry is returned
	// with OutcomeUnchanged; otherwise the record is replaced atomically and the
	// new one is returned with OutcomeRotated.
	Refresh(ctx context.Context, input *sessionDomain.RefreshInput) (*sessionDomain.Session, error)

	// Revoke deletes the record holding the credential for the device.
	// Returns ErrTokenNotFound when there is none, including on a second revoke.
	Revoke(ctx context.Context, input *sessionDomain.RevokeInput) error

	// RevokeAll deletes every record of the subject and returns how many were removed.
	RevokeAll(ctx context.Context, subjectID uuid.UUID) (int64, error)

	// CleanupExpired deletes records that expired more than the given number of
	// days ago. With dryRun set it only counts them.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}

// Verifier runs the two verification phases: a local decode of the credential
// followed by a liveness check against the token store.
type Verifier interface {
	// Verify returns the decoded claims of a live credential.
	//
	// Codec failures (ErrMalformedCredential, ErrSignatureInvalid, ErrExpired)
	// return before the store is read. ErrNotLive is returned when no unexpired
	// record holds the credential; an expired record is reaped first.
	// ErrDeviceMismatch is returned when the record belongs to another device.
	Verify(ctx context.Context, token string, mode sessionDomain.LookupMode) (*sessionDomain.Claims, error)
}

// IdentityResolver is what resource handlers use to learn who is calling.
type IdentityResolver interface {
	// Resolve returns the subject of a live credential. Every authentication
	// failure also matches ErrUnauthenticated; store outages are returned as
	// ErrStoreUnavailable without it.
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}
