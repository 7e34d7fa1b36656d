// Package service provides the technical services behind session credentials:
// the credential codec, signing key loading and per-device locking.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// CredentialCodec turns claims into a signed, URL-safe bearer credential and
// back. Implementations are pure: they never touch the token store.
type CredentialCodec interface {
	// Encode mints a credential for the subject and device valid from issuedAt
	// for ttl. parentID, when set, links the credential to the record it replaces.
	Encode(
		subjectID uuid.UUID,
		deviceID string,
		issuedAt time.Time,
		ttl time.Duration,
		parentID *uuid.UUID,
	) (string, error)

	// Decode verifies the signature and then the expiry against now.
	//
	// Returns ErrMalformedCredential when the credential cannot be parsed or
	// carries inconsistent claims, ErrSignatureInvalid when no accepted key
	// verifies it and ErrExpired when now is at or past its expiry.
	Decode(token string, now time.Time) (*sessionDomain.Claims, error)
}

// DeviceLocker serializes issuing operations for one (subject, device) pair.
type DeviceLocker interface {
	// Lock blocks until the pair is free or ctx is done. The returned function
	// releases the lock and must be called exactly once.
	Lock(ctx context.Context, subjectID uuid.UUID, deviceID string) (unlock func(), err error)
}

func lockKey(subjectID uuid.UUID, deviceID string) string {
	return subjectID.String() + "/" + deviceID
}
