package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenRecord is the persisted proof that a credential is live. A credential
// with no matching record is rejected even when its signature verifies.
type TokenRecord struct {
	ID         uuid.UUID
	SubjectID  uuid.UUID
	DeviceID   string
	TokenValue string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the record is no longer live at now. A record
// whose expiry equals now is expired.
func (r *TokenRecord) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Remaining returns the lifetime left at now, never negative.
func (r *TokenRecord) Remaining(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// NeedsRenewal reports whether the record is within threshold of expiry.
func (r *TokenRecord) NeedsRenewal(now time.Time, threshold time.Duration) bool {
	return r.Remaining(now) <= threshold
}

// Matches reports whether the record belongs to the subject and device.
func (r *TokenRecord) Matches(subjectID uuid.UUID, deviceID string) bool {
	return r.SubjectID == subjectID && r.DeviceID == deviceID
}
