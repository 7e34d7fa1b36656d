package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the decoded payload of a bearer credential.
type Claims struct {
	ID        string     // Unique credential id (jti)
	SubjectID uuid.UUID  // Subject the credential was issued to
	DeviceID  string     // Device the credential is bound to
	IssuedAt  time.Time  // UTC
	ExpiresAt time.Time  // UTC, always after IssuedAt
	ParentID  *uuid.UUID // Record id of the credential this one replaced, if any
}

// Remaining returns the lifetime left at now, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
