package dto

import (
	"time"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// Response messages.
const (
	MessageLoggedIn       = "Login successful"
	MessageAlreadyValid   = "Token is still valid, no refresh needed"
	MessageRefreshed      = "Access token refreshed successfully"
	MessageRevoked        = "Access token cancelled successfully"
	MessageRevokedDevices = "All access tokens cancelled successfully"
)

// SessionResponse describes the credential a device should use.
type SessionResponse struct {
	Message         string    `json:"message"`
	UserID          string    `json:"user_uuid"`
	AccessToken     string    `json:"access_token"` //nolint:gosec // returned to its owner
	DeviceID        string    `json:"device_id"`
	Outcome         string    `json:"outcome"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	TimeUntilExpiry int64     `json:"time_until_expiry"`
}

// MapSessionToResponse converts an issuing result into a response.
// TimeUntilExpiry is in whole seconds from now.
func MapSessionToResponse(session *sessionDomain.Session, message string, now time.Time) SessionResponse {
	record := session.Record
	return SessionResponse{
		Message:         message,
		UserID:          record.SubjectID.String(),
		AccessToken:     record.TokenValue,
		DeviceID:        record.DeviceID,
		Outcome:         string(session.Outcome),
		CreatedAt:       record.CreatedAt,
		ExpiresAt:       record.ExpiresAt,
		TimeUntilExpiry: int64(record.Remaining(now).Seconds()),
	}
}

// MessageResponse is returned by operations without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RevokeAllResponse reports how many credentials were revoked.
type RevokeAllResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}
