// Package dto provides data transfer objects for the session HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/astroeyes/authcore/internal/validation"
)

// LoginRequest contains the account credentials and the device to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field, never logged
	DeviceID string `json:"device_id"`
}

// Validate checks presence of the credentials and the device id format.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, appValidation.UsernameMaxLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, appValidation.PasswordMaxLength)),
		validation.Field(&r.DeviceID, appValidation.DeviceIDRules()...),
	)
}

// TokenRequest carries a credential and the device presenting it. It is the
// body of both refresh and revoke.
type TokenRequest struct {
	AccessToken string `json:"access_token"` //nolint:gosec // request field, never logged
	DeviceID    string `json:"device_id"`
}

// Validate checks the credential shape and the device id.
func (r *TokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccessToken, appValidation.TokenRules()...),
		validation.Field(&r.DeviceID, appValidation.DeviceIDRules()...),
	)
}
