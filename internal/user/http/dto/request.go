// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/astroeyes/authcore/internal/user/domain"
	appValidation "github.com/astroeyes/authcore/internal/validation"
)

// RegisterUserRequest is the body of POST /v1/auth/register.
type RegisterUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"` //nolint:gosec // request field, never logged
	DisplayName string `json:"display_name"`
}

// Validate checks presence of every field. Format and strength rules are
// enforced by domain.RegisterInput.
func (r *RegisterUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			validation.Length(1, appValidation.UsernameMaxLength),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(1, appValidation.PasswordMaxLength),
		),
		validation.Field(&r.DisplayName,
			validation.Required.Error("display name is required"),
		),
	)
}

// ToRegisterInput converts the request into the use case input.
func ToRegisterInput(r RegisterUserRequest) domain.RegisterInput {
	return domain.RegisterInput{
		Username:    r.Username,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
}
