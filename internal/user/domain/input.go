package domain

import (
	"strings"

	validation "github.com/jellydator/validation"

	appValidation "github.com/astroeyes/authcore/internal/validation"
)

// RegisterInput contains the data needed to create an account.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
}

// Validate checks username format, password strength and display name length.
func (i RegisterInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Username,
			validation.Required.Error("username is required"),
			validation.Length(appValidation.UsernameMinLength, appValidation.UsernameMaxLength),
			appValidation.Username,
		),
		validation.Field(&i.Password,
			validation.Required.Error("password is required"),
			validation.Length(appValidation.PasswordMinLength, appValidation.PasswordMaxLength),
			appValidation.PasswordCharset,
			appValidation.DefaultPasswordStrength,
		),
		validation.Field(&i.DisplayName,
			validation.Required.Error("display name is required"),
			appValidation.NotBlank,
			validation.Length(1, appValidation.DisplayNameMaxLength),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Normalize trims the display name.
func (i RegisterInput) Normalize() RegisterInput {
	i.DisplayName = strings.TrimSpace(i.DisplayName)
	return i
}

// AuthenticateInput is a username and password pair to check.
type AuthenticateInput struct {
	Username string
	Password string
}

// Validate only checks presence and upper bounds; a wrong format is reported
// as invalid credentials by the use case.
func (i AuthenticateInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Username,
			validation.Required.Error("username is required"),
			validation.Length(0, appValidation.UsernameMaxLength),
		),
		validation.Field(&i.Password,
			validation.Required.Error("password is required"),
			validation.Length(0, appValidation.PasswordMaxLength),
		),
	)
	return appValidation.WrapValidationError(err)
}
