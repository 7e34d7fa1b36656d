package domain

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appValidation "github.com/astroeyes/authcore/internal/validation"
)

// LoginInput is the request to obtain a credential for an already
// authenticated subject on one device.
type LoginInput struct {
	SubjectID uuid.UUID
	DeviceID  string
}

// Validate checks the device id and that the subject is set.
func (i LoginInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.SubjectID, validation.NotIn(uuid.Nil).Error("is required")),
		validation.Field(&i.DeviceID, appValidation.DeviceIDRules()...),
	)
	return appValidation.WrapValidationError(err)
}

// RefreshInput is the request to renew a credential held by a device.
type RefreshInput struct {
	Token    string
	DeviceID string
}

// Validate checks the credential shape and the device id.
func (i RefreshInput) Validate() error {
	return validateTokenAndDevice(&i.Token, &i.DeviceID)
}

// RevokeInput is the request to end a device session.
type RevokeInput struct {
	Token    string
	DeviceID string
}

// Validate checks the credential shape and the device id.
func (i RevokeInput) Validate() error {
	return validateTokenAndDevice(&i.Token, &i.DeviceID)
}

func validateTokenAndDevice(token, deviceID *string) error {
	err := validation.Errors{
		"token":     validation.Validate(*token, appValidation.TokenRules()...),
		"device_id": validation.Validate(*deviceID, appValidation.DeviceIDRules()...),
	}.Filter()
	return appValidation.WrapValidationError(err)
}

// Session is the result of an issuing operation.
type Session struct {
	Record  *TokenRecord
	Outcome Outcome
}
