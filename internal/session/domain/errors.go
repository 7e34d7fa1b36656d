package domain

import (
	"github.com/astroeyes/authcore/internal/errors"
)

// Credential errors raised by the local decode phase. Each one wraps
// errors.ErrUnauthorized.
var (
	// ErrMalformedCredential indicates the credential could not be parsed or its claims are inconsistent.
	ErrMalformedCredential = errors.Wrap(errors.ErrUnauthorized, "malformed credential")

	// ErrSignatureInvalid indicates the credential signature does not verify with any accepted key.
	ErrSignatureInvalid = errors.Wrap(errors.ErrUnauthorized, "invalid credential signature")

	// ErrExpired indicates the credential or its record is past expiry.
	ErrExpired = errors.Wrap(errors.ErrUnauthorized, "credential expired")
)

// Session errors raised against the token store.
var (
	// ErrNotLive indicates a well-formed credential with no live record behind it.
	ErrNotLive = errors.Wrap(errors.ErrUnauthorized, "credential is not live")

	// ErrUnauthenticated is attached to every failure returned by the identity resolver.
	ErrUnauthenticated = errors.Wrap(errors.ErrUnauthorized, "unauthenticated")

	// ErrTokenNotFound indicates no record matches the presented credential and device.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrTokenConflict indicates the device already holds a record.
	ErrTokenConflict = errors.Wrap(errors.ErrConflict, "token already exists for device")

	// ErrDeviceMismatch indicates the credential is bound to a different device.
	ErrDeviceMismatch = errors.Wrap(errors.ErrInvalidInput, "device mismatch")

	// ErrStoreUnavailable indicates the token store could not be reached. It is
	// never an authentication failure.
	ErrStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "token store unavailable")
)
