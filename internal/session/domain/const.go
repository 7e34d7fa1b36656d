// Package domain defines the session credential model: the claims carried by a
// bearer credential, the persisted record that makes a credential live, and
// the errors raised while issuing, verifying, rotating and revoking them.
//
// A subject holds at most one live credential per device. Credentials are
// rotated lazily: a refresh only mints a replacement once the current one is
// within the renewal threshold of its expiry.
package domain

import "time"

const (
	// DefaultTTL is the lifetime of a freshly minted credential.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultRenewalThreshold is the remaining lifetime under which a refresh rotates.
	DefaultRenewalThreshold = 24 * time.Hour
)

// Outcome describes what an issuing operation did.
type Outcome string

const (
	// OutcomeIssued means no record existed for the device and a new one was minted.
	OutcomeIssued Outcome = "issued"

	// OutcomeReused means the device's live record was returned as is.
	OutcomeReused Outcome = "reused"

	// OutcomeRotated means the previous record was deleted and replaced.
	OutcomeRotated Outcome = "rotated"

	// OutcomeUnchanged means a refresh found the credential far from expiry.
	OutcomeUnchanged Outcome = "unchanged"
)

// LookupMode selects how the persisted phase of verification finds a record.
type LookupMode int

const (
	// LookupByValue finds the record holding exactly the presented credential.
	LookupByValue LookupMode = iota

	// LookupByDevice finds the device's record from the decoded claims and
	// requires it to hold the presented credential.
	LookupByDevice
)

func (m LookupMode) String() string {
	switch m {
	case LookupByDevice:
		return "by_device"
	default:
		return "by_value"
	}
}
