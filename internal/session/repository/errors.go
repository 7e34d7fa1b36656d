// Package repository provides token store implementations for PostgreSQL,
// MySQL and process memory.
package repository

import (
	"context"
	"errors"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// storeError marks a driver failure as ErrStoreUnavailable while keeping the
// cause in the chain. Cancellation is passed through unmarked so callers can
// tell an abandoned request from a broken store.
func storeError(err error, message string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, message)
	}
	return apperrors.Join(sessionDomain.ErrStoreUnavailable, apperrors.Wrap(err, message))
}
