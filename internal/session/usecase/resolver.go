package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

type identityResolver struct {
	verifier Verifier
}

// Resolve verifies the credential by value and returns its subject.
func (r *identityResolver) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := r.verifier.Verify(ctx, token, sessionDomain.LookupByValue)
	if err == nil {
		return claims.SubjectID, nil
	}

	if errors.Is(err, sessionDomain.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return uuid.Nil, err
	}
	return uuid.Nil, apperrors.Join(sessionDomain.ErrUnauthenticated, err)
}

// NewIdentityResolver creates an IdentityResolver backed by verifier.
func NewIdentityResolver(verifier Verifier) IdentityResolver {
	return &identityResolver{verifier: verifier}
}
