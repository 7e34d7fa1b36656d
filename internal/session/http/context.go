package http

import (
	"context"

	"github.com/google/uuid"
)

// subjectKey is a context key type for storing the authenticated subject.
type subjectKey struct{}

// WithSubject stores the authenticated subject id in the context.
func WithSubject(ctx context.Context, subjectID uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

// GetSubject retrieves the authenticated subject id from the context.
// Returns (uuid.Nil, false) if the request was not authenticated.
func GetSubject(ctx context.Context) (uuid.UUID, bool) {
	subjectID, ok := ctx.Value(subjectKey{}).(uuid.UUID)
	return subjectID, ok && subjectID != uuid.Nil
}
