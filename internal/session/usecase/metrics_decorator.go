package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/metrics"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *sessionUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	s.metrics.RecordOperation(ctx, "session", operation, status)
	s.metrics.RecordDuration(ctx, "session", operation, time.Since(start), status)
}

func (s *sessionUseCaseWithMetrics) recordOutcome(
	ctx context.Context,
	operation string,
	session *sessionDomain.Session,
) {
	if session != nil {
		s.metrics.RecordSessionOutcome(ctx, operation, string(session.Outcome))
	}
}

// Login records metrics for login operations.
func (s *sessionUseCaseWithMetrics) Login(
	ctx context.Context,
	input *sessionDomain.LoginInput,
) (*sessionDomain.Session, error) {
	start := time.Now()
	session, err := s.next.Login(ctx, input)
	s.record(ctx, "login", start, err)
	s.recordOutcome(ctx, "login", session)
	return session, err
}

// Refresh records metrics for refresh operations.
func (s *sessionUseCaseWithMetrics) Refresh(
	ctx context.Context,
	input *sessionDomain.RefreshInput,
) (*sessionDomain.Session, error) {
	start := time.Now()
	session, err := s.next.Refresh(ctx, input)
	s.record(ctx, "refresh", start, err)
	s.recordOutcome(ctx, "refresh", session)
	return session, err
}

// Revoke records metrics for revoke operations.
func (s *sessionUseCaseWithMetrics) Revoke(ctx context.Context, input *sessionDomain.RevokeInput) error {
	start := time.Now()
	err := s.next.Revoke(ctx, input)
	s.record(ctx, "revoke", start, err)
	return err
}

// RevokeAll records metrics for revoke-all operations.
func (s *sessionUseCaseWithMetrics) RevokeAll(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	start := time.Now()
	count, err := s.next.RevokeAll(ctx, subjectID)
	s.record(ctx, "revoke_all", start, err)
	return count, err
}

// CleanupExpired records metrics for cleanup operations.
func (s *sessionUseCaseWithMetrics) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := s.next.CleanupExpired(ctx, days, dryRun)
	s.record(ctx, "cleanup_expired", start, err)
	return count, err
}

// ReapStale records metrics for lazy reaps.
func (s *sessionUseCaseWithMetrics) ReapStale(ctx context.Context, record *sessionDomain.TokenRecord) error {
	start := time.Now()
	err := s.next.ReapStale(ctx, record)
	s.record(ctx, "reap_stale", start, err)
	return err
}

// identityResolverWithMetrics decorates IdentityResolver with metrics instrumentation.
type identityResolverWithMetrics struct {
	next    IdentityResolver
	metrics metrics.BusinessMetrics
}

// NewIdentityResolverWithMetrics wraps an IdentityResolver with metrics recording.
func NewIdentityResolverWithMetrics(resolver IdentityResolver, m metrics.BusinessMetrics) IdentityResolver {
	return &identityResolverWithMetrics{
		next:    resolver,
		metrics: m,
	}
}

// Resolve records metrics for identity resolution.
func (r *identityResolverWithMetrics) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	start := time.Now()
	subjectID, err := r.next.Resolve(ctx, token)

	status := metrics.StatusOf(err)
	r.metrics.RecordOperation(ctx, "session", "resolve", status)
	r.metrics.RecordDuration(ctx, "session", "resolve", time.Since(start), status)

	return subjectID, err
}
