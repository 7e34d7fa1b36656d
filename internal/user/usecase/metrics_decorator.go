package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/astroeyes/authcore/internal/metrics"
	"github.com/astroeyes/authcore/internal/user/domain"
)

type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording under the "user" domain.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	u.metrics.RecordOperation(ctx, "user", operation, status)
	u.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

func (u *userUseCaseWithMetrics) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	u.record(ctx, "register", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	input domain.AuthenticateInput,
) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Authenticate(ctx, input)
	u.record(ctx, "authenticate", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.GetByID(ctx, id)
	u.record(ctx, "get_by_id", start, err)
	return user, err
}
