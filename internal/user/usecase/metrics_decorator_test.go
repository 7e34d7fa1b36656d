package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/astroeyes/authcore/internal/user/domain"
	"github.com/astroeyes/authcore/internal/user/usecase"
	"github.com/astroeyes/authcore/internal/user/usecase/mocks"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordSessionOutcome(ctx context.Context, operation, outcome string) {
	m.Called(ctx, operation, outcome)
}

func TestUserUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Username: "alice_wonder"}

	mockNext := &mocks.MockUseCase{}
	mockMetrics := &mockBusinessMetrics{}
	uc := usecase.NewUserUseCaseWithMetrics(mockNext, mockMetrics)

	registerInput := domain.RegisterInput{Username: "alice_wonder", Password: "Sup3r-Secret!", DisplayName: "Alice"}
	authInput := domain.AuthenticateInput{Username: "alice_wonder", Password: "wrong"}

	mockNext.On("Register", ctx, registerInput).Return(user, nil).Once()
	mockNext.On("Authenticate", ctx, authInput).Return(nil, domain.ErrInvalidCredentials).Once()
	mockNext.On("GetByID", ctx, user.ID).Return(user, nil).Once()

	for _, expected := range []struct{ operation, status string }{
		{"register", "success"},
		{"authenticate", "error"},
		{"get_by_id", "success"},
	} {
		mockMetrics.On("RecordOperation", ctx, "user", expected.operation, expected.status).Return().Once()
		mockMetrics.On("RecordDuration", ctx, "user", expected.operation, mock.AnythingOfType("time.Duration"), expected.status).
			Return().
			Once()
	}

	registered, err := uc.Register(ctx, registerInput)
	assert.NoError(t, err)
	assert.Equal(t, user, registered)

	_, err = uc.Authenticate(ctx, authInput)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	found, err := uc.GetByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user, found)

	mockNext.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}
