// Package mocks provides mock implementations of the session use cases for testing.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// MockSessionUseCase is a mock implementation of SessionUseCase.
type MockSessionUseCase struct {
	mock.Mock
}

// Login mocks the Login method of SessionUseCase.
func (m *MockSessionUseCase) Login(
	ctx context.Context,
	input *sessionDomain.LoginInput,
) (*sessionDomain.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

// Refresh mocks the Refresh method of SessionUseCase.
func (m *MockSessionUseCase) Refresh(
	ctx context.Context,
	input *sessionDomain.RefreshInput,
) (*sessionDomain.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

// Revoke mocks the Revoke method of SessionUseCase.
func (m *MockSessionUseCase) Revoke(ctx context.Context, input *sessionDomain.RevokeInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// RevokeAll mocks the RevokeAll method of SessionUseCase.
func (m *MockSessionUseCase) RevokeAll(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	args := m.Called(ctx, subjectID)
	return args.Get(0).(int64), args.Error(1)
}

// CleanupExpired mocks the CleanupExpired method of SessionUseCase.
func (m *MockSessionUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// ReapStale mocks the ReapStale method of SessionUseCase.
func (m *MockSessionUseCase) ReapStale(ctx context.Context, record *sessionDomain.TokenRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockIdentityResolver is a mock implementation of IdentityResolver.
type MockIdentityResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method of IdentityResolver.
func (m *MockIdentityResolver) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
