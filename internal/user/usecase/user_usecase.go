// Package usecase implements account registration and password verification.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	"github.com/astroeyes/authcore/internal/user/domain"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UseCase defines the user operations used by the HTTP boundary and the CLI.
type UseCase interface {
	// Register creates an account. Returns ErrUserAlreadyExists when the
	// username is taken.
	Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error)

	// Authenticate checks a username and password and returns the account.
	// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, input domain.AuthenticateInput) (*domain.User, error)

	// GetByID retrieves an account. Returns ErrUserNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserUseCase handles user-related business logic.
type UserUseCase struct {
	userRepo       UserRepository
	passwordHasher *pwdhash.PasswordHasher
	dummyHash      string
	logger         *slog.Logger
}

// NewUserUseCase creates a new UserUseCase hashing passwords with the
// interactive Argon2id policy.
func NewUserUseCase(userRepo UserRepository, logger *slog.Logger) (UseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	// Unknown usernames are verified against this hash so they cost the same
	// as a wrong password.
	dummyHash, err := hasher.Hash([]byte(uuid.NewString()))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash placeholder password")
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &UserUseCase{
		userRepo:       userRepo,
		passwordHasher: hasher,
		dummyHash:      dummyHash,
		logger:         logger,
	}, nil
}

// Register validates the input, hashes the password and stores the account.
func (uc *UserUseCase) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.Normalize()

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := time.Now().UTC().Truncate(time.Second)
	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     input.Username,
		DisplayName:  input.DisplayName,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate verifies the password of the named account.
func (uc *UserUseCase) Authenticate(ctx context.Context, input domain.AuthenticateInput) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_, _ = uc.passwordHasher.Verify([]byte(input.Password), uc.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := uc.passwordHasher.Verify([]byte(input.Password), user.PasswordHash)
	if err != nil || !ok {
		uc.logger.Debug("password rejected", slog.String("user_id", user.ID.String()))
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
