package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	userDomain "github.com/astroeyes/authcore/internal/user/domain"
	userMocks "github.com/astroeyes/authcore/internal/user/usecase/mocks"
)

func TestRunCreateUser(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &userDomain.User{
		ID:          uuid.Must(uuid.NewV7()),
		Username:    "alice_wonder",
		DisplayName: "Alice",
		CreatedAt:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	t.Run("password-flag-text-output", func(t *testing.T) {
		mockUseCase := &userMocks.MockUseCase{}
		mockUseCase.On("Register", ctx, userDomain.RegisterInput{
			Username:    "alice_wonder",
			Password:    "Sup3r-Secret!",
			DisplayName: "Alice",
		}).Return(user, nil).Once()

		var out bytes.Buffer
		err := RunCreateUser(ctx, mockUseCase, logger, "alice_wonder", "Alice", "Sup3r-Secret!", "text",
			IOTuple{Reader: strings.NewReader(""), Writer: &out})

		require.NoError(t, err)
		require.Contains(t, out.String(), "User created successfully")
		require.Contains(t, out.String(), user.ID.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("password-from-reader-json-output", func(t *testing.T) {
		mockUseCase := &userMocks.MockUseCase{}
		mockUseCase.On("Register", ctx, userDomain.RegisterInput{
			Username:    "alice_wonder",
			Password:    "Sup3r-Secret!",
			DisplayName: "alice_wonder",
		}).Return(user, nil).Once()

		var out bytes.Buffer
		err := RunCreateUser(ctx, mockUseCase, logger, "alice_wonder", "", "", "json",
			IOTuple{Reader: strings.NewReader("Sup3r-Secret!\n"), Writer: &out})

		require.NoError(t, err)
		require.Contains(t, out.String(), "Password: ")
		require.Contains(t, out.String(), `"user_uuid": "`+user.ID.String()+`"`)
		require.Contains(t, out.String(), `"created_at": "2026-01-10T12:00:00Z"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("username-taken", func(t *testing.T) {
		mockUseCase := &userMocks.MockUseCase{}
		mockUseCase.On("Register", ctx, userDomain.RegisterInput{
			Username:    "alice_wonder",
			Password:    "Sup3r-Secret!",
			DisplayName: "Alice",
		}).Return(nil, userDomain.ErrUserAlreadyExists).Once()

		err := RunCreateUser(ctx, mockUseCase, logger, "alice_wonder", "Alice", "Sup3r-Secret!", "text",
			IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}})

		require.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
	})

	t.Run("empty-input", func(t *testing.T) {
		mockUseCase := &userMocks.MockUseCase{}

		err := RunCreateUser(ctx, mockUseCase, logger, "alice_wonder", "Alice", "", "text",
			IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}})

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read input")
		mockUseCase.AssertNotCalled(t, "Register")
	})

	t.Run("invalid-format", func(t *testing.T) {
		mockUseCase := &userMocks.MockUseCase{}

		err := RunCreateUser(ctx, mockUseCase, logger, "alice_wonder", "Alice", "x", "xml", DefaultIO())

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})
}
