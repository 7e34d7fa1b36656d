package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	userDomain "github.com/astroeyes/authcore/internal/user/domain"
	userUseCase "github.com/astroeyes/authcore/internal/user/usecase"
)

// RunCreateUser registers an account from the command line. When password is
// empty it is read from io.Reader so it stays out of shell history.
func RunCreateUser(
	ctx context.Context,
	users userUseCase.UseCase,
	logger *slog.Logger,
	username string,
	displayName string,
	password string,
	format string,
	io IOTuple,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if password == "" {
		var err error
		password, err = readLine(io.Reader, io.Writer, "Password: ")
		if err != nil {
			return err
		}
	}

	if displayName == "" {
		displayName = username
	}

	user, err := users.Register(ctx, userDomain.RegisterInput{
		Username:    username,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	if format == "json" {
		return writeJSON(io.Writer, map[string]any{
			"user_uuid":    user.ID.String(),
			"username":     user.Username,
			"display_name": user.DisplayName,
			"created_at":   user.CreatedAt.Format(time.RFC3339),
		})
	}

	_, _ = fmt.Fprintf(io.Writer, "\nUser created successfully\n")
	_, _ = fmt.Fprintf(io.Writer, "  ID:       %s\n", user.ID)
	_, _ = fmt.Fprintf(io.Writer, "  Username: %s\n", user.Username)
	_, _ = fmt.Fprintf(io.Writer, "  Name:     %s\n", user.DisplayName)
	return nil
}
