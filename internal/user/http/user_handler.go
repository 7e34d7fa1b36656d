// Package http provides HTTP handlers for account registration and lookup.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	"github.com/astroeyes/authcore/internal/httputil"
	sessionHttp "github.com/astroeyes/authcore/internal/session/http"
	"github.com/astroeyes/authcore/internal/user/http/dto"
	"github.com/astroeyes/authcore/internal/user/usecase"
	customValidation "github.com/astroeyes/authcore/internal/validation"
)

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// RegisterHandler creates an account.
// POST /v1/auth/register - No authentication required.
// Returns 201 Created, or 409 Conflict when the username is taken.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Register(c.Request.Context(), dto.ToRegisterInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("user registered", slog.String("user_id", user.ID.String()))

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// MeHandler returns the account of the authenticated subject.
// GET /v1/me - Requires AuthenticationMiddleware.
func (h *UserHandler) MeHandler(c *gin.Context) {
	subjectID, ok := sessionHttp.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.userUseCase.GetByID(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
