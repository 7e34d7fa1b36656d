// Package http provides the HTTP endpoints and middleware of the session
// lifecycle: login, refresh, revoke and bearer authentication.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	"github.com/astroeyes/authcore/internal/httputil"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
	"github.com/astroeyes/authcore/internal/session/http/dto"
	sessionUseCase "github.com/astroeyes/authcore/internal/session/usecase"
	userDomain "github.com/astroeyes/authcore/internal/user/domain"
	userUseCase "github.com/astroeyes/authcore/internal/user/usecase"
	customValidation "github.com/astroeyes/authcore/internal/validation"
)

// SessionHandler handles HTTP requests for the session lifecycle.
// Password checks are delegated to the user use case.
type SessionHandler struct {
	sessionUseCase sessionUseCase.SessionUseCase
	userUseCase    userUseCase.UseCase
	logger         *slog.Logger
	now            func() time.Time
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	sessionUseCase sessionUseCase.SessionUseCase,
	userUseCase userUseCase.UseCase,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		userUseCase:    userUseCase,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// LoginHandler authenticates a username and password and returns the device credential.
// POST /v1/auth/login - No authentication required.
// Returns 201 Created when a credential was minted and 200 OK when the device's
// live credential was reused.
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.Authenticate(c.Request.Context(), userDomain.AuthenticateInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	session, err := h.sessionUseCase.Login(c.Request.Context(), &sessionDomain.LoginInput{
		SubjectID: user.ID,
		DeviceID:  req.DeviceID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusCreated
	if session.Outcome == sessionDomain.OutcomeReused {
		status = http.StatusOK
	}

	c.JSON(status, dto.MapSessionToResponse(session, dto.MessageLoggedIn, h.now()))
}

// RefreshHandler renews a credential close to expiry.
// POST /v1/token/refresh - No authentication required; the body carries the credential.
// Returns 200 OK with the same credential when far from expiry, or the replacement.
func (h *SessionHandler) RefreshHandler(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	session, err := h.sessionUseCase.Refresh(c.Request.Context(), &sessionDomain.RefreshInput{
		Token:    req.AccessToken,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	message := dto.MessageRefreshed
	if session.Outcome == sessionDomain.OutcomeUnchanged {
		message = dto.MessageAlreadyValid
	}

	c.JSON(http.StatusOK, dto.MapSessionToResponse(session, message, h.now()))
}

// RevokeHandler ends the session of one device.
// POST /v1/token/revoke - No authentication required; the body carries the credential.
// Returns 200 OK, or 404 Not Found when the credential is unknown or already revoked.
func (h *SessionHandler) RevokeHandler(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err := h.sessionUseCase.Revoke(c.Request.Context(), &sessionDomain.RevokeInput{
		Token:    req.AccessToken,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: dto.MessageRevoked})
}

// RevokeAllHandler ends every session of the authenticated subject.
// POST /v1/token/revoke-all - Requires AuthenticationMiddleware.
func (h *SessionHandler) RevokeAllHandler(c *gin.Context) {
	subjectID, ok := GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	count, err := h.sessionUseCase.RevokeAll(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("revoked all sessions",
		slog.String("subject_id", subjectID.String()),
		slog.Int64("count", count))

	c.JSON(http.StatusOK, dto.RevokeAllResponse{Message: dto.MessageRevokedDevices, Revoked: count})
}
