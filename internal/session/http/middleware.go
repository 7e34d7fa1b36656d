package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	"github.com/astroeyes/authcore/internal/httputil"
	sessionUseCase "github.com/astroeyes/authcore/internal/session/usecase"
)

const bearerPrefix = "bearer "

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// AuthenticationMiddleware resolves the Bearer credential of the request to a
// subject and stores it in the request context for GetSubject.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Credential that fails verification → 401 Unauthorized
//   - Token store unavailable → 503 Service Unavailable
func AuthenticationMiddleware(
	resolver sessionUseCase.IdentityResolver,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		subjectID, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithSubject(c.Request.Context(), subjectID))
		c.Next()
	}
}
