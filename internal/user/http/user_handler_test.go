package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sessionHttp "github.com/astroeyes/authcore/internal/session/http"
	"github.com/astroeyes/authcore/internal/user/domain"
	"github.com/astroeyes/authcore/internal/user/http/dto"
	"github.com/astroeyes/authcore/internal/user/usecase/mocks"
)

func setupTestHandler(t *testing.T) (*UserHandler, *mocks.MockUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewUserHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func newTestUser() *domain.User {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "alice_wonder",
		DisplayName:  "Alice",
		PasswordHash: "$argon2id$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserHandler_RegisterHandler(t *testing.T) {
	request := dto.RegisterUserRequest{Username: "alice_wonder", Password: "Sup3r-Secret!", DisplayName: "Alice"}

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		user := newTestUser()
		mockUseCase.On("Register", mock.Anything, dto.ToRegisterInput(request)).Return(user, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", request)
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, user.ID.String(), response.ID)
		assert.Equal(t, "alice_wonder", response.Username)
		assert.NotContains(t, w.Body.String(), "argon2id")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrUserAlreadyExists).Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", request)
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_MissingFields", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", dto.RegisterUserRequest{})
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/register", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("{")))
		handler.RegisterHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_MeHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		user := newTestUser()
		mockUseCase.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/me", nil)
		c.Request = c.Request.WithContext(sessionHttp.WithSubject(c.Request.Context(), user.ID))
		handler.MeHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display_name":"Alice"`)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/me", nil)
		handler.MeHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		subjectID := uuid.Must(uuid.NewV7())
		mockUseCase.On("GetByID", mock.Anything, subjectID).Return(nil, domain.ErrUserNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/me", nil)
		c.Request = c.Request.WithContext(sessionHttp.WithSubject(c.Request.Context(), subjectID))
		handler.MeHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
