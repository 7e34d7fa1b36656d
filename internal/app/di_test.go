package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astroeyes/authcore/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		LogLevel:              "error",
		DBDriver:              config.DriverMemory,
		SecretKey:             "0123456789abcdef0123456789abcdef",
		TokenIssuer:           "authcore-test",
		AccessTokenTTL:        7 * 24 * time.Hour,
		TokenRenewalThreshold: 24 * time.Hour,
		ServerHost:            "localhost",
		ServerPort:            8080,
	}
}

func TestNewContainer(t *testing.T) {
	cfg := memoryConfig()
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "invalid"})
	assert.Nil(t, container.logger)

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
	assert.True(t, logger.Enabled(context.Background(), 0))
}

func TestContainer_InitializationErrorsAreSticky(t *testing.T) {
	container := NewContainer(&config.Config{DBDriver: "invalid_driver"})

	_, err := container.DB()
	require.Error(t, err)

	_, err2 := container.DB()
	assert.Equal(t, err, err2)

	_, err = container.SessionUseCase()
	assert.Error(t, err)
}

func TestContainer_SigningKeysRejectShortSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.SecretKey = "short"

	_, err := NewContainer(cfg).CredentialCodec()
	assert.Error(t, err)
}

func TestContainer_MemoryDriver(t *testing.T) {
	container := NewContainer(memoryConfig())

	db, err := container.DB()
	require.NoError(t, err)
	assert.Nil(t, db)

	txManager, err := container.TxManager()
	require.NoError(t, err)
	tokenRepo, err := container.TokenRepository()
	require.NoError(t, err)
	assert.Same(t, txManager, tokenRepo, "memory transactions must cover the token store")

	bm, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, bm)

	metricsServer, err := container.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, metricsServer)
}

func TestContainer_HTTPServerEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	container := NewContainer(memoryConfig())
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	server, err := container.HTTPServer()
	require.NoError(t, err)
	handler := server.GetHandler()

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/ready", "", "").Code)

	w := do(http.MethodPost, "/v1/auth/register",
		`{"username":"alice_wonder","password":"Sup3r-Secret!","display_name":"Alice"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	login := `{"username":"alice_wonder","password":"Sup3r-Secret!","device_id":"phone"}`
	w = do(http.MethodPost, "/v1/auth/login", login, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session struct {
		AccessToken string `json:"access_token"`
		Outcome     string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "issued", session.Outcome)

	w = do(http.MethodPost, "/v1/auth/login", login, "")
	assert.Equal(t, http.StatusOK, w.Code, "second login on the same device reuses the credential")

	w = do(http.MethodGet, "/v1/me", "", session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"username":"alice_wonder"`)

	w = do(http.MethodPost, "/v1/token/revoke-all", "", session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"revoked":1`)

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/v1/me", "", session.AccessToken).Code)

	w = do(http.MethodPost, "/v1/auth/login",
		`{"username":"alice_wonder","password":"wrong-Passw0rd!","device_id":"phone"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContainer_Shutdown(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "info"})
	assert.NoError(t, container.Shutdown(context.Background()))
}
