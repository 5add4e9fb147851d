package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AuthJwtSecret:     "test-secret",
		AccessCookieName:  "em-access-token",
		RefreshCookieName: "em-refresh-token",
		CookieMaxAge:      time.Hour,
	}
}

// whoami registers a probe route that reports the resolved identity.
func sessionTestRouter(cfg *config.Config, provider *MockAuthProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.SessionMiddleware(cfg, provider, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.GetString(middleware.ContextKeyUserID),
			"email": c.GetString(middleware.ContextKeyUserEmail),
		})
	})
	r.GET("/protected", middleware.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestSessionMiddleware_NoToken(t *testing.T) {
	r := sessionTestRouter(testConfig(), new(MockAuthProvider))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestSessionMiddleware_ValidBearerToken(t *testing.T) {
	cfg := testConfig()
	r := sessionTestRouter(cfg, new(MockAuthProvider))

	userID := uuid.NewString()
	token, err := auth.SignAccessToken(userID, "seller@example.com", cfg.AuthJwtSecret, time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)
	assert.Contains(t, w.Body.String(), "seller@example.com")
}

func TestSessionMiddleware_ValidCookieToken(t *testing.T) {
	cfg := testConfig()
	r := sessionTestRouter(cfg, new(MockAuthProvider))

	userID := uuid.NewString()
	token, err := auth.SignAccessToken(userID, "seller@example.com", cfg.AuthJwtSecret, time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.AccessCookieName, Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)
}

func TestSessionMiddleware_GarbageTokenPassesThroughUnauthenticated(t *testing.T) {
	r := sessionTestRouter(testConfig(), new(MockAuthProvider))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestSessionMiddleware_WrongSecretRejected(t *testing.T) {
	cfg := testConfig()
	r := sessionTestRouter(cfg, new(MockAuthProvider))

	token, err := auth.SignAccessToken(uuid.NewString(), "", "some-other-secret", time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestSessionMiddleware_ExpiredTokenRefreshes(t *testing.T) {
	cfg := testConfig()
	mockProvider := new(MockAuthProvider)
	r := sessionTestRouter(cfg, mockProvider)

	userID := uuid.NewString()
	expired, err := auth.SignAccessToken(userID, "seller@example.com", cfg.AuthJwtSecret, -time.Minute)
	assert.NoError(t, err)
	fresh, err := auth.SignAccessToken(userID, "seller@example.com", cfg.AuthJwtSecret, time.Hour)
	assert.NoError(t, err)

	mockProvider.On("Refresh", mock.Anything, "refresh-abc").
		Return(&auth.TokenPair{AccessToken: fresh, RefreshToken: "refresh-def"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.AccessCookieName, Value: expired})
	req.AddCookie(&http.Cookie{Name: cfg.RefreshCookieName, Value: "refresh-abc"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID)

	// The renewed pair must come back as cookies.
	values := map[string]string{}
	for _, c := range w.Result().Cookies() {
		values[c.Name] = c.Value
	}
	assert.Equal(t, fresh, values[cfg.AccessCookieName])
	assert.Equal(t, "refresh-def", values[cfg.RefreshCookieName])
	mockProvider.AssertExpectations(t)
}

func TestSessionMiddleware_ExpiredTokenNoRefreshCookie(t *testing.T) {
	cfg := testConfig()
	mockProvider := new(MockAuthProvider)
	r := sessionTestRouter(cfg, mockProvider)

	expired, err := auth.SignAccessToken(uuid.NewString(), "", cfg.AuthJwtSecret, -time.Minute)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.AccessCookieName, Value: expired})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
	mockProvider.AssertNotCalled(t, "Refresh")
}

func TestSessionMiddleware_RefreshFailureClearsCookies(t *testing.T) {
	cfg := testConfig()
	mockProvider := new(MockAuthProvider)
	r := sessionTestRouter(cfg, mockProvider)

	expired, err := auth.SignAccessToken(uuid.NewString(), "", cfg.AuthJwtSecret, -time.Minute)
	assert.NoError(t, err)

	mockProvider.On("Refresh", mock.Anything, "refresh-abc").
		Return(nil, errors.New("refresh token revoked"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.AccessCookieName, Value: expired})
	req.AddCookie(&http.Cookie{Name: cfg.RefreshCookieName, Value: "refresh-abc"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
	for _, c := range w.Result().Cookies() {
		assert.True(t, c.MaxAge < 0, "cookie %s should be expired", c.Name)
	}
}

func TestRequireSession_Unauthenticated(t *testing.T) {
	r := sessionTestRouter(testConfig(), new(MockAuthProvider))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "You must be signed in.")
}

func TestRequireSession_Authenticated(t *testing.T) {
	cfg := testConfig()
	r := sessionTestRouter(cfg, new(MockAuthProvider))

	token, err := auth.SignAccessToken(uuid.NewString(), "", cfg.AuthJwtSecret, time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
