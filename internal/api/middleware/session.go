package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUserEmail holds the key for user email in Gin context.
	ContextKeyUserEmail = "userEmail"
)

// SetSessionCookies installs the provider token pair as HTTP-only cookies.
func SetSessionCookies(c *gin.Context, cfg *config.Config, accessToken, refreshToken string) {
	maxAge := int(cfg.CookieMaxAge.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.AccessCookieName, accessToken, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(cfg.RefreshCookieName, refreshToken, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.AccessCookieName, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
	c.SetCookie(cfg.RefreshCookieName, "", -1, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}

// AccessTokenFromRequest extracts the access token from the Authorization
// header, falling back to the session cookie.
func AccessTokenFromRequest(c *gin.Context, cfg *config.Config) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if token, err := c.Cookie(cfg.AccessCookieName); err == nil {
		return token
	}
	return ""
}

// SessionMiddleware resolves the viewer's identity from the request, if any.
// Tokens are verified locally against the provider's signing secret; an
// expired access token is refreshed through the provider at most once, and
// the renewed pair is re-installed as cookies. Requests without a valid
// session pass through unauthenticated; RequireSession gates protected
// routes.
func SessionMiddleware(cfg *config.Config, provider auth.IProvider, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := AccessTokenFromRequest(c, cfg)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := auth.VerifyAccessToken(tokenString, cfg.AuthJwtSecret)
		if err != nil && errors.Is(err, jwt.ErrTokenExpired) {
			claims, err = refreshSession(c, cfg, provider, logger)
		}
		if err != nil {
			// A bad token is treated the same as no token.
			logger.Debug("rejecting access token", zap.Error(err))
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID())
		c.Set(ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

// refreshSession trades the refresh cookie for a new token pair and installs
// it. Only cookie-based sessions can refresh; bearer-only clients manage
// their own tokens.
func refreshSession(c *gin.Context, cfg *config.Config, provider auth.IProvider, logger *zap.Logger) (*auth.Claims, error) {
	refreshToken, err := c.Cookie(cfg.RefreshCookieName)
	if err != nil || refreshToken == "" {
		return nil, errors.New("access token expired and no refresh token present")
	}

	pair, err := provider.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		ClearSessionCookies(c, cfg)
		return nil, err
	}

	claims, err := auth.VerifyAccessToken(pair.AccessToken, cfg.AuthJwtSecret)
	if err != nil {
		return nil, err
	}

	SetSessionCookies(c, cfg, pair.AccessToken, pair.RefreshToken)
	logger.Debug("refreshed session", zap.String("user_id", claims.UserID()))
	return claims, nil
}

// RequireSession aborts with 401 unless SessionMiddleware resolved a user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextKeyUserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in."})
			return
		}
		c.Next()
	}
}
