package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
)

// SessionHandler bridges browser sessions to the hosted auth provider. The
// provider owns credentials and token issuance; this service only installs
// the resulting tokens as cookies and resolves identities from them.
type SessionHandler struct {
	cfg      *config.Config
	provider auth.IProvider
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(cfg *config.Config, provider auth.IProvider, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{cfg: cfg, provider: provider, logger: logger}
}

type setSessionRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetSession handles POST /auth/set-session: a client that completed sign-in
// against the provider hands over its token pair to be stored as cookies.
func (h *SessionHandler) SetSession(c *gin.Context) {
	var req setSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken == "" || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tokens"})
		return
	}

	if _, err := auth.VerifyAccessToken(req.AccessToken, h.cfg.AuthJwtSecret); err != nil {
		// The access token may simply have expired in transit; try one refresh
		// before rejecting.
		pair, refreshErr := h.provider.Refresh(c.Request.Context(), req.RefreshToken)
		if refreshErr != nil {
			h.logger.Debug("set-session rejected", zap.Error(err), zap.NamedError("refresh_error", refreshErr))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session tokens"})
			return
		}
		req.AccessToken, req.RefreshToken = pair.AccessToken, pair.RefreshToken
	}

	middleware.SetSessionCookies(c, h.cfg, req.AccessToken, req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// Callback handles GET /auth/callback?code=&next=: the provider redirects
// here after sign-in with a one-time code to exchange for a session.
func (h *SessionHandler) Callback(c *gin.Context) {
	next := sanitizeNext(c.Query("next"), "/account")

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape("Missing sign-in code"))
		return
	}

	pair, err := h.provider.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("sign-in code exchange failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape("Sign-in failed"))
		return
	}

	middleware.SetSessionCookies(c, h.cfg, pair.AccessToken, pair.RefreshToken)
	c.Redirect(http.StatusFound, next)
}

// Logout handles POST|GET /logout: revoke the provider session and clear
// cookies. Sign-out failures are not surfaced; the cookies are gone either
// way.
func (h *SessionHandler) Logout(c *gin.Context) {
	next := sanitizeNext(c.Query("next"), "/browse")

	if token := middleware.AccessTokenFromRequest(c, h.cfg); token != "" {
		if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
			h.logger.Debug("provider sign-out failed", zap.Error(err))
		}
	}

	middleware.ClearSessionCookies(c, h.cfg)
	c.Redirect(http.StatusFound, next)
}

// Me handles GET /v1/me: the identity behind the current session.
func (h *SessionHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    userID,
		"email": c.GetString(middleware.ContextKeyUserEmail),
	})
}

// sanitizeNext only allows local redirect targets; anything absolute falls
// back to the default to keep this from becoming an open redirect.
func sanitizeNext(next, fallback string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && next[1] == '/') {
		return fallback
	}
	return next
}

// RegisterSessionRoutes wires the session bridge endpoints.
func RegisterSessionRoutes(r *gin.Engine, handler *SessionHandler) {
	r.POST("/auth/set-session", handler.SetSession)
	r.GET("/auth/callback", handler.Callback)
	r.POST("/logout", handler.Logout)
	r.GET("/logout", handler.Logout)
	r.GET("/v1/me", handler.Me)
}
