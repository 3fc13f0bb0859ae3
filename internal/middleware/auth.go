package middleware

import (
	"errors"
	"strings"

	"github.com/echo88/core/internal/pkg/jwt"
	"github.com/echo88/core/internal/pkg/response"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeySID      = "session_id"
	ContextKeyDeviceID = "device_id"
)

// Authenticator validates bearer tokens and resolves them to live sessions.
type Authenticator struct {
	codec *jwt.Codec
	store *sessionpkg.Store
}

func NewAuthenticator(codec *jwt.Codec, store *sessionpkg.Store) *Authenticator {
	return &Authenticator{codec: codec, store: store}
}

// Require returns a middleware that enforces authentication.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.Validate(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		setClaims(c, claims)
		a.store.Touch(claims.UserID, claims.SessionID)
		c.Next()
	}
}

// Optional sets the user ID if a valid token is present, but does not block the request.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.Validate(extractToken(c)); err == nil {
			setClaims(c, claims)
			a.store.Touch(claims.UserID, claims.SessionID)
		}
		c.Next()
	}
}

// Validate parses a raw token and checks the backing session is still live.
func (a *Authenticator) Validate(rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	active, err := a.store.IsActive(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeySID, claims.SessionID)
	if claims.DeviceID != "" {
		c.Set(ContextKeyDeviceID, claims.DeviceID)
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// CurrentDeviceID extracts the device ID from context.
func CurrentDeviceID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyDeviceID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// extractToken looks for credentials in the auth cookie, the Authorization
// header, then the token query param.
func extractToken(c *gin.Context) string {
	if raw, err := c.Cookie(sessionpkg.CookieName); err == nil {
		if token := NormalizeToken(raw); token != "" {
			return token
		}
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
