package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/echo88/core/internal/models"
	jwtpkg "github.com/echo88/core/internal/pkg/jwt"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// CookieName carries the signed access token.
	CookieName = "auth-token"
	// RefreshCookieName is cleared on logout alongside the access cookie.
	RefreshCookieName = "refresh-token"

	DefaultTTL = jwtpkg.AccessTTL
)

// Store persists login sessions and issues tokens bound to them.
type Store struct {
	db     *gorm.DB
	codec  *jwtpkg.Codec
	secure bool
}

// NewStore creates a session store. secure controls the cookie Secure flag
// (true in production).
func NewStore(db *gorm.DB, codec *jwtpkg.Codec, secure bool) *Store {
	return &Store{db: db, codec: codec, secure: secure}
}

// NewSessionID returns a fresh random 128-bit hex session id, generated
// independently of the token codec.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a DB session row and signs a token embedding its id.
func (s *Store) Issue(user *models.UserModel, deviceID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	sid, err := NewSessionID()
	if err != nil {
		return "", nil, err
	}

	row := &models.UserSession{
		UserID:    user.ID,
		DeviceID:  strings.TrimSpace(deviceID),
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: time.Now().Add(ttl),
	}
	row.ID = sid
	if err := s.db.Create(row).Error; err != nil {
		return "", nil, err
	}

	token, err := s.codec.Sign(jwtpkg.Payload{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		SessionID: sid,
		DeviceID:  row.DeviceID,
	}, ttl)
	if err != nil {
		_ = s.db.Delete(row).Error
		return "", nil, err
	}
	return token, row, nil
}

// IsActive reports whether the session row backing a token is still live.
// Tokens without a session id are never trusted.
func (s *Store) IsActive(userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, nil
	}

	var count int64
	err := s.db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Touch bumps the session's last-active timestamp, best effort.
func (s *Store) Touch(userID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = s.db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, userID, time.Now()).
		Update("updated_at", time.Now()).Error
}

// ListActive returns the user's live sessions, most recently active first.
func (s *Store) ListActive(userID string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := s.db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("updated_at DESC, created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Revoke marks a single session revoked.
func (s *Store) Revoke(userID, sessionID string) error {
	now := time.Now()
	res := s.db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeAll revokes every live session of the user, optionally keeping one.
func (s *Store) RevokeAll(userID, keepSessionID string) error {
	now := time.Now()
	query := s.db.Model(&models.UserSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if strings.TrimSpace(keepSessionID) != "" {
		query = query.Where("id <> ?", keepSessionID)
	}
	return query.Update("revoked_at", &now).Error
}

// PurgeDead hard-deletes sessions that expired or were revoked before the cutoff.
func (s *Store) PurgeDead(cutoff time.Time) (int64, error) {
	res := s.db.Unscoped().
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}

// SetAuthCookie writes the access token cookie with the standard attributes.
func (s *Store) SetAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(DefaultTTL/time.Second), "/", "", s.secure, true)
}

// ClearAuthCookies removes both auth cookies. Safe to call when absent.
func (s *Store) ClearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", s.secure, true)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", s.secure, true)
}
