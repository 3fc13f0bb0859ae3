package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/echo88/core/internal/models"
)

const (
	resetTokenTTL  = time.Hour
	verifyTokenTTL = 24 * time.Hour
)

// NewOpaqueToken returns a random 256-bit hex token.
func NewOpaqueToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// IssueToken creates a fresh out-of-band token for the user, replacing any
// previously issued token of the same purpose. Latest wins.
func (s *Service) IssueToken(userID string, purpose models.TokenPurpose) (*models.AuthToken, error) {
	ttl := verifyTokenTTL
	if purpose == models.TokenPurposeReset {
		ttl = resetTokenTTL
	}

	if err := s.db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&models.AuthToken{}).Error; err != nil {
		return nil, err
	}

	row := models.AuthToken{
		UserID:    userID,
		Purpose:   purpose,
		Token:     NewOpaqueToken(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// RedeemToken consumes a token of the given purpose. A token can be redeemed
// at most once; unknown, expired and already-used tokens all fail the same way.
func (s *Service) RedeemToken(token string, purpose models.TokenPurpose) (*models.AuthToken, error) {
	if token == "" {
		return nil, errTokenInvalid
	}

	var row models.AuthToken
	if err := s.db.Where("token = ? AND purpose = ?", token, purpose).First(&row).Error; err != nil {
		return nil, errTokenInvalid
	}
	if !row.Usable(time.Now()) {
		return nil, errTokenInvalid
	}

	now := time.Now()
	res := s.db.Model(&models.AuthToken{}).
		Where("id = ? AND used_at IS NULL", row.ID).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race to a concurrent redemption
		return nil, errTokenInvalid
	}
	row.UsedAt = &now
	return &row, nil
}
