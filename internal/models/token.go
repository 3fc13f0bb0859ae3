package models

import "time"

// TokenPurpose distinguishes out-of-band token flows.
type TokenPurpose string

const (
	TokenPurposeReset  TokenPurpose = "reset"
	TokenPurposeVerify TokenPurpose = "verify"
)

// AuthToken is a single-use, time-limited opaque token delivered by email
// (password reset, email verification). A new issuance for the same user and
// purpose replaces the previous one.
type AuthToken struct {
	Base
	UserID    string       `json:"user_id"    gorm:"index;not null"`
	Purpose   TokenPurpose `json:"purpose"    gorm:"index;not null"`
	Token     string       `json:"-"          gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time    `json:"expires_at" gorm:"index;not null"`
	UsedAt    *time.Time   `json:"used_at"    gorm:"index"`
}

func (AuthToken) TableName() string { return "auth_tokens" }

// Usable reports whether the token can still be redeemed at the given time.
func (t AuthToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
