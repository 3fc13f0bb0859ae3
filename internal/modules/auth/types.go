package auth

import (
	"errors"
	"time"
)

type SignupDTO struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"max=100"`
	Password string `json:"password" binding:"required"`
}

type LoginDTO struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"device_id"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailDTO struct {
	Token string `json:"token" binding:"required"`
}

type ResendVerificationDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type RevokeSessionDTO struct {
	SessionID string `json:"session_id" binding:"required"`
}

type sessionResponse struct {
	ID       string    `json:"id"`
	DeviceID string    `json:"device_id,omitempty"`
	IP       string    `json:"ip"`
	UA       string    `json:"ua"`
	Date     time.Time `json:"date"`
	Current  bool      `json:"current"`
}

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errEmailTaken         = errors.New("email already registered")
	errUsernameTaken      = errors.New("username already taken")
	errNotVerified        = errors.New("email not verified")
	errTokenInvalid       = errors.New("token invalid or expired")
)
