package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/mail"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	sessions *sessionpkg.Store
	mailer   *mail.Sender
	tasks    *taskqueue.Service
	logger   *zap.Logger
	webURL   string
}

func NewService(db *gorm.DB, sessions *sessionpkg.Store, mailer *mail.Sender, tasks *taskqueue.Service, logger *zap.Logger, webURL string) *Service {
	return &Service{
		db:       db,
		sessions: sessions,
		mailer:   mailer,
		tasks:    tasks,
		logger:   logger,
		webURL:   strings.TrimRight(webURL, "/"),
	}
}

// Signup creates an unverified account and dispatches the verification email.
func (s *Service) Signup(dto *SignupDTO) (*models.UserModel, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	username := strings.TrimSpace(dto.Username)

	var count int64
	s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, errEmailTaken
	}
	s.db.Model(&models.UserModel{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{
		Username: username,
		Email:    email,
		FullName: strings.TrimSpace(dto.FullName),
		Password: string(hash),
	}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}

	token, err := s.IssueToken(u.ID, models.TokenPurposeVerify)
	if err != nil {
		return nil, err
	}
	s.dispatchMail(taskqueue.MailVerify, u.Username, u.Email, token.Token)

	return &u, nil
}

// VerifyCredentials looks up a user by email or username and compares the
// password hash. Unknown user and wrong password fail identically.
func (s *Service) VerifyCredentials(identifier, password string) (*models.UserModel, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))

	var u models.UserModel
	err := s.db.Where("email = ? OR username = ?", id, strings.TrimSpace(identifier)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// burn a hash compare so timing does not reveal existence
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return &u, nil
}

// dummyHash is a bcrypt hash of an unguessable value, used to equalize
// compare time for unknown accounts.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Login verifies credentials, gates on email verification and opens a session.
func (s *Service) Login(dto *LoginDTO, ip, ua string) (string, *models.UserModel, error) {
	u, err := s.VerifyCredentials(dto.Identifier, dto.Password)
	if err != nil {
		return "", nil, err
	}
	if !u.EmailVerified {
		return "", u, errNotVerified
	}

	now := time.Now()
	if err := s.db.Model(u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	}).Error; err != nil {
		s.logger.Warn("last login update failed", zap.Error(err))
	}
	u.LastLoginTime = &now

	token, _, err := s.sessions.Issue(u, dto.DeviceID, ip, ua, sessionpkg.DefaultTTL)
	return token, u, err
}

// GetByID fetches a user, returning nil when the row no longer exists.
func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ForgotPassword issues a reset token and emails it when the account exists.
// The caller responds identically either way.
func (s *Service) ForgotPassword(email string) {
	var u models.UserModel
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return
	}

	token, err := s.IssueToken(u.ID, models.TokenPurposeReset)
	if err != nil {
		s.logger.Warn("reset token issue failed", zap.Error(err))
		return
	}

	if err := s.mailer.SendResetPassword(u.Email, mail.ResetPasswordData{
		Username: u.Username,
		ResetURL: fmt.Sprintf("%s/reset-password?token=%s", s.webURL, token.Token),
	}); err != nil {
		s.logger.Warn("reset email send failed", zap.Error(err))
	}
}

// ResetPassword redeems a reset token, updates the hash and revokes every
// open session for the account.
func (s *Service) ResetPassword(token, newPassword string) error {
	row, err := s.RedeemToken(token, models.TokenPurposeReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.Model(&models.UserModel{}).
		Where("id = ?", row.UserID).
		Update("password", string(hash)).Error; err != nil {
		return err
	}
	return s.sessions.RevokeAll(row.UserID, "")
}

// VerifyEmail redeems a verification token and flips the verified flag.
func (s *Service) VerifyEmail(token string) error {
	row, err := s.RedeemToken(token, models.TokenPurposeVerify)
	if err != nil {
		return err
	}
	return s.db.Model(&models.UserModel{}).
		Where("id = ?", row.UserID).
		Update("email_verified", true).Error
}

// ResendVerification issues a fresh verification token and sends it
// synchronously so provider sandbox failures can be surfaced. Unknown and
// already-verified accounts return nil, the caller answers uniformly.
func (s *Service) ResendVerification(email string) error {
	var u models.UserModel
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil || u.EmailVerified {
		return nil
	}

	token, err := s.IssueToken(u.ID, models.TokenPurposeVerify)
	if err != nil {
		s.logger.Warn("verification token issue failed", zap.Error(err))
		return nil
	}

	sendErr := s.mailer.SendVerifyEmail(u.Email, mail.VerifyEmailData{
		Username:  u.Username,
		VerifyURL: fmt.Sprintf("%s/verify-email?token=%s", s.webURL, token.Token),
	})
	if sendErr != nil {
		if errors.Is(sendErr, mail.ErrSandboxRestricted) {
			return sendErr
		}
		s.logger.Warn("verification email send failed", zap.Error(sendErr))
	}
	return nil
}

// PurgeExpiredTokens removes tokens past expiry or already consumed.
func (s *Service) PurgeExpiredTokens() (int64, error) {
	res := s.db.Where("expires_at < ? OR used_at IS NOT NULL", time.Now()).
		Delete(&models.AuthToken{})
	return res.RowsAffected, res.Error
}

func (s *Service) dispatchMail(kind, username, email, token string) {
	_, err := s.tasks.Enqueue(context.Background(), taskqueue.TypeSendMail, taskqueue.MailPayload{
		Kind:     kind,
		Username: username,
		Email:    email,
		Token:    token,
	}, "")
	if err != nil {
		s.logger.Warn("mail task enqueue failed", zap.Error(err))
	}
}
