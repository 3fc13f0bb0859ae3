package auth

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echo88/core/internal/models"
	jwtpkg "github.com/echo88/core/internal/pkg/jwt"
	"github.com/echo88/core/internal/pkg/mail"
	redisc "github.com/echo88/core/internal/pkg/redis"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/echo88/core/internal/pkg/taskqueue"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{}, &models.AuthToken{}, &models.UserSession{},
	))

	codec, err := jwtpkg.NewCodec("test-signing-secret")
	require.NoError(t, err)
	sessions := sessionpkg.NewStore(db, codec, false)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	tasks := taskqueue.NewService(redisc.Wrap(rdb))

	svc := NewService(db, sessions, mail.New(mail.Config{}), tasks, zap.NewNop(), "http://localhost:5173")
	return svc, db
}

func signupTestUser(t *testing.T, svc *Service, username string) *models.UserModel {
	t.Helper()
	u, err := svc.Signup(&SignupDTO{
		Username: username,
		Email:    username + "@example.com",
		Password: "Str0ngPass",
	})
	require.NoError(t, err)
	return u
}

func TestResetTokenLatestWins(t *testing.T) {
	svc, _ := newTestService(t)
	u := signupTestUser(t, svc, "alice")

	first, err := svc.IssueToken(u.ID, models.TokenPurposeReset)
	require.NoError(t, err)
	second, err := svc.IssueToken(u.ID, models.TokenPurposeReset)
	require.NoError(t, err)

	_, err = svc.RedeemToken(first.Token, models.TokenPurposeReset)
	assert.ErrorIs(t, err, errTokenInvalid)

	row, err := svc.RedeemToken(second.Token, models.TokenPurposeReset)
	require.NoError(t, err)
	assert.Equal(t, u.ID, row.UserID)
}

func TestTokenSingleRedemption(t *testing.T) {
	svc, _ := newTestService(t)
	u := signupTestUser(t, svc, "alice")

	token, err := svc.IssueToken(u.ID, models.TokenPurposeReset)
	require.NoError(t, err)

	_, err = svc.RedeemToken(token.Token, models.TokenPurposeReset)
	require.NoError(t, err)

	_, err = svc.RedeemToken(token.Token, models.TokenPurposeReset)
	assert.ErrorIs(t, err, errTokenInvalid)
}

func TestRedeemExpiredToken(t *testing.T) {
	svc, db := newTestService(t)
	u := signupTestUser(t, svc, "alice")

	row := models.AuthToken{
		UserID:    u.ID,
		Purpose:   models.TokenPurposeReset,
		Token:     NewOpaqueToken(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&row).Error)

	_, err := svc.RedeemToken(row.Token, models.TokenPurposeReset)
	assert.ErrorIs(t, err, errTokenInvalid)
}

func TestRedeemWrongPurpose(t *testing.T) {
	svc, _ := newTestService(t)
	u := signupTestUser(t, svc, "alice")

	token, err := svc.IssueToken(u.ID, models.TokenPurposeVerify)
	require.NoError(t, err)

	_, err = svc.RedeemToken(token.Token, models.TokenPurposeReset)
	assert.ErrorIs(t, err, errTokenInvalid)
}

func TestLoginGatedUntilVerified(t *testing.T) {
	svc, db := newTestService(t)
	u := signupTestUser(t, svc, "alice")
	dto := &LoginDTO{Identifier: u.Email, Password: "Str0ngPass"}

	_, gated, err := svc.Login(dto, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, errNotVerified)
	require.NotNil(t, gated)
	assert.Equal(t, u.ID, gated.ID)

	var verifyToken models.AuthToken
	require.NoError(t, db.First(&verifyToken,
		"user_id = ? AND purpose = ?", u.ID, models.TokenPurposeVerify).Error)
	require.NoError(t, svc.VerifyEmail(verifyToken.Token))

	session, logged, err := svc.Login(dto, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, session)
	assert.True(t, logged.EmailVerified)
	assert.NotNil(t, logged.LastLoginTime)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	svc, db := newTestService(t)
	u := signupTestUser(t, svc, "alice")
	require.NoError(t, db.Model(u).Update("email_verified", true).Error)

	dto := &LoginDTO{Identifier: u.Email, Password: "Str0ngPass"}
	_, _, err := svc.Login(dto, "127.0.0.1", "test-agent")
	require.NoError(t, err)

	token, err := svc.IssueToken(u.ID, models.TokenPurposeReset)
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(token.Token, "N3wStrongPass"))

	_, _, err = svc.Login(dto, "127.0.0.1", "test-agent")
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, _, err = svc.Login(&LoginDTO{Identifier: u.Email, Password: "N3wStrongPass"}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
}
