package mail

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerifyEmail(t *testing.T) {
	html, err := renderTemplate(verifyEmailTpl, VerifyEmailData{
		Username:  "sam",
		VerifyURL: "https://echo88.app/verify-email?token=abc123",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Hi sam,")
	assert.Contains(t, html, "https://echo88.app/verify-email?token=abc123")
	assert.Contains(t, html, "Verify email")
}

func TestRenderResetPassword(t *testing.T) {
	html, err := renderTemplate(resetPasswordTpl, ResetPasswordData{
		Username: "sam",
		ResetURL: "https://echo88.app/reset-password?token=xyz",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "https://echo88.app/reset-password?token=xyz")
	assert.Contains(t, html, "Reset password")
}

func TestRenderEscapesUserContent(t *testing.T) {
	html, err := renderTemplate(verifyEmailTpl, VerifyEmailData{
		Username:  `<script>alert(1)</script>`,
		VerifyURL: "https://echo88.app/verify-email?token=t",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestIsSandboxError(t *testing.T) {
	assert.True(t, IsSandboxError(http.StatusForbidden, "You can only send testing emails to your own email address"))
	assert.True(t, IsSandboxError(http.StatusUnprocessableEntity, "Please verify a domain to send emails"))
	assert.False(t, IsSandboxError(http.StatusForbidden, "invalid API key"))
	assert.False(t, IsSandboxError(http.StatusInternalServerError, "testing emails"))
}

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(Config{Enable: false})
	err := s.Send(Message{To: []string{"a@b.c"}, Subject: "x", HTML: "y"})
	assert.NoError(t, err)
}
