package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// ErrSandboxRestricted is returned when the Resend API rejects a send
// because the account is in testing mode and the recipient is outside
// the verified domain. Callers surface this differently from generic
// provider failures.
var ErrSandboxRestricted = errors.New("mail provider in sandbox mode")

// Config holds mail provider settings.
type Config struct {
	Enable    bool   `json:"enable"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	From      string `json:"from"`
	ReplyTo   string `json:"reply_to"`
	UseResend bool   `json:"use_resend"`
	ResendKey string `json:"resend_key"`
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails via SMTP or Resend.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.UseResend && s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

func (s *Sender) sendSMTP(msg Message) error {
	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", s.cfg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, host)
	return smtp.SendMail(addr, auth, from, msg.To, body.Bytes())
}

func (s *Sender) sendResend(msg Message) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if IsSandboxError(resp.StatusCode, errResp.Message) {
			return fmt.Errorf("%w: %s", ErrSandboxRestricted, errResp.Message)
		}
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}

// IsSandboxError reports whether a Resend API failure is the testing-mode
// restriction rather than a genuine send failure.
func IsSandboxError(status int, message string) bool {
	if status != http.StatusForbidden && status != http.StatusUnprocessableEntity {
		return false
	}
	m := strings.ToLower(message)
	return strings.Contains(m, "testing email") || strings.Contains(m, "verify a domain") || strings.Contains(m, "own email address")
}

const verifyEmailTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Verify your email</h2>
  <p>Hi {{.Username}},</p>
  <p>Welcome to echo88! Please confirm your email address to activate your account:</p>
  <p style="margin-top:24px">
    <a href="{{.VerifyURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Verify email</a>
  </p>
  <p style="color:#999;font-size:12px">This link expires in 24 hours. If you did not create an account, you can safely ignore this email.</p>
  <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.<br />&copy;{{year}} echo88</p>
</div>
</body>
</html>`

const resetPasswordTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Reset your password</h2>
  <p>Hi {{.Username}},</p>
  <p>We received a request to reset the password for your echo88 account. Click the button below to choose a new one:</p>
  <p style="margin-top:24px">
    <a href="{{.ResetURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Reset password</a>
  </p>
  <p style="color:#999;font-size:12px">This link expires in 1 hour. If you did not request a reset, your password is unchanged and no action is needed.</p>
  <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This is an automated message, please do not reply.<br />&copy;{{year}} echo88</p>
</div>
</body>
</html>`

// VerifyEmailData is the data for account verification emails.
type VerifyEmailData struct {
	Username  string
	VerifyURL string
}

// ResetPasswordData is the data for password reset emails.
type ResetPasswordData struct {
	Username string
	ResetURL string
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendVerifyEmail sends the account activation email.
func (s *Sender) SendVerifyEmail(to string, data VerifyEmailData) error {
	html, err := renderTemplate(verifyEmailTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: "Verify your echo88 email",
		HTML:    html,
	})
}

// SendResetPassword sends the password reset email.
func (s *Sender) SendResetPassword(to string, data ResetPasswordData) error {
	html, err := renderTemplate(resetPasswordTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: "Reset your echo88 password",
		HTML:    html,
	})
}
