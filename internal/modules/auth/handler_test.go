package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	NewHandler(svc).RegisterRoutes(r.Group(""), pass, pass)
	return r, svc
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSignupRespondsOK(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(r, "/auth/signup",
		`{"username":"newbie","email":"newbie@example.com","password":"Str0ngPass"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"newbie"`)
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	r, svc := newTestRouter(t)
	signupTestUser(t, svc, "alice")

	w := postJSON(r, "/auth/signup",
		`{"username":"other","email":"alice@example.com","password":"Str0ngPass"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestForgotPasswordUniformResponse(t *testing.T) {
	r, svc := newTestRouter(t)
	signupTestUser(t, svc, "alice")

	known := postJSON(r, "/auth/forgot-password", `{"email":"alice@example.com"}`)
	unknown := postJSON(r, "/auth/forgot-password", `{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestResendVerificationUniformResponse(t *testing.T) {
	r, svc := newTestRouter(t)
	signupTestUser(t, svc, "alice")

	known := postJSON(r, "/auth/resend-verification", `{"email":"alice@example.com"}`)
	unknown := postJSON(r, "/auth/resend-verification", `{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestLoginUnverifiedCarriesFlag(t *testing.T) {
	r, svc := newTestRouter(t)
	u := signupTestUser(t, svc, "alice")

	w := postJSON(r, "/auth/login",
		`{"identifier":"alice@example.com","password":"Str0ngPass"}`)

	require.Equal(t, http.StatusForbidden, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"requiresVerification":true`)
	assert.Contains(t, body, u.ID)
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	r, svc := newTestRouter(t)
	signupTestUser(t, svc, "alice")

	w := postJSON(r, "/auth/login",
		`{"identifier":"alice@example.com","password":"WrongPass1"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
