package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	a, err := NewSessionID()
	require.NoError(t, err)
	b, err := NewSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestSetAuthCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	store := NewStore(nil, nil, true)
	store.SetAuthCookie(c, "tok-123")

	res := w.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)

	ck := cookies[0]
	assert.Equal(t, CookieName, ck.Name)
	assert.Equal(t, "tok-123", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, int(DefaultTTL.Seconds()), ck.MaxAge)
}

func TestClearAuthCookiesIsIdempotent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	store := NewStore(nil, nil, false)
	store.ClearAuthCookies(c)
	store.ClearAuthCookies(c)

	names := map[string]int{}
	for _, ck := range w.Result().Cookies() {
		names[ck.Name]++
		assert.Negative(t, ck.MaxAge)
	}
	assert.Contains(t, names, CookieName)
	assert.Contains(t, names, RefreshCookieName)
}
