package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	Issuer   = "echo88"
	Audience = "echo88-users"

	// AccessTTL is the lifetime of the cookie-borne access token.
	AccessTTL = 7 * 24 * time.Hour
	// RefreshTTL is the preset for long-lived refresh tokens.
	RefreshTTL = 30 * 24 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

// Claims is the signed session payload.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	DeviceID  string `json:"did,omitempty"`
	jwtlib.RegisteredClaims
}

// Payload is the caller-facing input to Sign.
type Payload struct {
	UserID    string
	Email     string
	Username  string
	SessionID string
	DeviceID  string
}

// Codec signs and verifies session tokens with a symmetric secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. The secret must be non-empty.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt: empty signing secret")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Sign creates a signed token for the given payload with the given ttl.
func (c *Codec) Sign(p Payload, ttl time.Duration) (string, error) {
	if p.UserID == "" || p.SessionID == "" {
		return "", errors.New("jwt: user id and session id are required")
	}
	if ttl <= 0 {
		ttl = AccessTTL
	}
	now := time.Now()
	claims := Claims{
		UserID:    p.UserID,
		Email:     p.Email,
		Username:  p.Username,
		SessionID: p.SessionID,
		DeviceID:  p.DeviceID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwtlib.ClaimStrings{Audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify validates a token string and returns its claims. Signature, issuer,
// audience and expiry failures all collapse into a single error so callers
// cannot distinguish the cause.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwtlib.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithAudience(Audience),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}
