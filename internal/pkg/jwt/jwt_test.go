package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		UserID:    "u-1",
		Email:     "alice@example.com",
		Username:  "alice",
		SessionID: "s-1",
		DeviceID:  "d-1",
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	token, err := codec.Sign(testPayload(), AccessTTL)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "s-1", claims.SessionID)
	assert.Equal(t, "d-1", claims.DeviceID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	token, err := codec.Sign(testPayload(), AccessTTL)
	require.NoError(t, err)

	// Flip a byte in the signature segment.
	b := []byte(token)
	b[len(b)-2] ^= 0x01
	_, err = codec.Verify(string(b))
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewCodec("secret-a")
	require.NoError(t, err)
	verifier, err := NewCodec("secret-b")
	require.NoError(t, err)

	token, err := signer.Sign(testPayload(), AccessTTL)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	now := time.Now()
	claims := Claims{
		UserID:    "u-1",
		SessionID: "s-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwtlib.ClaimStrings{Audience},
			IssuedAt:  jwtlib.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuerOrAudience(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	sign := func(issuer, audience string) string {
		claims := Claims{
			UserID:    "u-1",
			SessionID: "s-1",
			RegisteredClaims: jwtlib.RegisteredClaims{
				Issuer:    issuer,
				Audience:  jwtlib.ClaimStrings{audience},
				IssuedAt:  jwtlib.NewNumericDate(time.Now()),
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, signErr := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, signErr)
		return token
	}

	_, err = codec.Verify(sign("someone-else", Audience))
	assert.Error(t, err)

	_, err = codec.Verify(sign(Issuer, "other-audience"))
	assert.Error(t, err)
}

func TestSignRequiresUserAndSession(t *testing.T) {
	codec, err := NewCodec("test-secret")
	require.NoError(t, err)

	_, err = codec.Sign(Payload{UserID: "u-1"}, AccessTTL)
	assert.Error(t, err)

	_, err = codec.Sign(Payload{SessionID: "s-1"}, AccessTTL)
	assert.Error(t, err)
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	_, err := NewCodec("  ")
	assert.Error(t, err)
}
