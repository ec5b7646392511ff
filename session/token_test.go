package session

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_RoundTrip(t *testing.T) {
	tk := NewTokens("s3cret", time.Hour)
	raw, err := tk.Issue(Principal{UID: "u-1", Email: "a@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	p, err := tk.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Principal{UID: "u-1", Email: "a@example.com", Role: RoleAdmin}, *p)
}

func TestTokens_Rejects(t *testing.T) {
	tk := NewTokens("s3cret", time.Hour)

	other, err := NewTokens("different", time.Hour).Issue(Principal{UID: "u-1"})
	require.NoError(t, err)

	expired, err := NewTokens("s3cret", -time.Minute).Issue(Principal{UID: "u-1"})
	require.NoError(t, err)

	noSubject, err := tk.Issue(Principal{Email: "a@example.com"})
	require.NoError(t, err)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   other,
		"expired":        expired,
		"no subject":     noSubject,
		"alg none":       none,
		"missing expiry": noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tk.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
