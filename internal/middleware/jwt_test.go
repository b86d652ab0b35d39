package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/utils"
)

func newTestTokens(t *testing.T, secret string) (*TokenService, *utils.StubClock) {
	t.Helper()
	clock := utils.NewStubClock()
	clock.SetNow(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	return NewTokenService(config.JWTConfig{Secret: secret}, clock), clock
}

func TestTokenService_IssueVerifyRoundTrip(t *testing.T) {
	tokens, _ := newTestTokens(t, "super-secret")
	id := uuid.New()

	tok, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenService_ClaimsShape(t *testing.T) {
	tokens, clock := newTestTokens(t, "super-secret")
	id := uuid.New()

	tok, err := tokens.Issue(id)
	require.NoError(t, err)

	claims := &JWTClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, clock.NowUtc().Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, clock.NowUtc().Add(TokenTTL).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenService_Expiry(t *testing.T) {
	tokens, clock := newTestTokens(t, "super-secret")
	id := uuid.New()
	tok, err := tokens.Issue(id)
	require.NoError(t, err)

	clock.Advance(TokenTTL - time.Second)
	_, err = tokens.Verify(tok)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = tokens.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestTokenService_Failures(t *testing.T) {
	tokens, _ := newTestTokens(t, "right-secret")
	other, _ := newTestTokens(t, "wrong-secret")
	id := uuid.New()

	foreign, err := other.Issue(id)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		UserID:           id.String(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))},
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID: id.String(),
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "wrong secret", token: foreign, want: apperr.ErrTokenInvalidSignature},
		{name: "alg none", token: unsigned, want: apperr.ErrTokenInvalidSignature},
		{name: "garbage", token: "not.a.jwt", want: apperr.ErrTokenMalformed},
		{name: "empty", token: "", want: apperr.ErrTokenMalformed},
		{name: "missing user id", token: noUser, want: apperr.ErrTokenMalformed},
		{name: "missing exp", token: noExp, want: apperr.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, uuid.Nil, got)
		})
	}
}
