package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/utils"
)

// TokenTTL is the fixed lifetime of an identity token.
const TokenTTL = 15 * 24 * time.Hour

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	secret []byte
	clock  utils.Clock
}

// NewTokenService creates a TokenService signing with cfg.Secret.
func NewTokenService(cfg config.JWTConfig, clock utils.Clock) *TokenService {
	if clock == nil {
		clock = utils.NewRealClock()
	}
	return &TokenService{secret: []byte(cfg.Secret), clock: clock}
}

// Issue generates a JWT token for the given user
func (s *TokenService) Issue(userID uuid.UUID) (string, error) {
	now := s.clock.NowUtc()
	claims := JWTClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the user id it carries. Failures are
// apperr.ErrTokenExpired, apperr.ErrTokenInvalidSignature or
// apperr.ErrTokenMalformed.
func (s *TokenService) Verify(tokenString string) (uuid.UUID, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.NowUtc),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return uuid.Nil, apperr.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return uuid.Nil, apperr.ErrTokenInvalidSignature
		default:
			return uuid.Nil, fmt.Errorf("%w: %v", apperr.ErrTokenMalformed, err)
		}
	}
	if !token.Valid {
		return uuid.Nil, apperr.ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad userId claim", apperr.ErrTokenMalformed)
	}
	return id, nil
}
