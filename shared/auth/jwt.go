package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret indicates no signing secret was configured.
	ErrMissingSecret = errors.New("jwt signing secret is not configured")

	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed token, wrong method, expiry. Callers must not learn which.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies stateless session tokens. The server keeps
// only the signing secret; token validity is re-derivable from signature and
// expiry alone.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
}

// NewTokenIssuer creates a TokenIssuer. It fails with ErrMissingSecret when
// the secret is empty so a misconfigured server cannot issue unsigned tokens.
func NewTokenIssuer(secret, issuer string, expiresIn time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &TokenIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		expiresIn: expiresIn,
	}, nil
}

// Issue generates a signed session token for the given user ID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(t.secret)
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// ExpiresIn returns the configured session lifetime.
func (t *TokenIssuer) ExpiresIn() time.Duration {
	return t.expiresIn
}

// Verify checks the token's signature and expiry and returns the subject
// user ID. All failures collapse to ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenStr string) (string, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}

		return t.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(t.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
