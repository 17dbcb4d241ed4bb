// Package sharelink issues and verifies the signed tokens that gate
// anonymous receipt downloads. Tokens are HMAC-signed JWTs carrying the
// payment reference and an expiry; verification distinguishes an expired
// link from a tampered or malformed one so the HTTP layer can tell the
// caller which happened.
package sharelink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an issued link stays valid.
const DefaultTTL = 24 * time.Hour

var (
	// ErrLinkExpired means the token was well formed and correctly signed
	// but its validity window has passed.
	ErrLinkExpired = errors.New("share link expired")
	// ErrInvalidToken means the token is malformed, unsigned, or signed
	// with the wrong key.
	ErrInvalidToken = errors.New("invalid share token")
)

// Signer issues and verifies receipt share tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Signer. A non-positive ttl falls back to DefaultTTL.
func New(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns how long issued links stay valid.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

type shareClaims struct {
	PaymentReference string `json:"ref"`
	jwt.RegisteredClaims
}

// Issue returns a signed token granting access to the payment's receipt
// until the TTL elapses.
func (s *Signer) Issue(paymentReference string) (string, error) {
	now := s.now()
	claims := shareClaims{
		PaymentReference: paymentReference,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns the payment reference it grants.
// Returns ErrLinkExpired for a correctly signed but stale token and
// ErrInvalidToken for everything else.
func (s *Signer) Verify(tokenString string) (string, error) {
	claims := &shareClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrLinkExpired
		}
		return "", ErrInvalidToken
	}

	if claims.PaymentReference == "" {
		return "", ErrInvalidToken
	}
	return claims.PaymentReference, nil
}
