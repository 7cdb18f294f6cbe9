// Package token issues and verifies the signed bearer tokens that carry a
// user's identity between requests.
package token

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// Issue signs a token embedding the subject user ID with the configured
// expiry. Pure function of secret, input, and clock.
func (s *Service) Issue(subjectID int) (string, error) {
	claims := jwt.MapClaims{
		"sub": subjectID,
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify parses and validates a signed token and returns the subject user ID.
// A malformed, expired, or mis-signed token returns ok=false; failures are
// logged, never surfaced as errors to the caller.
func (s *Service) Verify(tokenStr string) (int, bool) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		slog.Debug("token rejected", "err", err)
		return 0, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		slog.Debug("token rejected", "err", "unexpected claims type")
		return 0, false
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		slog.Debug("token rejected", "err", "missing sub claim")
		return 0, false
	}
	return int(sub), true
}
