package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/user/vidscript-go/internal/config"
)

// ErrInvalidToken is returned for any credential the verifier rejects.
// Callers must not distinguish between malformed, expired, or forged tokens.
var ErrInvalidToken = errors.New("invalid authentication credentials")

// Verifier validates bearer tokens issued by the identity provider and
// extracts the caller's user id
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for HS256 tokens signed with the shared secret
func NewVerifier(cfg *config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret)}
}

// Verify checks the token signature and expiry and returns the subject claim
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
