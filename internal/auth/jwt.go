package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Validator checks HMAC-signed access tokens and extracts the display name
// used on the chat topic. Chat works without a token too, the broker then
// assigns a guest name.
type Validator struct {
	secret []byte
}

// NewValidator builds a Validator over the shared signing secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// DisplayName validates a token and returns the participant's display name:
// the "name" claim when present, the subject otherwise.
func (v *Validator) DisplayName(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		return name, nil
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Sign issues a token for the given display name, used by tests and the
// debug token route.
func (v *Validator) Sign(name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  name,
		"name": name,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
