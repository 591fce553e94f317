package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "sessionToken"

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// IssueToken signs the session id into an HS256 JWT that expires at exp.
func IssueToken(id string, exp time.Time, secret []byte) (string, error) {
	claims := Claims{
		Typ: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseToken verifies token and returns the session id it carries.
func ParseToken(token string, secret []byte) (string, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Typ != "session" || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
