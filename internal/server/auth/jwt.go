// Package auth signs and verifies the session cookie that remembers which
// ROM a browser uploaded last.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session identifies the active game of one client.
type Session struct {
	Identifier string `json:"identifier"`
	ContentKey string `json:"content_key"`
}

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Session
}

func GenerateToken(s Session, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Session: s,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return tokenString, nil
}

// ParseToken verifies tokenString and returns its session. Expired tokens
// yield common.ErrTokenExpired, any other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, common.ErrTokenExpired
		}
		return Session{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.ContentKey == "" {
		return Session{}, common.ErrInvalidToken
	}
	return claims.Session, nil
}
