package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/forumhub/forumhub/config"
)

// Claims is the bearer-token identity attached to requests. Tokens are issued
// by the external account service; this side only verifies them.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned when a token verifies but carries no usable
// claims.
var ErrInvalidToken = errors.New("invalid token claims")

// ParseToken validates an HS256 bearer token against the configured secret
// and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(config.Get().JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
