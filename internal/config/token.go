package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUserClaim is returned when a token carries no usable user id.
var ErrNoUserClaim = errors.New("token has no userId or sub claim")

// UserIDFromToken reads the learner id from a bearer token's userId or
// sub claim. The signature is not verified; the backend does that.
func UserIDFromToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	switch id := claims["userId"].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		return strconv.FormatInt(int64(id), 10), nil
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", ErrNoUserClaim
}
