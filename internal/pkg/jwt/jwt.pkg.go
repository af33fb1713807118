package jwt

import (
	"errors"
	"fmt"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/validation"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 24 * time.Hour

var ErrMissingSecret = errors.New("jwt secret is not configured")

type shellClaims struct {
	Shell types.ShellClaims `json:"shell"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for a UI shell instance.
func GenerateToken(secret string, data types.ShellClaims) (string, *time.Time, error) {
	if secret == "" {
		return "", nil, ErrMissingSecret
	}
	exp := time.Now().Add(TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, shellClaims{
		Shell: data,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   data.UserID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, &exp, nil
}

// ValidateToken accepts the raw token with or without a "Bearer " prefix.
func ValidateToken(secret, raw string) (*types.ShellClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

	var claims shellClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if err = validation.Validate(claims.Shell); err != nil {
		return nil, err
	}
	return &claims.Shell, nil
}
