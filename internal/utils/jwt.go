package utils

import (
	"errors"
	"strconv"
	"time"

	"playarena/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs an access token for claims. Permissions default to the
// role's set when empty.
func GenerateToken(secret, issuer string, ttl time.Duration, claims models.UserClaims) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string.
func ParseToken(secret, tokenStr string) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
