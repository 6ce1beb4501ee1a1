package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/fitaichain/fitchain/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims are the JWT claims carried by a session token.
type UserClaims struct {
	UserID           uint64                  `json:"uid"`
	VerificationType models.VerificationType `json:"vtype"`
	jwt.RegisteredClaims
}

// IssueUserToken mints a signed session token for a user.
func IssueUserToken(secret string, expiry time.Duration, user *models.User) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("security: missing jwt secret")
	}
	if user == nil {
		return "", fmt.Errorf("security: nil user")
	}
	if expiry <= 0 {
		expiry = 30 * 24 * time.Hour
	}

	now := time.Now().UTC()
	claims := UserClaims{
		UserID:           user.ID,
		VerificationType: user.VerificationType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseUserToken validates a session token and returns its claims.
func ParseUserToken(secret, tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !token.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	return claims, nil
}
