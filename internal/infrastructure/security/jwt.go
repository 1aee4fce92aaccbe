// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// UserClaims is the decoded identity carried by a TapX bearer token.
type UserClaims struct {
	UserID    string
	Email     string
	ProfileID string
}

// GenerateUserToken creates a signed JWT for an authenticated seller.
func GenerateUserToken(userID, email, profileID, jwtSecret string, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":        userID,
		"email":      email,
		"profile_id": profileID,
		"iat":        now.Unix(),
		"exp":        now.Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateUserToken validates a bearer token and returns the user claims.
func ValidateUserToken(tokenString, jwtSecret string) (*UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, errors.New("token missing subject")
	}
	email, _ := claims["email"].(string)
	profileID, _ := claims["profile_id"].(string)

	return &UserClaims{UserID: userID, Email: email, ProfileID: profileID}, nil
}
