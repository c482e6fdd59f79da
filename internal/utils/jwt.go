package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService creates and validates JWT tokens.
type JWTService struct {
	secretKey string
}

// NewJWTService creates a new JWTService instance.
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{secretKey: secretKey}
}

// GenerateToken creates a JWT token for a user.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// GenerateAdminToken creates a JWT token carrying the admin claim.
func (s *JWTService) GenerateAdminToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"email":    email,
		"is_admin": true,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken parses and verifies a JWT token.
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secretKey), nil
	})
}

// ExtractUserID validates a token and returns the user_id claim.
func (s *JWTService) ExtractUserID(tokenString string) (string, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("token has no user_id claim")
	}
	return userID, nil
}

// IsAdminToken validates a token and reports whether it carries the admin claim.
func (s *JWTService) IsAdminToken(tokenString string) bool {
	token, err := s.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	isAdmin, ok := claims["is_admin"].(bool)
	return ok && isAdmin
}
