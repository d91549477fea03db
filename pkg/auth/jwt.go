package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const audience = "authenticated"

var ErrInvalidToken = errors.New("invalid token")

type JWTServiceInterface interface {
	Enabled() bool
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims mirrors the access tokens issued by Supabase Auth.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.StandardClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// MetadataRole is the application role stored in user metadata at sign-up.
func (c *Claims) MetadataRole() string {
	role, _ := c.UserMetadata["role"].(string)
	return role
}

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// Enabled reports whether tokens can be checked locally.
func (s *JWTService) Enabled() bool {
	return len(s.secret) > 0
}

// ValidateToken accepts only Supabase access tokens: HMAC signed with the
// project secret, audience "authenticated" and a UUID subject. Tokens are
// issued by Supabase Auth, never by this service.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, errors.New("jwt secret is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !claims.VerifyAudience(audience, true) {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
