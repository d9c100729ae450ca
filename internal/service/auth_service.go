package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 12 * time.Hour

// Roles carried in the token's role claim.
const (
	RoleUser    = "user"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Principal is the caller identified by a bearer token.
type Principal struct {
	UserID int64
	Role   string
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// AuthService verifies and issues HMAC-signed tokens. Accounts live outside this service.
type AuthService struct {
	signingKey []byte
	ttl        time.Duration
}

func NewAuthService(signingKey string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{signingKey: []byte(signingKey), ttl: ttl}
}

// ParseToken parses JWT and returns the caller
func (s *AuthService) ParseToken(accessToken string) (Principal, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 || !validRole(claims.Role) {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// IssueToken signs a token for an externally authenticated account.
func (s *AuthService) IssueToken(userID int64, role string) (string, error) {
	if userID <= 0 || !validRole(role) {
		return "", fmt.Errorf("issue token: bad subject %d/%q", userID, role)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Role:   role,
	})
	return token.SignedString(s.signingKey)
}

func validRole(role string) bool {
	switch role {
	case RoleUser, RoleCompany, RoleAdmin:
		return true
	}
	return false
}
