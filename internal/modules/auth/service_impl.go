package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ardentlabs/ardent-pos-backend/internal/modules/user"
	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the JWT claims issued at login. Role travels in the token so
// the guard can authorize without a user lookup per request.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

type service struct {
	userRepo user.Repository
	jwtKey   []byte
}

// NewService creates a new auth service signing tokens with the given key.
func NewService(userRepo user.Repository, jwtKey []byte) Service {
	return &service{userRepo: userRepo, jwtKey: jwtKey}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	if !u.IsActive {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		Role: string(u.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			ExpiresAt: expirationTime.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
