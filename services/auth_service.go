package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/league-draw/utils"
)

const (
	RoleOrganizer = "organizer"
	tokenTTL      = 24 * time.Hour
)

// AuthService issues organizer tokens. There are no user accounts: whoever
// knows the organizer password may run draws.
type AuthService struct {
	passwordHash string
	jwtSecret    []byte
	now          func() time.Time
}

func NewAuthService(passwordHash string, jwtSecret []byte) *AuthService {
	return &AuthService{passwordHash: passwordHash, jwtSecret: jwtSecret, now: time.Now}
}

// IssueToken checks password and returns a signed HS256 token together with
// its expiry.
func (s *AuthService) IssueToken(_ context.Context, password string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, fmt.Errorf("%w: password is required", ErrValidationFailed)
	}
	if !utils.CheckPasswordHash(password, s.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":  RoleOrganizer,
		"role": RoleOrganizer,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

var errEmptySecret = errors.New("jwt secret is empty")

// Validate reports configuration problems found at startup.
func (s *AuthService) Validate() error {
	if len(s.jwtSecret) == 0 {
		return errEmptySecret
	}
	if s.passwordHash == "" {
		return fmt.Errorf("%w: organizer password hash is empty", ErrValidationFailed)
	}
	return nil
}
