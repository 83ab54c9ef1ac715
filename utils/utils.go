package utils

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12

	// MinPasswordLength is counted in runes. bcrypt itself caps the input at
	// 72 bytes.
	MinPasswordLength = 8
)

var ErrPasswordTooShort = fmt.Errorf("organizer password must be at least %d characters", MinPasswordLength)

// HashPassword returns the bcrypt hash stored in ORGANIZER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("organizer password: %w", err)
	}
	return string(hash), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
