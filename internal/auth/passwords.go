package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"lxrose/internal/models"
)

func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns models.ErrInvalidCredentials on a mismatch.
func CheckPassword(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return models.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
	}
	return nil
}
