package util

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// MinPasswordLength 비밀번호 최소 길이
const MinPasswordLength = 4

var ErrPasswordTooShort = errors.New("password too short")

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidatePassword 공백만 있는 비밀번호와 너무 짧은 비밀번호를 거부
func ValidatePassword(password string) error {
	if len([]rune(strings.TrimSpace(password))) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
