package helper

import (
	"errors"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func hasLetterAndNumber(s string) bool {
	hasLetter := regexp.MustCompile(`[A-Za-z]`).MatchString(s)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(s)
	return hasLetter && hasNumber
}

func ValidateRegisterInput(fullName, email, password string) error {
	if strings.TrimSpace(fullName) == "" {
		return errors.New("full name is required")
	}
	if !isValidEmail(strings.TrimSpace(email)) {
		return errors.New("invalid email format")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !hasLetterAndNumber(password) {
		return errors.New("password must contain letters and numbers")
	}
	return nil
}

func ValidateLoginInput(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

func ValidateResetPassword(email, newPassword string) error {
	if !isValidEmail(strings.TrimSpace(email)) {
		return errors.New("invalid email format")
	}
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !hasLetterAndNumber(newPassword) {
		return errors.New("password must contain letters and numbers")
	}
	return nil
}
