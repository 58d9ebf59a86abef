package handlers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ASHISH26940/vidface-api/pkg/security"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

var supportedLanguages = map[string]bool{
	"en": true, "es": true, "fr": true, "de": true, "it": true,
	"pt": true, "ru": true, "ja": true, "ko": true, "zh": true,
}

// validationError is a client input error; its text is returned to the caller.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", invalid("Invalid email format")
	}
	return email, nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return "", invalid("Username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", invalid("Username can only contain letters, numbers, and underscores")
	}
	return strings.ToLower(username), nil
}

// cleanText trims value and checks its length and content.
func cleanText(field, value string, min, max int) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	if n < min {
		return "", invalid("%s must be at least %d characters", field, min)
	}
	if n > max {
		return "", invalid("%s must be at most %d characters", field, max)
	}
	if !security.IsSafe(value) {
		return "", invalid("%s contains potentially malicious content", field)
	}
	return value, nil
}

func normalizeLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "en", nil
	}
	if !supportedLanguages[lang] {
		return "", invalid("Unsupported language: %s", lang)
	}
	return lang, nil
}
