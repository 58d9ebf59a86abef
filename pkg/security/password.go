package security

import (
	"unicode"

	"github.com/ASHISH26940/vidface-api/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// Policy is the password strength policy applied at registration.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigits    bool
	RequireSpecial   bool
}

// DefaultPolicy requires eight characters with at least one digit and one
// non-alphanumeric character.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, RequireDigits: true, RequireSpecial: true}
}

// PolicyFromConfig builds the policy from the REQUIRE_* and MIN_PASSWORD_LENGTH settings.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		MinLength:        cfg.MinPasswordLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireDigits:    cfg.RequireDigits,
		RequireSpecial:   cfg.RequireSpecialChars,
	}
}

// ValidatePasswordStrength reports whether password satisfies p.
// Length is counted in runes. Any rune outside [A-Za-z0-9] is special, so a
// non-ASCII letter counts both as a letter and as a special character.
func (p Policy) ValidatePasswordStrength(password string) bool {
	var n int
	var upper, lower, digit, special bool
	for _, r := range password {
		n++
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
		special = special || !isASCIIAlnum(r)
	}
	if n < p.MinLength {
		return false
	}
	if p.RequireUppercase && !upper {
		return false
	}
	if p.RequireLowercase && !lower {
		return false
	}
	if p.RequireDigits && !digit {
		return false
	}
	if p.RequireSpecial && !special {
		return false
	}
	return true
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
