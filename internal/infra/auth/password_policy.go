package auth

import (
	"unicode"
	"unicode/utf8"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
)

type passwordPolicy struct {
	minLength int
	maxLength int
}

// NewPasswordPolicy builds the strength predicate from config.
// Character-class requirements are always enforced; config may only raise the minimum length.
func NewPasswordPolicy(cfg *config.Config) service.PasswordPolicy {
	p := &passwordPolicy{minLength: config.MinPasswordLength}
	if cfg.PasswordStrength != nil {
		if cfg.PasswordStrength.MinLength > p.minLength {
			p.minLength = cfg.PasswordStrength.MinLength
		}
		p.maxLength = cfg.PasswordStrength.MaxLength
	}

	return p
}

// IsStrong reports whether password has the minimum length and at least one
// upper-case letter, lower-case letter, digit and symbol.
func (p *passwordPolicy) IsStrong(password string) bool {
	length := utf8.RuneCountInString(password)
	if length < p.minLength {
		return false
	}
	if p.maxLength > 0 && length > p.maxLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSymbol
}
