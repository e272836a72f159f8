// Package token provides API auth token types and validation.
// All functions are pure - no side effects.
package token

import (
	"strings"
	"time"
)

// PrefixLen is how many leading characters of a secret are stored in clear
// for lookup; the rest is verified against the stored hash.
const PrefixLen = 12

// SecretLen is the minimum length of the random part of a secret, in hex
// characters.
const SecretLen = 40

// Token is a stored API auth token (immutable value type). The plaintext
// secret is never persisted; only its leading prefix and a bcrypt hash.
type Token struct {
	ID         string
	UserID     string
	Prefix     string
	SecretHash []byte
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// Reason explains why a token failed validation.
type Reason string

const (
	ReasonRevoked   Reason = "revoked"
	ReasonBadFormat Reason = "bad_format"
)

// ValidationResult is the outcome of validating a token.
type ValidationResult struct {
	Valid  bool
	Reason Reason
	Token  Token
}

// Validate checks whether a token is usable at the given time.
func Validate(t Token, now time.Time) ValidationResult {
	if t.RevokedAt != nil && !now.Before(*t.RevokedAt) {
		return ValidationResult{Valid: false, Reason: ReasonRevoked}
	}
	return ValidationResult{Valid: true, Token: t}
}

// ValidateFormat checks whether a raw secret has a plausible shape and
// returns the lookup prefix.
func ValidateFormat(rawSecret, expectedPrefix string) (prefix string, valid bool) {
	if !strings.HasPrefix(rawSecret, expectedPrefix) {
		return "", false
	}
	if len(rawSecret) < len(expectedPrefix)+SecretLen {
		return "", false
	}
	if len(rawSecret) < PrefixLen {
		return rawSecret, true
	}
	return rawSecret[:PrefixLen], true
}
