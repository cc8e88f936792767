package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Secret checks candidate admin passwords. A bcrypt hash takes precedence
// over the plain value when both are configured.
type Secret struct {
	plain []byte
	hash  []byte
}

// NewSecret builds a Secret; an empty hash means plain comparison.
func NewSecret(plain, hash string) Secret {
	s := Secret{plain: []byte(plain)}
	if hash != "" {
		s.hash = []byte(hash)
	}
	return s
}

// Verify reports whether candidate matches. An empty candidate never does.
func (s Secret) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	if s.hash != nil {
		return bcrypt.CompareHashAndPassword(s.hash, []byte(candidate)) == nil
	}
	if len(s.plain) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(s.plain, []byte(candidate)) == 1
}
