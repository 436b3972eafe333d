// Package auth checks the single shared editor credential. There are
// no users or roles; anyone holding the credential may write.
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credential validates the shared password. Prefer the bcrypt hash;
// the plaintext form exists for local development only.
type Credential struct {
	hash  []byte
	plain []byte
}

// NewCredential returns nil when neither form is configured, which
// disables authentication entirely (internal tool default).
func NewCredential(bcryptHash, plaintext string) *Credential {
	if bcryptHash == "" && plaintext == "" {
		return nil
	}
	c := &Credential{}
	if bcryptHash != "" {
		c.hash = []byte(bcryptHash)
	}
	if plaintext != "" {
		c.plain = []byte(plaintext)
	}
	return c
}

// Match reports whether the presented password is the shared
// credential. A nil Credential matches everything.
func (c *Credential) Match(password string) bool {
	if c == nil {
		return true
	}
	if c.hash != nil {
		return bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare(c.plain, []byte(password)) == 1
}

// Enabled reports whether requests must present the credential.
func (c *Credential) Enabled() bool {
	return c != nil
}
