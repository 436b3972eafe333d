package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewCredentialDisabledWhenUnset(t *testing.T) {
	c := NewCredential("", "")
	if c.Enabled() {
		t.Errorf("empty configuration must disable authentication")
	}
	if !c.Match("anything") {
		t.Errorf("disabled credential must match every password")
	}
}

func TestMatchPlaintext(t *testing.T) {
	c := NewCredential("", "letmein")
	if !c.Enabled() {
		t.Fatalf("expected credential to be enabled")
	}
	if !c.Match("letmein") {
		t.Errorf("correct password rejected")
	}
	if c.Match("wrong") {
		t.Errorf("wrong password accepted")
	}
	if c.Match("") {
		t.Errorf("empty password accepted")
	}
}

func TestMatchBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	c := NewCredential(string(hash), "")
	if !c.Match("letmein") {
		t.Errorf("correct password rejected")
	}
	if c.Match("wrong") {
		t.Errorf("wrong password accepted")
	}
}

func TestBcryptHashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	c := NewCredential(string(hash), "plain")
	if !c.Match("hashed") {
		t.Errorf("hash form should decide the match")
	}
	if c.Match("plain") {
		t.Errorf("plaintext form must be ignored when a hash is set")
	}
}
