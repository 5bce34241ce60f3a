// Package accounts hashes and verifies passwords, enforces the password
// policy and validates the account creation forms.
package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"awardbook/internal/validation"
)

// Scheme names a password hashing scheme.
type Scheme string

const (
	SchemePBKDF2 Scheme = "pbkdf2"
	SchemeBcrypt Scheme = "bcrypt"
)

// MaxPasswordLength bounds what will be hashed.
const MaxPasswordLength = 100

// Hasher turns a password into a stored credential and checks it later.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// NewHasher returns the hasher for scheme.
func NewHasher(scheme Scheme) (Hasher, error) {
	switch scheme {
	case SchemePBKDF2, "":
		return PBKDF2Hasher{}, nil
	case SchemeBcrypt:
		return BcryptHasher{}, nil
	}
	return nil, fmt.Errorf("unknown password scheme %q", scheme)
}

// PBKDF2 parameters. The stored credential is the 64 character hex salt
// followed by the 64 character hex key.
const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
	saltHexLen       = 64
	saltEntropy      = 60
)

// PBKDF2Hasher derives keys with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct {
	// Rand supplies salt entropy; crypto/rand when nil.
	Rand io.Reader
}

func (h PBKDF2Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", validation.Errorf(validation.WeakPassword, "password", "",
			"password must be at most %d characters long", MaxPasswordLength)
	}
	src := h.Rand
	if src == nil {
		src = rand.Reader
	}
	entropy := make([]byte, saltEntropy)
	if _, err := io.ReadFull(src, entropy); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	sum := sha256.Sum256(entropy)
	salt := hex.EncodeToString(sum[:])
	return salt + derive(password, salt), nil
}

func (PBKDF2Hasher) Verify(password, stored string) bool {
	if len(stored) != saltHexLen+2*pbkdf2KeyLen {
		return false
	}
	salt, want := stored[:saltHexLen], stored[saltHexLen:]
	return subtle.ConstantTimeCompare([]byte(derive(password, salt)), []byte(want)) == 1
}

func derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// BcryptHasher stores bcrypt credentials (60 characters).
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (BcryptHasher) Verify(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// Verify checks password against a stored credential of either scheme.
func Verify(password, stored string) bool {
	if strings.HasPrefix(stored, "$2") {
		return BcryptHasher{}.Verify(password, stored)
	}
	return PBKDF2Hasher{}.Verify(password, stored)
}
