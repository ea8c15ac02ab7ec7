// Package ident generates note hashcodes and possession tokens, and verifies
// tokens in constant time.
package ident

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
)

const hashcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// HashcodeLength is the length of a regular short hashcode.
const HashcodeLength = 8

// NewHashcode returns an 8-character identifier drawn from [A-Za-z0-9]
// using a cryptographically secure source. Uniqueness is the caller's
// concern: candidates must be checked against the store and regenerated
// on collision.
func NewHashcode() string {
	buf := make([]byte, HashcodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("ident: rand.Read: " + err.Error())
	}
	out := make([]byte, HashcodeLength)
	for i, b := range buf {
		out[i] = hashcodeAlphabet[int(b)%len(hashcodeAlphabet)]
	}
	return string(out)
}

// NewFallbackHashcode returns a 32-character hex identifier derived from a
// random 128-bit value. Used when repeated short-code generation keeps
// colliding; unique with overwhelming probability, so no store check is
// required.
func NewFallbackHashcode() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewEditToken returns a 32-character hex possession token (128 bits).
// Tokens are scoped to a single note, so collisions are not
// security-relevant and no uniqueness check is performed.
func NewEditToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewAccessToken returns a 64-character hex bearer credential (256 bits)
// for a Telegraph account.
func NewAccessToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("ident: rand.Read: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// Verify compares a provided token against the expected one. After a
// length check the comparison runs in time dependent only on the length,
// never on the position of the first mismatch. The length-based
// short-circuit leaks token length and is kept intentionally.
func Verify(provided, expected string) bool {
	if expected == "" || len(provided) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
