package id

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// TokenBytes is the entropy behind every public invitation token.
const TokenBytes = 32

var reToken = regexp.MustCompile(`^[a-f0-9]{64}$`)

// NewToken returns an unguessable 64-char lowercase hex string used as the
// email_token in public upload/booking links.
func NewToken() string {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("id: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// IsToken reports whether s has the shape of a token issued by NewToken.
func IsToken(s string) bool { return reToken.MatchString(s) }
