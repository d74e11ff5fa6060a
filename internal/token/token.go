// Package token generates the opaque identifiers and secrets handed out by
// the API: poll and slot ids, host keys and anonymous voter keys.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Byte lengths of the random payloads. Ids carry 48 bits behind a short
// prefix; secrets carry 144 bits.
const (
	idBytes     = 6
	secretBytes = 18

	maxVoterKeyLen = 64
)

// Prefixes used for generated ids.
const (
	PollPrefix = "p"
	SlotPrefix = "s"
)

// NewID returns prefix + "_" + 12 lowercase hex chars.
func NewID(prefix string) (string, error) {
	s, err := randomHex(idBytes)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "_" + s, nil
}

// NewSecret returns 36 lowercase hex chars. Used for host keys and voter keys.
func NewSecret() (string, error) {
	s, err := randomHex(secretBytes)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return s, nil
}

// Equal compares a presented secret with the stored one in constant time.
// An empty presented value never matches.
func Equal(presented, stored string) bool {
	if presented == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

// ValidVoterKey reports whether k is acceptable as a client supplied voter
// key: 1..64 chars drawn from [A-Za-z0-9_-].
func ValidVoterKey(k string) bool {
	if k == "" || len(k) > maxVoterKeyLen {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
