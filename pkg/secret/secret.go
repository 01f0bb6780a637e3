// Package secret generates the random secrets mailed out for email
// verification and password reset, and derives the hash they are stored under.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the number of random bytes in a generated secret.
const Size = 64

// Generate returns a hex encoded random secret suffixed with accountID.
func Generate(accountID string) (string, error) {
	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf) + accountID, nil
}

// Hash is the lookup hash for raw. It is unsalted so equal secrets hash equally.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
