package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns a short hex digest of input for use in cache keys.
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}
