// Package checksum computes content digests used for HTTP validators.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong entity tag for text.
func ETag(text string) string {
	return `"` + Sum([]byte(text))[:32] + `"`
}
