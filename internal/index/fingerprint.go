package index

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of the UTF-8 encoding of
// content: 64 lowercase hex characters. It is both the stored document
// hash and the change-detection key for incremental builds.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// isFingerprint reports whether s has the shape Fingerprint produces.
// Metadata entries carrying anything else are treated as unknown state,
// never trusted as a prior hash.
func isFingerprint(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
