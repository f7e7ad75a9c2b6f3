package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerKey maps a subject to a stable, path-safe storage namespace so patient
// identifiers never appear in object keys.
func OwnerKey(subject string) string {
	sum := sha256.Sum256([]byte("owner:" + subject))
	return hex.EncodeToString(sum[:16])
}

// TokenFingerprint identifies an opaque bearer token without retaining it.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:12])
}
