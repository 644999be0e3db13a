// Package checksum fingerprints note sources.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag turns a digest from Sum into a strong entity tag. The first 16 hex
// digits are enough to tell revisions of one note apart.
func ETag(sum string) string {
	if len(sum) > 16 {
		sum = sum[:16]
	}
	return strconv.Quote(sum)
}

// Match reports whether an If-None-Match header value names tag.
func Match(header, tag string) bool {
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if part == tag {
			return true
		}
	}
	return false
}
