// Package checksum fingerprints persisted documents. The digest lets the
// watcher skip self-writes and doubles as the HTTP entity tag.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag renders sum as a strong entity tag.
func ETag(sum string) string {
	if sum == "" {
		return ""
	}
	return `"` + sum + `"`
}

// FromETag extracts the digest from an If-Match value. Bare, quoted and weak
// tags are accepted; "*" and empty mean no precondition and yield "".
func FromETag(v string) string {
	v = strings.TrimSpace(v)
	if v == "*" {
		return ""
	}
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
