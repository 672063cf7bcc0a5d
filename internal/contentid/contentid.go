// Package contentid derives short, URL-safe identifiers from media content.
//
// The identifier is a pure function of the bytes: identical content always
// maps to the same identifier, which makes it both the deduplication key and
// the public-facing name of an item.
package contentid

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
)

// Length is the number of characters in a derived identifier.
const Length = 12

// Derive hashes the full content of r and encodes the digest as a URL-safe
// identifier of Length characters.
func Derive(r io.Reader) (string, error) {
	hasher := md5.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return FromDigest(hasher.Sum(nil)), nil
}

// DeriveBytes is a convenience wrapper over Derive for in-memory content.
func DeriveBytes(content []byte) string {
	digest := md5.Sum(content)
	return FromDigest(digest[:])
}

// FromDigest encodes a raw hash digest as an identifier. The encoding is
// base64 with the URL-safe alphabet ('+' becomes '-', '/' becomes '_'),
// truncated to Length characters.
func FromDigest(digest []byte) string {
	encoded := base64.URLEncoding.EncodeToString(digest)
	if len(encoded) > Length {
		encoded = encoded[:Length]
	}
	return encoded
}
