// Package hashing computes content hashes used for docref change detection.
//
// The hash is a change-detection token, not a security primitive. Canonical
// rules: the digest covers the document's raw source text with line endings
// normalized to LF, so checkouts with CRLF line endings hash identically to
// LF checkouts. Any other byte change (including whitespace) changes the hash.
package hashing

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex-encoded SHA-256 digest of the canonicalized content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(canonicalize(content))
	return hex.EncodeToString(sum[:])
}

// canonicalize normalizes line endings to LF. No other normalization is applied.
func canonicalize(content []byte) []byte {
	if !bytes.Contains(content, []byte("\r")) {
		return content
	}
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}
