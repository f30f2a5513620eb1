// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// ContentID returns the content-addressable key for a paper: the first 16
// hex characters of SHA-256 over the normalized title, a NUL byte and the
// normalized abstract. Two fetches of the same paper always map to the same
// key regardless of casing, punctuation or line wrapping.
func ContentID(title, abstract string) string {
	h := sha256.New()
	h.Write([]byte(Normalize(title)))
	h.Write([]byte{0})
	h.Write([]byte(Normalize(abstract)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Normalize returns a lowercased, punctuation-stripped, single-spaced
// version of s.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
