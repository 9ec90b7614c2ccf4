package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// digestOf computes the canonical content digest over a type tag and an
// ordered list of field encodings. Fields are separated by a NUL byte so that
// field boundaries cannot be shifted by field content. The field order per
// entity type is a wire contract: changing it invalidates all stored hashes.
func digestOf(kind string, fields ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, field := range fields {
		h.Write([]byte{0})
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
