package blacklist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DomainSet separates set fingerprints from any other hash blup may compute.
// The version suffix allows the encoding to change later.
const DomainSet = "blup/set/v1"

// Fingerprint returns a content hash of s that is independent of insertion
// order: SHA256(DomainSet + 0x00 + canonical JSON of the sorted members).
// Two runs that computed the same desired set log the same fingerprint.
func Fingerprint(s Set) string {
	h := sha256.New()
	h.Write([]byte(DomainSet))
	h.Write([]byte{0x00})
	h.Write(marshalCanonical(s.Sorted()))
	return hex.EncodeToString(h.Sum(nil))
}

// marshalCanonical encodes names as a compact JSON array without HTML
// escaping, so '<', '>' and '&' hash as themselves.
func marshalCanonical(names []string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a []string cannot fail.
	_ = enc.Encode(names)
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
}
