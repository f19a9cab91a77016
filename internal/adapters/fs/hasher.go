package fs

import "github.com/cespare/xxhash/v2"

// Fingerprint returns the XXHash of content.
func Fingerprint(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// FingerprintString returns the XXHash of s.
func FingerprintString(s string) uint64 {
	return xxhash.Sum64String(s)
}
