// Package dhash computes the data verification hashes used to detect
// relevant changes to previously approved data.
// This is part of the Functional Core - no I/O, only pure functions.
package dhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// placeholder stands in for empty values so that "a", "" and "", "a"
// hash differently.
const placeholder = "***"

// Compute produces a verification hash from an ordered list of values.
// Empty values are rendered as "***" before joining with "#".
func Compute(values ...string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			parts[i] = placeholder
		} else {
			parts[i] = v
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "#")))
	return hex.EncodeToString(sum[:])
}
