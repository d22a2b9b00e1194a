package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint identifies the exact content of a tabular input.
// Two runs over the same table produce the same fingerprint, which is
// recorded in run diagnostics so results can be traced back to their input.
type Fingerprint Hash

// NewFingerprint creates a fingerprint from raw bytes
func NewFingerprint(data []byte) Fingerprint {
	return Fingerprint(NewHash(data))
}

// String returns the string representation
func (f Fingerprint) String() string { return Hash(f).String() }

// IsEmpty checks if the fingerprint is empty
func (f Fingerprint) IsEmpty() bool { return Hash(f).IsEmpty() }

// ComputeTableFingerprint hashes a header list plus row cells in order.
// Cell values are joined with unit separators so that cell boundaries
// cannot collide with cell content.
func ComputeTableFingerprint(headers []string, rows [][]string) Fingerprint {
	var data strings.Builder
	data.WriteString(strings.Join(headers, "\x1f"))
	data.WriteString("\x1e")
	for _, row := range rows {
		data.WriteString(strings.Join(row, "\x1f"))
		data.WriteString("\x1e")
	}
	return NewFingerprint([]byte(data.String()))
}
