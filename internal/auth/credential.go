package auth

import (
	"crypto/rand"
	"fmt"
)

// ManagementPasswordLength is the fixed length of a management password.
const ManagementPasswordLength = 6

// Upper-case letters and digits without look-alikes (0/O, 1/I/L).
const credentialAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateManagementPassword returns a fresh random management password.
// Symbols are drawn by rejection sampling so every symbol is equally likely.
func GenerateManagementPassword() (string, error) {
	out := make([]byte, 0, ManagementPasswordLength)
	buf := make([]byte, ManagementPasswordLength*2)

	for len(out) < ManagementPasswordLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			idx := int(b & 0x1f)
			if idx >= len(credentialAlphabet) {
				continue
			}
			out = append(out, credentialAlphabet[idx])
			if len(out) == ManagementPasswordLength {
				break
			}
		}
	}
	return string(out), nil
}
