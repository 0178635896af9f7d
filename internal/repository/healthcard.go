package repository

import (
	"encoding/hex"
	"fmt"
)

// Health card numbers are stored hex-encoded. This is an opaque legacy
// storage convention carried over from the previous system, not a security
// control; the plaintext never leaves this package boundary encoded.

func encodeHealthCard(hcn string) string {
	return hex.EncodeToString([]byte(hcn))
}

func decodeHealthCard(stored string) (string, error) {
	b, err := hex.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decoding stored health card number: %w", err)
	}
	return string(b), nil
}
