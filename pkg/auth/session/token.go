package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	tokenBytes = 32
	CodeLength = 6
)

var codeSpace = big.NewInt(1_000_000)

// GenerateToken returns 256 random bits, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateCode returns a uniformly distributed, zero padded 6 digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generating auth code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
