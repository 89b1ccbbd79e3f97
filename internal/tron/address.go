package tron

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/btcsuite/btcd/btcutil/base58"
)

var txHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// IsValidTxHash reports whether s looks like a TRON transaction hash:
// exactly 64 hex characters.
func IsValidTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// IsValidAddress reports whether s has the shape of a mainnet TRON address:
// "T" followed by 33 base58 characters, checksum intact.
func IsValidAddress(s string) bool {
	if len(s) != 34 || s[0] != 'T' {
		return false
	}
	_, err := DecodeBase58Address(s)
	return err == nil
}

// DecodeBase58Address converts a base58check TRON address to the 0x41
// prefixed hex form used in raw transaction payloads.
func DecodeBase58Address(addr string) (string, error) {
	raw := base58.Decode(addr)
	if len(raw) != 25 {
		return "", fmt.Errorf("tron: address %q: bad length after base58 decode", addr)
	}
	payload, checksum := raw[:21], raw[21:]
	h1 := sha256.Sum256(payload)
	h2 := sha256.Sum256(h1[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != h2[i] {
			return "", fmt.Errorf("tron: address %q: checksum mismatch", addr)
		}
	}
	if payload[0] != 0x41 {
		return "", fmt.Errorf("tron: address %q: not a mainnet address", addr)
	}
	return hex.EncodeToString(payload), nil
}
