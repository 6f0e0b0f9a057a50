package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC returns the lowercase hex HMAC-SHA256 of payload under secret.
func SignHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// EqualSignatures compares two signatures in constant time. Signatures of
// different length never match.
func EqualSignatures(expected, provided string) bool {
	return hmac.Equal([]byte(expected), []byte(provided))
}
