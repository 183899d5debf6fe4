package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func HmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// MaskIdentifier hides a platform user id for log output. Real ids must
// never reach a log line in clear.
func MaskIdentifier(id string) string {
	if len(id) <= 2 {
		return "***"
	}
	return id[:2] + "***"
}
