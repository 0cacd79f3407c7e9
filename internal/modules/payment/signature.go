package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// maxWebhookBody bounds how much payload the webhook endpoint reads before
// hashing.
const maxWebhookBody = 1 << 20 // 1 MiB

// VerifySignature checks a webhook payload against the shared secret using
// HMAC-SHA512. The comparison is constant-time.
func VerifySignature(secret, payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
