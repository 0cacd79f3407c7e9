package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func sign(secret, payload []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("sk_test_secret")
	payload := []byte(`{"event":"charge.success","data":{"reference":"ardent_1_abc"}}`)
	good := sign(secret, payload)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		want      bool
	}{
		{name: "valid", payload: payload, signature: good, want: true},
		{name: "tampered payload", payload: append([]byte(nil), append(payload, ' ')...), signature: good, want: false},
		{name: "wrong secret", payload: payload, signature: sign([]byte("other"), payload), want: false},
		{name: "empty signature", payload: payload, signature: "", want: false},
		{name: "garbage signature", payload: payload, signature: "deadbeef", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(secret, tt.payload, tt.signature); got != tt.want {
				t.Errorf("VerifySignature = %v, want %v", got, tt.want)
			}
		})
	}
}
