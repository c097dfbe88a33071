package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks the checkout signature the gateway returns to the client.
type SignatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

// HMACVerifier signs payloads with HMAC-SHA256 and a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// VerifySignature expects hex(HMAC-SHA256(orderID + "|" + paymentID)).
func (v *HMACVerifier) VerifySignature(orderID, paymentID, signature string) bool {
	return v.Verify([]byte(orderID+"|"+paymentID), signature)
}

// Verify compares signature against the HMAC of payload in constant time.
func (v *HMACVerifier) Verify(payload []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(v.mac(payload), expected)
}

func (v *HMACVerifier) Sign(payload []byte) string {
	return hex.EncodeToString(v.mac(payload))
}

// SignOrder produces the checkout signature for orderID and paymentID.
func (v *HMACVerifier) SignOrder(orderID, paymentID string) string {
	return v.Sign([]byte(orderID + "|" + paymentID))
}

func (v *HMACVerifier) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write(payload)
	return h.Sum(nil)
}
