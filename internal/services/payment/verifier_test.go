package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier("gateway-secret")
	sig := v.SignOrder("order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid", "order_1", "pay_1", sig, true},
		{"other payment", "order_1", "pay_2", sig, false},
		{"other order", "order_2", "pay_1", sig, false},
		{"not hex", "order_1", "pay_1", "zz", false},
		{"empty", "order_1", "pay_1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.VerifySignature(tt.orderID, tt.paymentID, tt.signature))
		})
	}

	assert.False(t, NewHMACVerifier("").VerifySignature("order_1", "pay_1", sig))
	assert.False(t, NewHMACVerifier("other-secret").VerifySignature("order_1", "pay_1", sig))
}
