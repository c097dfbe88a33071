package validation

import (
	"testing"

	apperrors "playarena/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := New()
	v.Check(true, "amount", "must be positive")
	assert.True(t, v.Valid())
	assert.NoError(t, v.Err())

	v.Check(false, "upiId", "invalid UPI id")
	v.Check(false, "ifsc", "invalid IFSC code")
	assert.False(t, v.Valid())
	err := v.Err()
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.EqualError(t, err, "upiId: invalid UPI id; ifsc: invalid IFSC code")
}

func TestPayoutFormats(t *testing.T) {
	assert.True(t, ValidUPI("winner.99@okaxis"))
	assert.False(t, ValidUPI("no-handle"))
	assert.False(t, ValidUPI("a@1"))

	assert.True(t, ValidIFSC("HDFC0001234"))
	assert.True(t, ValidIFSC("sbin0000001"))
	assert.False(t, ValidIFSC("HDFC1001234"))
	assert.False(t, ValidIFSC("HDF0001234"))
}

type joinBody struct {
	InGameID   string `json:"inGameId" validate:"required,max=64"`
	InGameName string `json:"inGameName" validate:"required"`
	Method     string `json:"method" validate:"omitempty,oneof=upi bank"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(joinBody{InGameID: "5123", InGameName: "Sniper"}))

	err := Struct(joinBody{InGameName: "Sniper", Method: "cash"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	assert.EqualError(t, err, "inGameId: is required; method: must be one of upi bank")
}
