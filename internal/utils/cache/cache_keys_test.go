package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "wallet:balance:42", GenerateKey(EntityWallet, KeyBalance, uint(42)))
	assert.Equal(t, "webhook:event:evt_1", GenerateKey(EntityWebhook, KeyEvent, "evt_1"))
	assert.Equal(t, "notifications:7", Channel(EntityNotifications, uint(7)))

	entity, kind, value, ok := ParseKey("webhook:event:evt:with:colons")
	assert.True(t, ok)
	assert.Equal(t, EntityWebhook, entity)
	assert.Equal(t, KeyEvent, kind)
	assert.Equal(t, "evt:with:colons", value)

	_, _, _, ok = ParseKey("wallet")
	assert.False(t, ok)
}
