// Package cache names the redis keys and channels shared across services.
package cache

import (
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityWallet        EntityType = "wallet"
	EntityWebhook       EntityType = "webhook"
	EntityNotifications EntityType = "notifications"
)

type KeyType string

const (
	KeyBalance KeyType = "balance"
	KeyEvent   KeyType = "event"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// Channel names a per-entity pub/sub channel such as notifications:42.
func Channel(entity EntityType, value interface{}) string {
	return fmt.Sprintf("%s:%v", entity, value)
}

// ParseKey splits a key built by GenerateKey.
func ParseKey(key string) (EntityType, KeyType, string, bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return EntityType(parts[0]), KeyType(parts[1]), parts[2], true
}
