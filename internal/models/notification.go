package models

import "time"

// Notification types
const (
	NotificationMatchJoined      = "match_joined"
	NotificationMatchCancelled   = "match_cancelled"
	NotificationRoomRevealed     = "room_revealed"
	NotificationPrizeCredited    = "prize_credited"
	NotificationWithdrawalUpdate = "withdrawal_update"
	NotificationDepositCompleted = "deposit_completed"
)

type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"type:varchar(32);not null" json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RefType   string    `gorm:"type:varchar(32)" json:"ref_type,omitempty"`
	RefID     string    `gorm:"type:varchar(64)" json:"ref_id,omitempty"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
