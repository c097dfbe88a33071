package models

import "time"

// AdminLog records privileged actions for later review.
type AdminLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AdminID     uint      `gorm:"not null;index" json:"admin_id"`
	Action      string    `gorm:"type:varchar(64);not null" json:"action"`
	TargetType  string    `gorm:"type:varchar(32)" json:"target_type"`
	TargetID    string    `gorm:"type:varchar(64)" json:"target_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
