package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type MatchStatus string

const (
	MatchUpcoming         MatchStatus = "upcoming"
	MatchRegistrationOpen MatchStatus = "registration_open"
	MatchRoomRevealed     MatchStatus = "room_revealed"
	MatchLive             MatchStatus = "live"
	MatchResultPending    MatchStatus = "result_pending"
	MatchCompleted        MatchStatus = "completed"
	MatchCancelled        MatchStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

// PreStart covers the states in which a player may still leave.
func (s MatchStatus) PreStart() bool {
	return s == MatchRegistrationOpen || s == MatchRoomRevealed
}

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchUpcoming, MatchRegistrationOpen, MatchRoomRevealed, MatchLive,
		MatchResultPending, MatchCompleted, MatchCancelled:
		return true
	}
	return false
}

// PrizeSlab is one row of a prize distribution.
type PrizeSlab struct {
	Position int             `json:"position"`
	Prize    decimal.Decimal `json:"prize"`
}

type PrizeDistribution []PrizeSlab

// PrizeFor returns the placement prize for position, zero when unplaced.
func (d PrizeDistribution) PrizeFor(position int) decimal.Decimal {
	if position <= 0 {
		return decimal.Zero
	}
	for _, slab := range d {
		if slab.Position == position {
			return slab.Prize
		}
	}
	return decimal.Zero
}

type Match struct {
	ID                     uint                                  `gorm:"primarykey" json:"id"`
	Title                  string                                `gorm:"not null" json:"title"`
	Game                   string                                `json:"game"`
	Status                 MatchStatus                           `gorm:"type:varchar(32);not null;index" json:"status"`
	MaxSlots               int                                   `gorm:"not null" json:"max_slots"`
	FilledSlots            int                                   `gorm:"not null;default:0" json:"filled_slots"`
	EntryFee               decimal.Decimal                       `gorm:"type:numeric(14,2);not null;default:0" json:"entry_fee"`
	PrizePool              decimal.Decimal                       `gorm:"type:numeric(14,2);not null;default:0" json:"prize_pool"`
	PerKillPrize           decimal.Decimal                       `gorm:"type:numeric(14,2);not null;default:0" json:"per_kill_prize"`
	PrizeDistribution      datatypes.JSONType[PrizeDistribution] `json:"prize_distribution"`
	RoomID                 string                                `json:"-"`
	RoomPassword           string                                `json:"-"`
	RoomCredentialsVisible bool                                  `gorm:"default:false" json:"room_credentials_visible"`
	ScheduledAt            time.Time                             `gorm:"not null;index" json:"scheduled_at"`
	RegistrationOpensAt    *time.Time                            `gorm:"index" json:"registration_opens_at,omitempty"`
	CancelReason           string                                `json:"cancel_reason,omitempty"`
	CreatedBy              uint                                  `json:"created_by"`
	StartedAt              *time.Time                            `json:"started_at,omitempty"`
	CompletedAt            *time.Time                            `json:"completed_at,omitempty"`
	CancelledAt            *time.Time                            `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time                             `json:"created_at"`
	UpdatedAt              time.Time                             `json:"updated_at"`

	Participants []MatchParticipant `gorm:"foreignKey:MatchID" json:"participants,omitempty"`
}

// Distribution unwraps the JSON column.
func (m *Match) Distribution() PrizeDistribution {
	return m.PrizeDistribution.Data()
}

// Participant returns the entry for userID, if any.
func (m *Match) Participant(userID uint) *MatchParticipant {
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			return &m.Participants[i]
		}
	}
	return nil
}

// RoomCredentials is the payload only joined players see after reveal.
// The match itself never serialises them.
type RoomCredentials struct {
	RoomID       string `json:"room_id"`
	RoomPassword string `json:"room_password"`
}

// MatchParticipant is one joined user and their slot.
type MatchParticipant struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	MatchID            uint            `gorm:"not null;uniqueIndex:idx_match_user;uniqueIndex:idx_match_slot" json:"match_id"`
	UserID             uint            `gorm:"not null;uniqueIndex:idx_match_user;index" json:"user_id"`
	SlotNumber         int             `gorm:"not null;uniqueIndex:idx_match_slot" json:"slot_number"`
	InGameID           string          `gorm:"not null" json:"in_game_id"`
	InGameName         string          `gorm:"not null" json:"in_game_name"`
	Kills              int             `gorm:"default:0" json:"kills"`
	Position           int             `gorm:"default:0" json:"position"`
	PrizeWon           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"prize_won"`
	EntryFeePaid       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"entry_fee_paid"`
	EntryTransactionID *uint           `json:"entry_transaction_id,omitempty"`
	Refunded           bool            `gorm:"default:false" json:"refunded"`
	JoinedAt           time.Time       `json:"joined_at"`
}
