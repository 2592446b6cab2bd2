package model

import (
	"time"

	"github.com/Kauanrodrigues01/academy/internal/money"
)

// DailyReport is the end-of-day snapshot kept for history.
type DailyReport struct {
	ID             int64       `json:"id"`
	Date           time.Time   `json:"date"`
	ActiveMembers  int         `json:"active_members"`
	PendingMembers int         `json:"pending_members"`
	NewMembers     int         `json:"new_members"`
	Profit         money.Cents `json:"profit_cents"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
