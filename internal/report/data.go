package report

import (
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/money"
)

// General is the content of the full gym report.
type General struct {
	GeneratedAt    time.Time
	ActiveMembers  int
	PendingMembers int
	TotalRevenue   money.Cents
	Payments       []model.Payment
}

// Daily is the content of the one-day report.
type Daily struct {
	Date           time.Time
	GeneratedAt    time.Time
	ActiveMembers  int
	PendingMembers int
	NewMembers     int
	Profit         money.Cents
	Payments       []model.Payment
}

func GeneralFilename(day time.Time) string {
	return "gym_report_" + day.Format("2006-01-02") + ".pdf"
}

func DailyFilename(day time.Time) string {
	return "daily_report_" + day.Format("2006-01-02") + ".pdf"
}
