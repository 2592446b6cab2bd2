// Package status derives a member's activity status from payment recency.
package status

import "time"

type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
)

// WindowDays is how long a payment keeps a member active. A payment made
// exactly WindowDays ago still counts.
const WindowDays = 30

// Date truncates t to its calendar day, expressed as midnight UTC. Dates
// taken from different locations compare by their wall-clock day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Cutoff is the oldest payment date that still keeps a member active on today.
func Cutoff(today time.Time) time.Time {
	return Date(today).AddDate(0, 0, -WindowDays)
}

// IsActive reports whether a member whose latest payment is lastPayment is
// active on today. A member without payments is never active.
func IsActive(lastPayment *time.Time, today time.Time) bool {
	if lastPayment == nil {
		return false
	}
	return !Date(*lastPayment).Before(Cutoff(today))
}

// Compute returns the status for the given latest payment.
func Compute(lastPayment *time.Time, today time.Time) Status {
	if IsActive(lastPayment, today) {
		return StatusActive
	}
	return StatusPending
}

// Transition describes a status change for one member.
type Transition int

const (
	Unchanged Transition = iota
	Activated
	Deactivated
)

// Diff compares the stored flag with the freshly derived one.
func Diff(wasActive, isActive bool) Transition {
	switch {
	case !wasActive && isActive:
		return Activated
	case wasActive && !isActive:
		return Deactivated
	}
	return Unchanged
}
