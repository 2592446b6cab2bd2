package model

import "time"

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventPayment EventType = "payment"
	EventPending EventType = "pending"
)

func (e EventType) Valid() bool {
	switch e {
	case EventCreated, EventUpdated, EventDeleted, EventPayment, EventPending:
		return true
	}
	return false
}

// Label is the Portuguese name shown in the activity feed.
func (e EventType) Label() string {
	switch e {
	case EventCreated:
		return "Cadastro"
	case EventUpdated:
		return "Atualização"
	case EventDeleted:
		return "Exclusão"
	case EventPayment:
		return "Pagamento"
	case EventPending:
		return "Pendência"
	}
	return string(e)
}

// ActivityLog is an append-only audit entry. MemberID becomes nil when the
// member is deleted; MemberName keeps the name as it was when logged.
type ActivityLog struct {
	ID          int64     `json:"id"`
	MemberID    *int64    `json:"member_id"`
	MemberName  string    `json:"member_name"`
	EventType   EventType `json:"event_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
