package model

import "time"

type Member struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	StartDate time.Time `json:"start_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastPaymentDate is filled by list queries; nil when the member never paid.
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
}

// StatusLabel is the label shown in member tables.
func (m *Member) StatusLabel() string {
	if m.IsActive {
		return "Ativo"
	}
	return "Pendente"
}
