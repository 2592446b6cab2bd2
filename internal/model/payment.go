package model

import (
	"time"

	"github.com/Kauanrodrigues01/academy/internal/money"
)

type Payment struct {
	ID          int64       `json:"id"`
	MemberID    *int64      `json:"member_id"`
	Amount      money.Cents `json:"amount_cents"`
	PaymentDate time.Time   `json:"payment_date"`
	CreatedAt   time.Time   `json:"created_at"`

	// MemberName is joined in for listings and reports; empty once the
	// member has been deleted.
	MemberName string `json:"member_name,omitempty"`
}

const orphanPaymentLabel = "Pagamento sem aluno associado"

// PayerLabel names the member who paid, or marks the payment as orphaned.
func (p *Payment) PayerLabel() string {
	if p.MemberID == nil || p.MemberName == "" {
		return orphanPaymentLabel
	}
	return p.MemberName
}
