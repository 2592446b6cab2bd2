package service

import (
	"context"
	"database/sql"

	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/status"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/websocket"
)

type Payments struct {
	*env
}

func (s *Payments) Get(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := store.NewPaymentStore(s.db).GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *Payments) ListForMember(ctx context.Context, memberID int64) ([]model.Payment, error) {
	return store.NewPaymentStore(s.db).ListForMember(memberID)
}

// Record stores a payment for a member, recomputes the member's status and
// appends exactly one payment entry to the activity log.
func (s *Payments) Record(ctx context.Context, memberID int64, in PaymentInput) (*model.Payment, error) {
	now := s.clock()
	today := status.Date(now)
	if err := checkPayment(in, today); err != nil {
		return nil, err
	}

	var payment *model.Payment
	var tr status.Transition
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		m, err := store.NewMemberStore(tx).GetByID(memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMemberNotFound
		}
		payment, err = store.NewPaymentStore(tx).Create(memberID, in.Amount, in.Date, now)
		if err != nil {
			return err
		}
		if _, err := store.NewActivityLogStore(tx).Append(&m.ID, m.FullName, model.EventPayment, paymentDescription(m.FullName, payment), now); err != nil {
			return err
		}
		tr, err = refreshMember(tx, memberID, today, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded", "payment_id", payment.ID, "member_id", memberID, "amount", payment.Amount.Decimal())
	s.metrics.PaymentRecorded(payment.Amount)
	s.notifier.Broadcast(websocket.NewMessage("payment", "created", payment.ID, map[string]any{"member_id": memberID}))
	if tr != status.Unchanged {
		s.notifier.Broadcast(websocket.NewMessage("member", "updated", memberID, nil))
	}
	return payment, nil
}

// Update corrects a payment's amount or date and recomputes the member's
// status, since a changed date can move the member across the window.
func (s *Payments) Update(ctx context.Context, id int64, in PaymentInput) (*model.Payment, error) {
	now := s.clock()
	today := status.Date(now)
	if err := checkPayment(in, today); err != nil {
		return nil, err
	}

	var payment *model.Payment
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		ps := store.NewPaymentStore(tx)
		existing, err := ps.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrPaymentNotFound
		}
		payment, err = ps.Update(id, in.Amount, in.Date)
		if err != nil {
			return err
		}
		if payment.MemberID == nil {
			return nil
		}
		_, err = refreshMember(tx, *payment.MemberID, today, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment updated", "payment_id", id)
	s.notifier.Broadcast(websocket.NewMessage("payment", "updated", id, nil))
	return payment, nil
}

// Delete removes a payment and recomputes the member's status. It returns
// the deleted payment so callers can redirect back to its member.
func (s *Payments) Delete(ctx context.Context, id int64) (*model.Payment, error) {
	now := s.clock()
	today := status.Date(now)

	var payment *model.Payment
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		ps := store.NewPaymentStore(tx)
		var err error
		payment, err = ps.GetByID(id)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		if err := ps.Delete(id); err != nil {
			return err
		}
		if payment.MemberID == nil {
			return nil
		}
		_, err = refreshMember(tx, *payment.MemberID, today, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment deleted", "payment_id", id)
	s.notifier.Broadcast(websocket.NewMessage("payment", "deleted", id, nil))
	return payment, nil
}
