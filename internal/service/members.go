package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/status"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/websocket"
)

// MemberInput holds the editable member fields.
type MemberInput struct {
	FullName string
	Email    string
	Phone    string
}

// PaymentInput is one payment as entered at the front desk.
type PaymentInput struct {
	Amount money.Cents
	Date   time.Time
}

type Members struct {
	*env
}

func (s *Members) Get(ctx context.Context, id int64) (*model.Member, error) {
	m, err := store.NewMemberStore(s.db).GetByID(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (s *Members) List(ctx context.Context, f store.MemberFilter) (*store.MemberPage, error) {
	return store.NewMemberStore(s.db).List(f)
}

// Activity lists the log entries of one member, oldest first.
func (s *Members) Activity(ctx context.Context, id int64) ([]model.ActivityLog, error) {
	return store.NewActivityLogStore(s.db).ListForMember(id)
}

// Create registers a member with today's start date and, when initial is
// not nil, records the first payment in the same transaction.
func (s *Members) Create(ctx context.Context, in MemberInput, initial *PaymentInput) (*model.Member, error) {
	now := s.clock()
	today := status.Date(now)
	if initial != nil {
		if err := checkPayment(*initial, today); err != nil {
			return nil, err
		}
	}

	var member *model.Member
	var payment *model.Payment
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		ms := store.NewMemberStore(tx)
		taken, err := ms.EmailExists(in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		member, err = ms.Create(store.MemberParams{
			FullName:  in.FullName,
			Email:     in.Email,
			Phone:     in.Phone,
			StartDate: today,
		}, now)
		if err != nil {
			return uniqueEmail(err)
		}

		logs := store.NewActivityLogStore(tx)
		if _, err := logs.Append(&member.ID, member.FullName, model.EventCreated, createdDescription(member.FullName), now); err != nil {
			return err
		}

		if initial == nil {
			return nil
		}
		payment, err = store.NewPaymentStore(tx).Create(member.ID, initial.Amount, initial.Date, now)
		if err != nil {
			return err
		}
		if _, err := logs.Append(&member.ID, member.FullName, model.EventPayment, paymentDescription(member.FullName, payment), now); err != nil {
			return err
		}
		if _, err := refreshMember(tx, member.ID, today, now); err != nil {
			return err
		}
		member, err = ms.GetByID(member.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member created", "member_id", member.ID, "initial_payment", payment != nil)
	s.notifier.Broadcast(websocket.NewMessage("member", "created", member.ID, nil))
	if payment != nil {
		s.metrics.PaymentRecorded(payment.Amount)
		s.notifier.Broadcast(websocket.NewMessage("payment", "created", payment.ID, map[string]any{"member_id": member.ID}))
	}
	return member, nil
}

// Update changes name, email and phone. The active flag stays derived from
// payments and cannot be set here.
func (s *Members) Update(ctx context.Context, id int64, in MemberInput) (*model.Member, error) {
	now := s.clock()

	var member *model.Member
	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		ms := store.NewMemberStore(tx)
		existing, err := ms.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrMemberNotFound
		}
		taken, err := ms.EmailExists(in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		member, err = ms.Update(id, store.MemberParams{
			FullName:  in.FullName,
			Email:     in.Email,
			Phone:     in.Phone,
			StartDate: existing.StartDate,
		}, now)
		if err != nil {
			return uniqueEmail(err)
		}
		_, err = store.NewActivityLogStore(tx).Append(&member.ID, member.FullName, model.EventUpdated, updatedDescription(member.FullName), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member updated", "member_id", id)
	s.notifier.Broadcast(websocket.NewMessage("member", "updated", id, nil))
	return member, nil
}

// Delete removes a member. The deletion is logged first; the log entry and
// the member's payments then lose their member reference but keep the name.
func (s *Members) Delete(ctx context.Context, id int64) error {
	now := s.clock()

	err := store.Tx(ctx, s.db, func(tx *sql.Tx) error {
		ms := store.NewMemberStore(tx)
		m, err := ms.GetByID(id)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMemberNotFound
		}
		if _, err := store.NewActivityLogStore(tx).Append(&m.ID, m.FullName, model.EventDeleted, deletedDescription(m.FullName), now); err != nil {
			return err
		}
		return ms.Delete(id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member deleted", "member_id", id)
	s.notifier.Broadcast(websocket.NewMessage("member", "deleted", id, nil))
	return nil
}

// uniqueEmail maps a unique constraint race on members.email to ErrEmailTaken.
func uniqueEmail(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: members.email") {
		return ErrEmailTaken
	}
	return err
}

func checkPayment(in PaymentInput, today time.Time) error {
	if in.Amount < 0 {
		return ErrNegativePayment
	}
	if status.Date(in.Date).After(today) {
		return fmt.Errorf("%w: %s", ErrFuturePayment, in.Date.Format("2006-01-02"))
	}
	return nil
}
