package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

func TestCreateMemberWithoutPayment(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "Ana Souza", "ana@example.com", nil)

	assert.False(t, m.IsActive)
	assert.True(t, m.StartDate.Equal(day(2026, 5, 20)))

	logs := f.activity(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.EventCreated, logs[0].EventType)
	assert.Equal(t, "Ana Souza foi cadastrado", logs[0].Description)
	assert.Equal(t, []string{"member_created"}, f.notifier.types())
}

func TestCreateMemberWithInitialPayment(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "Ana Souza", "ana@example.com", &PaymentInput{Amount: 10000, Date: day(2026, 5, 18)})

	assert.True(t, m.IsActive)
	logs := f.activity(t)
	assert.Equal(t, []model.EventType{model.EventPayment, model.EventCreated}, eventTypes(logs))
	assert.Equal(t, "Ana Souza | realizou um pagamento de R$ 100,00", logs[0].Description)
	assert.Equal(t, []string{"member_created", "payment_created"}, f.notifier.types())
}

func TestCreateMemberWithOldPaymentStaysPending(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "Ana Souza", "ana@example.com", &PaymentInput{Amount: 10000, Date: day(2026, 4, 1)})

	assert.False(t, m.IsActive)
	assert.NotContains(t, eventTypes(f.activity(t)), model.EventPending)
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.member(t, "Ana Souza", "ana@example.com", nil)

	_, err := f.svc.Members.Create(context.Background(), MemberInput{FullName: "Outra Ana", Email: "ANA@example.com", Phone: "11987654321"}, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, f.activity(t), 1, "failed create must not log")
}

func TestCreateMemberRejectsFuturePayment(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Members.Create(context.Background(), MemberInput{FullName: "Ana Souza", Email: "ana@example.com", Phone: "11987654321"},
		&PaymentInput{Amount: 100, Date: day(2026, 5, 21)})
	assert.ErrorIs(t, err, ErrFuturePayment)

	page, err := f.svc.Members.List(context.Background(), store.MemberFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestUpdateMember(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "Ana Souza", "ana@example.com", &PaymentInput{Amount: 10000, Date: day(2026, 5, 18)})

	got, err := f.svc.Members.Update(context.Background(), m.ID, MemberInput{FullName: "Ana Lima", Email: "ana.lima@example.com", Phone: "11900000000"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", got.FullName)
	assert.True(t, got.IsActive, "update must not touch the derived flag")
	assert.True(t, got.StartDate.Equal(m.StartDate))

	logs := f.activity(t)
	assert.Equal(t, model.EventUpdated, logs[0].EventType)
	assert.Equal(t, "Ana Lima foi atualizado", logs[0].Description)
}

func TestUpdateMemberEmailConflict(t *testing.T) {
	f := newFixture(t)
	f.member(t, "Ana Souza", "ana@example.com", nil)
	bia := f.member(t, "Bia Costa", "bia@example.com", nil)

	_, err := f.svc.Members.Update(context.Background(), bia.ID, MemberInput{FullName: "Bia Costa", Email: "ana@example.com", Phone: "11987654321"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Members.Update(context.Background(), bia.ID, MemberInput{FullName: "Bia C.", Email: "bia@example.com", Phone: "11987654321"})
	assert.NoError(t, err, "keeping one's own email is allowed")
}

func TestUpdateMemberNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Members.Update(context.Background(), 99, MemberInput{FullName: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestDeleteMemberKeepsHistory(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "Ana Souza", "ana@example.com", &PaymentInput{Amount: 10000, Date: day(2026, 5, 18)})

	require.NoError(t, f.svc.Members.Delete(context.Background(), m.ID))

	_, err := f.svc.Members.Get(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	logs := f.activity(t)
	require.Len(t, logs, 3)
	assert.Equal(t, model.EventDeleted, logs[0].EventType)
	assert.Equal(t, "Ana Souza foi excluído", logs[0].Description)
	for _, l := range logs {
		assert.Nil(t, l.MemberID)
		assert.Equal(t, "Ana Souza", l.MemberName)
	}

	payments, err := store.NewPaymentStore(f.db).ListAll()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Nil(t, payments[0].MemberID)
	assert.Equal(t, "Pagamento sem aluno associado", payments[0].PayerLabel())
}

func TestDeleteMemberNotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Members.Delete(context.Background(), 42), ErrMemberNotFound)
}
