package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kauanrodrigues01/academy/internal/database"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/websocket"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (n *recordingNotifier) Broadcast(msg websocket.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Type
	}
	return out
}

type fixture struct {
	db       *sql.DB
	svc      *Services
	notifier *recordingNotifier
	now      time.Time
}

// newFixture pins the clock to 2026-05-20 10:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, notifier: &recordingNotifier{}, now: time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)}
	f.svc = New(db, Options{
		Location: time.UTC,
		Now:      func() time.Time { return f.now },
		Notifier: f.notifier,
	})
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) member(t *testing.T, name, email string, initial *PaymentInput) *model.Member {
	t.Helper()
	m, err := f.svc.Members.Create(context.Background(), MemberInput{FullName: name, Email: email, Phone: "11987654321"}, initial)
	require.NoError(t, err)
	return m
}

func (f *fixture) activity(t *testing.T) []model.ActivityLog {
	t.Helper()
	logs, err := store.NewActivityLogStore(f.db).Recent(100)
	require.NoError(t, err)
	return logs
}

func eventTypes(logs []model.ActivityLog) []model.EventType {
	out := make([]model.EventType, len(logs))
	for i, l := range logs {
		out[i] = l.EventType
	}
	return out
}
