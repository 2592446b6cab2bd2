package jobs

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kauanrodrigues01/academy/internal/database"
	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

type harness struct {
	db    *sql.DB
	svc   *service.Services
	sched *Scheduler
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{db: db, now: time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc = service.New(db, service.Options{
		Location: time.UTC,
		Now:      func() time.Time { return h.now },
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	h.sched = NewScheduler(h.svc, store.NewSessionStore(db), middleware.NewRateLimiter(), metrics.New(), logger, time.Hour)
	return h
}

func (h *harness) memberPaidOn(t *testing.T, email string, paid time.Time) int64 {
	t.Helper()
	m, err := h.svc.Members.Create(context.Background(),
		service.MemberInput{FullName: "Aluno " + email, Email: email, Phone: "11987654321"},
		&service.PaymentInput{Amount: money.Cents(9000), Date: paid})
	require.NoError(t, err)
	return m.ID
}

func TestRefreshStatusesDeactivatesExpiredMembers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	boundary := h.memberPaidOn(t, "limite@example.com", time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC))
	recent := h.memberPaidOn(t, "recente@example.com", time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))

	h.sched.RefreshStatuses(ctx)
	m, _ := h.svc.Members.Get(ctx, boundary)
	assert.True(t, m.IsActive, "payment exactly 30 days old keeps the member active")

	h.now = h.now.AddDate(0, 0, 1)
	h.sched.RefreshStatuses(ctx)

	m, _ = h.svc.Members.Get(ctx, boundary)
	assert.False(t, m.IsActive)
	m, _ = h.svc.Members.Get(ctx, recent)
	assert.True(t, m.IsActive)

	pending, err := store.NewActivityLogStore(h.db).CountByType("pending")
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	// Running again changes nothing.
	h.sched.RefreshStatuses(ctx)
	pending, _ = store.NewActivityLogStore(h.db).CountByType("pending")
	assert.Equal(t, 1, pending)
}

func TestHousekeepSnapshotsEndedDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.memberPaidOn(t, "ana@example.com", time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))

	h.sched.housekeep(ctx, h.now)
	reports := store.NewDailyReportStore(h.db)
	list, _ := reports.ListRecent(5)
	assert.Empty(t, list, "no snapshot before the day ends")

	h.now = time.Date(2026, 5, 21, 0, 1, 0, 0, time.UTC)
	h.sched.housekeep(ctx, h.now)

	r, err := reports.GetByDate(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, money.Cents(9000), r.Profit)
	assert.Equal(t, 1, r.NewMembers)
	assert.Equal(t, 1, r.ActiveMembers)

	h.sched.housekeep(ctx, h.now.Add(time.Minute))
	list, _ = reports.ListRecent(5)
	assert.Len(t, list, 1)
}

func TestHousekeepCleansExpiredSessions(t *testing.T) {
	h := newHarness(t)
	staff, err := store.NewStaffStore(h.db).Create("52998224725", "admin@example.com", "Admin", "hash", true)
	require.NoError(t, err)
	sessions := store.NewSessionStore(h.db)
	sess, err := sessions.Create(staff.ID)
	require.NoError(t, err)
	_, err = h.db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04:05"), sess.ID)
	require.NoError(t, err)

	h.sched.limiter.Allow("1.2.3.4", 10, time.Nanosecond)
	time.Sleep(time.Millisecond)

	h.sched.housekeep(context.Background(), time.Now())

	var n int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
	assert.Zero(t, n)
	assert.Zero(t, h.sched.limiter.Len())
}

func TestStartStop(t *testing.T) {
	h := newHarness(t)
	h.memberPaidOn(t, "ana@example.com", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.sched.Start(ctx)
	h.sched.Stop()
	h.sched.Stop()
}
