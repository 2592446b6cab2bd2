// Package service holds the write paths of the back office. Every change to
// members or payments runs in one transaction together with its activity log
// entries and the status recomputation it implies.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/metrics"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/status"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/websocket"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrMemberNotFound  = errors.New("member not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrFuturePayment   = errors.New("payment date is in the future")
	ErrNegativePayment = errors.New("payment amount is negative")
)

// Notifier receives a message after a change has been committed.
type Notifier interface {
	Broadcast(msg websocket.Message)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(websocket.Message) {}

type Options struct {
	// Location is the business time zone used to decide "today".
	Location *time.Location
	// Now defaults to time.Now.
	Now      func() time.Time
	Notifier Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type env struct {
	db       *sql.DB
	loc      *time.Location
	now      func() time.Time
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// clock returns the current instant in the business time zone.
func (e *env) clock() time.Time {
	return e.now().In(e.loc)
}

// today is the current business day as a date value.
func (e *env) today() time.Time {
	return status.Date(e.clock())
}

// Services bundles the application services sharing one database.
type Services struct {
	Members  *Members
	Payments *Payments
	Status   *Status
	Finance  *Finance
	Reports  *Reports
}

func New(db *sql.DB, opts Options) *Services {
	e := &env{
		db:       db,
		loc:      opts.Location,
		now:      opts.Now,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "service")

	return &Services{
		Members:  &Members{env: e},
		Payments: &Payments{env: e},
		Status:   &Status{env: e},
		Finance:  &Finance{env: e},
		Reports:  &Reports{env: e},
	}
}

// refreshMember re-derives the active flag of one member from its latest
// payment and stores it when it changed. A member falling from active to
// pending gets a pending entry in the activity log.
func refreshMember(db store.DBTX, memberID int64, today, now time.Time) (status.Transition, error) {
	m, err := store.NewMemberStore(db).GetByID(memberID)
	if err != nil {
		return status.Unchanged, err
	}
	if m == nil {
		return status.Unchanged, ErrMemberNotFound
	}
	last, err := store.NewPaymentStore(db).LatestDate(memberID)
	if err != nil {
		return status.Unchanged, err
	}
	return applyStatus(db, m.ID, m.FullName, m.IsActive, last, today, now)
}

func applyStatus(db store.DBTX, id int64, name string, wasActive bool, last *time.Time, today, now time.Time) (status.Transition, error) {
	tr := status.Diff(wasActive, status.IsActive(last, today))
	if tr == status.Unchanged {
		return tr, nil
	}
	if err := store.NewMemberStore(db).SetActive(id, tr == status.Activated, now); err != nil {
		return status.Unchanged, err
	}
	if tr == status.Deactivated {
		if _, err := store.NewActivityLogStore(db).Append(&id, name, model.EventPending, pendingDescription(name), now); err != nil {
			return status.Unchanged, fmt.Errorf("log pending: %w", err)
		}
	}
	return tr, nil
}

func createdDescription(name string) string { return name + " foi cadastrado" }
func updatedDescription(name string) string { return name + " foi atualizado" }
func deletedDescription(name string) string { return name + " foi excluído" }
func pendingDescription(name string) string { return name + " está com o pagamento pendente" }

func paymentDescription(name string, p *model.Payment) string {
	return fmt.Sprintf("%s | realizou um pagamento de %s", name, p.Amount)
}
