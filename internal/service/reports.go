package service

import (
	"context"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/report"
	"github.com/Kauanrodrigues01/academy/internal/status"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

type Reports struct {
	*env
}

// Today is the current business day.
func (s *Reports) Today() time.Time {
	return s.today()
}

// General gathers everything the general report prints.
func (s *Reports) General(ctx context.Context) (*report.General, error) {
	active, pending, err := store.NewMemberStore(s.db).CountByStatus()
	if err != nil {
		return nil, err
	}
	ps := store.NewPaymentStore(s.db)
	total, err := ps.TotalRevenue()
	if err != nil {
		return nil, err
	}
	payments, err := ps.ListAll()
	if err != nil {
		return nil, err
	}
	return &report.General{
		GeneratedAt:    s.clock(),
		ActiveMembers:  active,
		PendingMembers: pending,
		TotalRevenue:   total,
		Payments:       payments,
	}, nil
}

// Daily gathers the figures of one business day.
func (s *Reports) Daily(ctx context.Context, day time.Time) (*report.Daily, error) {
	day = status.Date(day)
	next := day.AddDate(0, 0, 1)

	ms := store.NewMemberStore(s.db)
	active, pending, err := ms.CountByStatus()
	if err != nil {
		return nil, err
	}
	newMembers, err := ms.CountStartedBetween(day, next)
	if err != nil {
		return nil, err
	}
	ps := store.NewPaymentStore(s.db)
	payments, err := ps.ListBetween(day, next)
	if err != nil {
		return nil, err
	}
	profit, err := ps.SumBetween(day, next)
	if err != nil {
		return nil, err
	}
	return &report.Daily{
		Date:           day,
		GeneratedAt:    s.clock(),
		ActiveMembers:  active,
		PendingMembers: pending,
		NewMembers:     newMembers,
		Profit:         profit,
		Payments:       payments,
	}, nil
}

// DailySnapshot stores the figures of day, replacing an earlier snapshot of
// the same day.
func (s *Reports) DailySnapshot(ctx context.Context, day time.Time) (*model.DailyReport, error) {
	d, err := s.Daily(ctx, day)
	if err != nil {
		return nil, err
	}
	r, err := store.NewDailyReportStore(s.db).Upsert(model.DailyReport{
		Date:           d.Date,
		ActiveMembers:  d.ActiveMembers,
		PendingMembers: d.PendingMembers,
		NewMembers:     d.NewMembers,
		Profit:         d.Profit,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("daily snapshot saved", "date", d.Date.Format("2006-01-02"), "profit", d.Profit.Decimal())
	return r, nil
}

func (s *Reports) RecentSnapshots(ctx context.Context, n int) ([]model.DailyReport, error) {
	return store.NewDailyReportStore(s.db).ListRecent(n)
}
