package service

import (
	"context"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/finance"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

const (
	RecentActivityLimit = 10
	RecentPaymentLimit  = 12
)

type Finance struct {
	*env
}

// MonthlyProfit sums the payments of month in the current year.
func (s *Finance) MonthlyProfit(ctx context.Context, month int) (money.Cents, error) {
	return store.NewPaymentStore(s.db).MonthlyProfit(s.clock().Year(), month)
}

func (s *Finance) CurrentMonthProfit(ctx context.Context) (money.Cents, error) {
	return s.MonthlyProfit(ctx, int(s.clock().Month()))
}

func (s *Finance) CurrentYearProfit(ctx context.Context) (money.Cents, error) {
	sum, err := store.NewPaymentStore(s.db).YearSummary(s.clock().Year())
	if err != nil {
		return 0, err
	}
	return sum.Total(), nil
}

// HighestMonth returns the month of the current year with the highest
// profit. With no payments at all it is January with zero.
func (s *Finance) HighestMonth(ctx context.Context) (finance.MonthTotal, error) {
	sum, err := store.NewPaymentStore(s.db).YearSummary(s.clock().Year())
	if err != nil {
		return finance.MonthTotal{}, err
	}
	return sum.Highest(), nil
}

type DashboardView struct {
	Today            time.Time
	ActiveMembers    int
	PendingMembers   int
	NewMembers       int
	MonthName        string
	MonthProfit      money.Cents
	YearProfit       money.Cents
	Highest          finance.MonthTotal
	RecentActivities []model.ActivityLog
}

func (v DashboardView) TotalMembers() int {
	return v.ActiveMembers + v.PendingMembers
}

func (s *Finance) Dashboard(ctx context.Context) (*DashboardView, error) {
	now := s.clock()
	ms := store.NewMemberStore(s.db)
	ps := store.NewPaymentStore(s.db)

	v := &DashboardView{Today: now, MonthName: finance.MonthName(int(now.Month()))}
	var err error
	if v.ActiveMembers, v.PendingMembers, err = ms.CountByStatus(); err != nil {
		return nil, err
	}
	s.metrics.SetMembers(v.ActiveMembers, v.PendingMembers)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if v.NewMembers, err = ms.CountStartedBetween(monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}
	sum, err := ps.YearSummary(now.Year())
	if err != nil {
		return nil, err
	}
	v.MonthProfit = sum.Months[now.Month()-1]
	v.YearProfit = sum.Total()
	v.Highest = sum.Highest()

	if v.RecentActivities, err = store.NewActivityLogStore(s.db).Recent(RecentActivityLimit); err != nil {
		return nil, err
	}
	return v, nil
}

type FinanceView struct {
	Year           int
	Months         []finance.MonthTotal
	ChartMax       money.Cents
	MonthName      string
	MonthProfit    money.Cents
	YearProfit     money.Cents
	TotalRevenue   money.Cents
	Highest        finance.MonthTotal
	RecentPayments []model.Payment
}

func (s *Finance) FinancePage(ctx context.Context) (*FinanceView, error) {
	now := s.clock()
	ps := store.NewPaymentStore(s.db)

	sum, err := ps.YearSummary(now.Year())
	if err != nil {
		return nil, err
	}
	total, err := ps.TotalRevenue()
	if err != nil {
		return nil, err
	}
	recent, err := ps.Recent(RecentPaymentLimit)
	if err != nil {
		return nil, err
	}

	return &FinanceView{
		Year:           now.Year(),
		Months:         sum.List(),
		ChartMax:       sum.Max(),
		MonthName:      finance.MonthName(int(now.Month())),
		MonthProfit:    sum.Months[now.Month()-1],
		YearProfit:     sum.Total(),
		TotalRevenue:   total,
		Highest:        sum.Highest(),
		RecentPayments: recent,
	}, nil
}
