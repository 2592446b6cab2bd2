package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

type DailyReportStore struct {
	db DBTX
}

func NewDailyReportStore(db DBTX) *DailyReportStore {
	return &DailyReportStore{db: db}
}

func scanDailyReport(scanner interface{ Scan(...any) error }) (*model.DailyReport, error) {
	var r model.DailyReport
	var date string
	err := scanner.Scan(&r.ID, &date, &r.ActiveMembers, &r.PendingMembers, &r.NewMembers, &r.Profit, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if r.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	return &r, nil
}

const dailyReportCols = `id, report_date, active_members, pending_members, new_members, profit_cents, created_at, updated_at`

// Upsert stores the snapshot for r.Date, replacing any earlier one for that day.
func (s *DailyReportStore) Upsert(r model.DailyReport) (*model.DailyReport, error) {
	now := formatTime(time.Now())
	_, err := s.db.Exec(
		`INSERT INTO daily_reports (report_date, active_members, pending_members, new_members, profit_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(report_date) DO UPDATE SET
		     active_members = excluded.active_members,
		     pending_members = excluded.pending_members,
		     new_members = excluded.new_members,
		     profit_cents = excluded.profit_cents,
		     updated_at = excluded.updated_at`,
		formatDate(r.Date), r.ActiveMembers, r.PendingMembers, r.NewMembers, r.Profit, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert daily report: %w", err)
	}
	return s.GetByDate(r.Date)
}

func (s *DailyReportStore) GetByDate(date time.Time) (*model.DailyReport, error) {
	row := s.db.QueryRow(`SELECT `+dailyReportCols+` FROM daily_reports WHERE report_date = ?`, formatDate(date))
	r, err := scanDailyReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily report: %w", err)
	}
	return r, nil
}

// ListRecent returns the latest n snapshots, newest first.
func (s *DailyReportStore) ListRecent(n int) ([]model.DailyReport, error) {
	rows, err := s.db.Query(`SELECT `+dailyReportCols+` FROM daily_reports ORDER BY report_date DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list daily reports: %w", err)
	}
	defer rows.Close()

	var reports []model.DailyReport
	for rows.Next() {
		r, err := scanDailyReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}
