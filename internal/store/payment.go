package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/finance"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/money"
)

type PaymentStore struct {
	db DBTX
}

func NewPaymentStore(db DBTX) *PaymentStore {
	return &PaymentStore{db: db}
}

func scanPayment(scanner interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var memberID sql.NullInt64
	var memberName sql.NullString
	var paymentDate string
	err := scanner.Scan(&p.ID, &memberID, &p.Amount, &paymentDate, &p.CreatedAt, &memberName)
	if err != nil {
		return nil, err
	}
	p.MemberID = nullInt64Ptr(memberID)
	p.MemberName = memberName.String
	if p.PaymentDate, err = parseDate(paymentDate); err != nil {
		return nil, err
	}
	return &p, nil
}

const paymentSelect = `SELECT p.id, p.member_id, p.amount_cents, p.payment_date, p.created_at, m.full_name
	FROM payments p LEFT JOIN members m ON m.id = p.member_id`

func (s *PaymentStore) Create(memberID int64, amount money.Cents, paymentDate, now time.Time) (*model.Payment, error) {
	result, err := s.db.Exec(
		`INSERT INTO payments (member_id, amount_cents, payment_date, created_at) VALUES (?, ?, ?, ?)`,
		memberID, amount, formatDate(paymentDate), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) GetByID(id int64) (*model.Payment, error) {
	row := s.db.QueryRow(paymentSelect+` WHERE p.id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *PaymentStore) Update(id int64, amount money.Cents, paymentDate time.Time) (*model.Payment, error) {
	_, err := s.db.Exec(
		`UPDATE payments SET amount_cents = ?, payment_date = ? WHERE id = ?`,
		amount, formatDate(paymentDate), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// LatestDate returns the most recent payment date of a member, or nil when
// the member has never paid.
func (s *PaymentStore) LatestDate(memberID int64) (*time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRow(`SELECT MAX(payment_date) FROM payments WHERE member_id = ?`, memberID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("latest payment date: %w", err)
	}
	return parseNullDate(last)
}

func (s *PaymentStore) query(q string, args ...any) ([]model.Payment, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// ListForMember returns a member's payments, newest first.
func (s *PaymentStore) ListForMember(memberID int64) ([]model.Payment, error) {
	return s.query(paymentSelect+` WHERE p.member_id = ? ORDER BY p.payment_date DESC, p.id DESC`, memberID)
}

// ListAll returns every payment with its member name, newest first.
func (s *PaymentStore) ListAll() ([]model.Payment, error) {
	return s.query(paymentSelect + ` ORDER BY p.payment_date DESC, p.id DESC`)
}

// ListBetween returns payments dated in [from, to), newest first.
func (s *PaymentStore) ListBetween(from, to time.Time) ([]model.Payment, error) {
	return s.query(
		paymentSelect+` WHERE p.payment_date >= ? AND p.payment_date < ? ORDER BY p.payment_date DESC, p.id DESC`,
		formatDate(from), formatDate(to),
	)
}

// Recent returns the n most recent payments by payment date.
func (s *PaymentStore) Recent(n int) ([]model.Payment, error) {
	return s.query(paymentSelect+` ORDER BY p.payment_date DESC, p.id DESC LIMIT ?`, n)
}

// SumBetween totals payments dated in [from, to).
func (s *PaymentStore) SumBetween(from, to time.Time) (money.Cents, error) {
	var total money.Cents
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE payment_date >= ? AND payment_date < ?`,
		formatDate(from), formatDate(to),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

// TotalRevenue totals every payment ever recorded.
func (s *PaymentStore) TotalRevenue() (money.Cents, error) {
	var total money.Cents
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(amount_cents), 0) FROM payments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("total revenue: %w", err)
	}
	return total, nil
}

// YearSummary groups the payments of year by month.
func (s *PaymentStore) YearSummary(year int) (finance.YearSummary, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := s.db.Query(
		`SELECT CAST(strftime('%m', payment_date) AS INTEGER), SUM(amount_cents)
		 FROM payments WHERE payment_date >= ? AND payment_date < ?
		 GROUP BY 1`,
		formatDate(from), formatDate(to),
	)
	if err != nil {
		return finance.YearSummary{}, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int]money.Cents)
	for rows.Next() {
		var month int
		var total money.Cents
		if err := rows.Scan(&month, &total); err != nil {
			return finance.YearSummary{}, fmt.Errorf("scan monthly total: %w", err)
		}
		totals[month] = total
	}
	if err := rows.Err(); err != nil {
		return finance.YearSummary{}, err
	}
	return finance.NewYearSummary(year, totals)
}

// MonthlyProfit totals the payments of one month of year.
func (s *PaymentStore) MonthlyProfit(year, month int) (money.Cents, error) {
	if err := finance.ValidateMonth(month); err != nil {
		return 0, err
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return s.SumBetween(from, from.AddDate(0, 1, 0))
}

func (s *PaymentStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}
