package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

// DefaultPageSize is the number of members per list page.
const DefaultPageSize = 15

type MemberStore struct {
	db DBTX
}

func NewMemberStore(db DBTX) *MemberStore {
	return &MemberStore{db: db}
}

// MemberParams are the editable member fields.
type MemberParams struct {
	FullName  string
	Email     string
	Phone     string
	StartDate time.Time
}

// MemberFilter narrows the member list.
type MemberFilter struct {
	Query       string
	Status      string // "active", "inactive" or ""
	LastPayment *time.Time
	Page        int
	PerPage     int
}

// MemberPage is one page of a filtered member list.
type MemberPage struct {
	Members    []model.Member
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var startDate string
	err := scanner.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &startDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, full_name, email, phone, start_date, is_active, created_at, updated_at`

func (s *MemberStore) Create(p MemberParams, now time.Time) (*model.Member, error) {
	ts := formatTime(now)
	result, err := s.db.Exec(
		`INSERT INTO members (full_name, email, phone, start_date, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		p.FullName, p.Email, p.Phone, formatDate(p.StartDate), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

// EmailExists reports whether another member already uses email.
// excludeID skips the member being edited; pass 0 on create.
func (s *MemberStore) EmailExists(email string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM members WHERE email = ? AND id != ?`,
		email, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check member email: %w", err)
	}
	return count > 0, nil
}

// Update changes the editable fields. The active flag is derived and is
// never written here.
func (s *MemberStore) Update(id int64, p MemberParams, now time.Time) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET full_name = ?, email = ?, phone = ?, start_date = ?, updated_at = ? WHERE id = ?`,
		p.FullName, p.Email, p.Phone, formatDate(p.StartDate), formatTime(now), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) SetActive(id int64, active bool, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE members SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, formatTime(now), id,
	)
	if err != nil {
		return fmt.Errorf("set member active: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (f MemberFilter) where() (string, []any) {
	var conds []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		conds = append(conds, `(m.full_name LIKE ? OR m.email LIKE ? OR m.phone LIKE ?)`)
		args = append(args, like, like, like)
	}
	switch f.Status {
	case "active":
		conds = append(conds, `m.is_active = 1`)
	case "inactive":
		conds = append(conds, `m.is_active = 0`)
	}
	if f.LastPayment != nil {
		conds = append(conds, `EXISTS (SELECT 1 FROM payments p WHERE p.member_id = m.id AND p.payment_date = ?)`)
		args = append(args, formatDate(*f.LastPayment))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of members matching f, each with its latest payment date.
func (s *MemberStore) List(f MemberFilter) (*MemberPage, error) {
	if f.PerPage <= 0 {
		f.PerPage = DefaultPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}

	where, args := f.where()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members m`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	totalPages := (total + f.PerPage - 1) / f.PerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if f.Page > totalPages {
		f.Page = totalPages
	}

	query := `SELECT m.id, m.full_name, m.email, m.phone, m.start_date, m.is_active, m.created_at, m.updated_at,
	                 (SELECT MAX(p.payment_date) FROM payments p WHERE p.member_id = m.id)
	          FROM members m` + where + `
	          ORDER BY m.full_name COLLATE NOCASE, m.id
	          LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := s.db.Query(query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		var startDate string
		var last sql.NullString
		if err := rows.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &startDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &last); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if m.StartDate, err = parseDate(startDate); err != nil {
			return nil, err
		}
		if m.LastPaymentDate, err = parseNullDate(last); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &MemberPage{
		Members:    members,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: totalPages,
	}, nil
}

// MemberActivity is the minimum needed to re-derive a member's status.
type MemberActivity struct {
	ID              int64
	FullName        string
	IsActive        bool
	LastPaymentDate *time.Time
}

// ListActivity returns every member with its stored flag and latest payment date.
func (s *MemberStore) ListActivity() ([]MemberActivity, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.full_name, m.is_active, MAX(p.payment_date)
		 FROM members m LEFT JOIN payments p ON p.member_id = m.id
		 GROUP BY m.id ORDER BY m.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list member activity: %w", err)
	}
	defer rows.Close()

	var out []MemberActivity
	for rows.Next() {
		var a MemberActivity
		var last sql.NullString
		if err := rows.Scan(&a.ID, &a.FullName, &a.IsActive, &last); err != nil {
			return nil, fmt.Errorf("scan member activity: %w", err)
		}
		if a.LastPaymentDate, err = parseNullDate(last); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByStatus returns how many members are active and how many are pending.
func (s *MemberStore) CountByStatus() (active, pending int, err error) {
	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END), 0)
		 FROM members`,
	).Scan(&active, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("count members by status: %w", err)
	}
	return active, pending, nil
}

// CountStartedBetween counts members whose start date falls in [from, to).
func (s *MemberStore) CountStartedBetween(from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM members WHERE start_date >= ? AND start_date < ?`,
		formatDate(from), formatDate(to),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count new members: %w", err)
	}
	return count, nil
}
