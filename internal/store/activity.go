package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

// ActivityLogStore appends to and reads the audit log. There is no update
// or delete API; the schema rejects both.
type ActivityLogStore struct {
	db DBTX
}

func NewActivityLogStore(db DBTX) *ActivityLogStore {
	return &ActivityLogStore{db: db}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.ActivityLog, error) {
	var a model.ActivityLog
	var memberID sql.NullInt64
	err := scanner.Scan(&a.ID, &memberID, &a.MemberName, &a.EventType, &a.Description, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.MemberID = nullInt64Ptr(memberID)
	return &a, nil
}

const activityCols = `id, member_id, member_name, event_type, description, created_at`

// Append records one entry. memberID may be nil for entries not tied to a member.
func (s *ActivityLogStore) Append(memberID *int64, memberName string, event model.EventType, description string, now time.Time) (*model.ActivityLog, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("append activity: unknown event type %q", event)
	}
	result, err := s.db.Exec(
		`INSERT INTO activity_logs (member_id, member_name, event_type, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		memberID, memberName, event, description, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+activityCols+` FROM activity_logs WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// Recent returns the last n entries, newest first.
func (s *ActivityLogStore) Recent(n int) ([]model.ActivityLog, error) {
	rows, err := s.db.Query(`SELECT `+activityCols+` FROM activity_logs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	entries := []model.ActivityLog{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}

// ListForMember returns every entry that still references memberID, oldest first.
func (s *ActivityLogStore) ListForMember(memberID int64) ([]model.ActivityLog, error) {
	rows, err := s.db.Query(`SELECT `+activityCols+` FROM activity_logs WHERE member_id = ? ORDER BY id`, memberID)
	if err != nil {
		return nil, fmt.Errorf("member activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}

func (s *ActivityLogStore) CountByType(event model.EventType) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM activity_logs WHERE event_type = ?`, event).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return count, nil
}

func (s *ActivityLogStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM activity_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return count, nil
}
