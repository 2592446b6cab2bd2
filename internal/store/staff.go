package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/model"
)

type StaffStore struct {
	db DBTX
}

func NewStaffStore(db DBTX) *StaffStore {
	return &StaffStore{db: db}
}

func scanStaff(scanner interface{ Scan(...any) error }) (*model.Staff, error) {
	var s model.Staff
	err := scanner.Scan(&s.ID, &s.CPF, &s.Email, &s.Name, &s.PasswordHash, &s.IsAdmin, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const staffCols = `id, cpf, email, name, password_hash, is_admin, created_at, updated_at`

func (s *StaffStore) Create(cpf, email, name, passwordHash string, isAdmin bool) (*model.Staff, error) {
	now := formatTime(time.Now())
	result, err := s.db.Exec(
		`INSERT INTO staff (cpf, email, name, password_hash, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cpf, email, name, passwordHash, isAdmin, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert staff: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *StaffStore) get(where string, arg any) (*model.Staff, error) {
	row := s.db.QueryRow(`SELECT `+staffCols+` FROM staff WHERE `+where+` = ?`, arg)
	st, err := scanStaff(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff by %s: %w", where, err)
	}
	return st, nil
}

func (s *StaffStore) GetByID(id int64) (*model.Staff, error) {
	return s.get("id", id)
}

func (s *StaffStore) GetByCPF(cpf string) (*model.Staff, error) {
	return s.get("cpf", cpf)
}

func (s *StaffStore) GetByEmail(email string) (*model.Staff, error) {
	return s.get("email", email)
}

func (s *StaffStore) SetPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE staff SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set staff password: %w", err)
	}
	return nil
}

func (s *StaffStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM staff`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return count, nil
}

// EnsureAdmin creates the bootstrap administrator unless a staff account
// with that CPF already exists. The bool reports whether a row was created.
func (s *StaffStore) EnsureAdmin(cpf, email, name, passwordHash string) (*model.Staff, bool, error) {
	existing, err := s.GetByCPF(cpf)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	st, err := s.Create(cpf, email, name, passwordHash, true)
	if err != nil {
		return nil, false, err
	}
	return st, true, nil
}
