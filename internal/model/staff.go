package model

import "time"

// Staff is a back-office operator who signs in with CPF and password.
type Staff struct {
	ID           int64     `json:"id"`
	CPF          string    `json:"cpf"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
