package models

import "time"

// User is an operator or supervisor. The ID feeds assigned_user_id on
// discrepancy ledger rows.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        *string   `json:"email,omitempty" db:"email"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreateDt     time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt     time.Time `json:"update_dt" db:"update_dt"`
}
