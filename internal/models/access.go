package models

import "time"

// Profile is an access profile a back-office operator can be assigned to
type Profile struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type ProfileRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=50"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// RoleAssignment links a user to a profile, optionally scoped to one company
type RoleAssignment struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ProfileID int       `db:"profile_id" json:"profile_id"`
	CompanyID *int      `db:"company_id" json:"company_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type RoleAssignmentRequest struct {
	UserID    int  `json:"user_id" validate:"required"`
	ProfileID int  `json:"profile_id" validate:"required"`
	CompanyID *int `json:"company_id"`
}
