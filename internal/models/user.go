package models

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CompanyID    *int      `db:"company_id" json:"company_id"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ProvisionUserRequest is one entry of a bulk user-provisioning call
type ProvisionUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FullName  string `json:"full_name" validate:"required"`
	CompanyID *int   `json:"company_id"`
}

// ProvisionUsersRequest carries a bulk provisioning batch
type ProvisionUsersRequest struct {
	Users []ProvisionUserRequest `json:"users"`
}

// ProvisionUserResult reports per-user success or failure of a provisioning batch
type ProvisionUserResult struct {
	Email   string `json:"email"`
	UserID  int    `json:"user_id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
