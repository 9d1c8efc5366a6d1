package models

import "time"

type Company struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	TradeName   string    `db:"trade_name" json:"trade_name"`
	CNPJ        string    `db:"cnpj" json:"cnpj"` // digits only, normalized on write
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	City        string    `db:"city" json:"city"`
	State       string    `db:"state" json:"state"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CompanyRequest struct {
	Name      string `json:"name" validate:"required"`
	TradeName string `json:"trade_name"`
	CNPJ      string `json:"cnpj" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	State     string `json:"state" validate:"omitempty,len=2"`
	IsActive  bool   `json:"is_active"`
}
