package models

import "time"

type Beneficiary struct {
	ID         int        `db:"id" json:"id"`
	CompanyID  int        `db:"company_id" json:"company_id"`
	FullName   string     `db:"full_name" json:"full_name"`
	CPF        string     `db:"cpf" json:"cpf"`
	Email      string     `db:"email" json:"email"`
	Phone      string     `db:"phone" json:"phone"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date"`
	PlanCode   string     `db:"plan_code" json:"plan_code"`
	HolderID   *int       `db:"holder_id" json:"holder_id"` // nil for the holder itself
	IsActive   bool       `db:"is_active" json:"is_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

type BeneficiaryRequest struct {
	CompanyID int    `json:"company_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required"`
	CPF       string `json:"cpf"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"` // 2006-01-02
	PlanCode  string `json:"plan_code"`
	HolderID  *int   `json:"holder_id"`
	IsActive  bool   `json:"is_active"`
}
