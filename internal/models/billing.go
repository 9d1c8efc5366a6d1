package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contract struct {
	ID         int        `db:"id" json:"id"`
	CompanyID  int        `db:"company_id" json:"company_id"`
	Number     string     `db:"number" json:"number"`
	Operator   string     `db:"operator" json:"operator"` // health-plan operator
	PlanCode   string     `db:"plan_code" json:"plan_code"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    *time.Time `db:"end_date" json:"end_date"`
	Lives      int        `db:"lives" json:"lives"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

type Invoice struct {
	ID          int             `db:"id" json:"id"`
	CompanyID   int             `db:"company_id" json:"company_id"`
	ContractID  *int            `db:"contract_id" json:"contract_id"`
	Competence  string          `db:"competence" json:"competence"` // YYYY-MM
	DueDate     time.Time       `db:"due_date" json:"due_date"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"` // open, paid, overdue, canceled
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Claim is one "sinistro" line extracted from an operator claims report
type Claim struct {
	ID            int             `db:"id" json:"id"`
	CompanyID     int             `db:"company_id" json:"company_id"`
	ContractID    *int            `db:"contract_id" json:"contract_id"`
	BeneficiaryID *int            `db:"beneficiary_id" json:"beneficiary_id"`
	Competence    string          `db:"competence" json:"competence"`
	EventDate     *time.Time      `db:"event_date" json:"event_date"`
	Procedure     string          `db:"procedure" json:"procedure"`
	Provider      string          `db:"provider" json:"provider"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	ImportJobID   *int            `db:"import_job_id" json:"import_job_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
