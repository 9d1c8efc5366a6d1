package repository

import (
	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

// BillingRepository covers contracts, invoices and claims
type BillingRepository struct {
	db *sqlx.DB
}

func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// Contracts

func (r *BillingRepository) FindContractByID(id int) (*models.Contract, error) {
	var c models.Contract
	query := "SELECT * FROM contracts WHERE id = ? LIMIT 1"
	err := r.db.Get(&c, query, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *BillingRepository) GetContractsByCompany(companyID int) ([]models.Contract, error) {
	var contracts []models.Contract
	query := "SELECT * FROM contracts WHERE company_id = ? ORDER BY start_date DESC"
	err := r.db.Select(&contracts, query, companyID)
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *BillingRepository) CreateContract(c *models.Contract) error {
	query := `INSERT INTO contracts (company_id, number, operator, plan_code,
	          start_date, end_date, lives, is_active)
	          VALUES (:company_id, :number, :operator, :plan_code,
	          :start_date, :end_date, :lives, :is_active)`
	result, err := r.db.NamedExec(query, c)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	c.ID = int(id)
	return nil
}

// Invoices

func (r *BillingRepository) FindInvoiceByID(id int) (*models.Invoice, error) {
	var inv models.Invoice
	query := "SELECT * FROM invoices WHERE id = ? LIMIT 1"
	err := r.db.Get(&inv, query, id)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *BillingRepository) GetInvoices(limit, offset int, companyID int, competence string) ([]models.Invoice, int, error) {
	var invoices []models.Invoice
	var total int

	whereClause := "WHERE 1=1"
	args := []interface{}{}

	if companyID > 0 {
		whereClause += " AND company_id = ?"
		args = append(args, companyID)
	}
	if competence != "" {
		whereClause += " AND competence = ?"
		args = append(args, competence)
	}

	countQuery := "SELECT COUNT(*) FROM invoices " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM invoices " + whereClause + " ORDER BY due_date DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&invoices, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *BillingRepository) CreateInvoice(inv *models.Invoice) error {
	query := `INSERT INTO invoices (company_id, contract_id, competence, due_date, amount, status)
	          VALUES (:company_id, :contract_id, :competence, :due_date, :amount, :status)`
	result, err := r.db.NamedExec(query, inv)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	inv.ID = int(id)
	return nil
}

func (r *BillingRepository) UpdateInvoiceStatus(id int, status string) error {
	_, err := r.db.Exec("UPDATE invoices SET status = ? WHERE id = ?", status, id)
	return err
}

// Claims

func (r *BillingRepository) GetClaims(limit, offset int, companyID int, competence string) ([]models.Claim, int, error) {
	var claims []models.Claim
	var total int

	whereClause := "WHERE 1=1"
	args := []interface{}{}

	if companyID > 0 {
		whereClause += " AND company_id = ?"
		args = append(args, companyID)
	}
	if competence != "" {
		whereClause += " AND competence = ?"
		args = append(args, competence)
	}

	countQuery := "SELECT COUNT(*) FROM claims " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM claims " + whereClause + " ORDER BY event_date DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&claims, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

func (r *BillingRepository) CreateClaim(c *models.Claim) error {
	query := `INSERT INTO claims (company_id, contract_id, beneficiary_id, competence,
	          event_date, ` + "`procedure`" + `, provider, amount, import_job_id)
	          VALUES (:company_id, :contract_id, :beneficiary_id, :competence,
	          :event_date, :procedure, :provider, :amount, :import_job_id)`
	result, err := r.db.NamedExec(query, c)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	c.ID = int(id)
	return nil
}

// DeleteClaimsByImportJob removes everything a claims import wrote; used
// by the undo path
func (r *BillingRepository) DeleteClaimsByImportJob(jobID int) (int64, error) {
	result, err := r.db.Exec("DELETE FROM claims WHERE import_job_id = ?", jobID)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
