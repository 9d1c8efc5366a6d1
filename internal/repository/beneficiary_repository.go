package repository

import (
	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type BeneficiaryRepository struct {
	db *sqlx.DB
}

func NewBeneficiaryRepository(db *sqlx.DB) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: db}
}

func (r *BeneficiaryRepository) FindByID(id int) (*models.Beneficiary, error) {
	var b models.Beneficiary
	query := "SELECT * FROM beneficiaries WHERE id = ? LIMIT 1"
	err := r.db.Get(&b, query, id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BeneficiaryRepository) FindByCPF(companyID int, cpf string) (*models.Beneficiary, error) {
	var b models.Beneficiary
	query := "SELECT * FROM beneficiaries WHERE company_id = ? AND cpf = ? LIMIT 1"
	err := r.db.Get(&b, query, companyID, cpf)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BeneficiaryRepository) GetBeneficiaries(limit, offset int, companyID int, search string) ([]models.Beneficiary, int, error) {
	var beneficiaries []models.Beneficiary
	var total int

	whereClause := "WHERE 1=1"
	args := []interface{}{}

	if companyID > 0 {
		whereClause += " AND company_id = ?"
		args = append(args, companyID)
	}
	if search != "" {
		whereClause += " AND (full_name LIKE ? OR cpf LIKE ? OR email LIKE ?)"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}

	countQuery := "SELECT COUNT(*) FROM beneficiaries " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM beneficiaries " + whereClause + " ORDER BY full_name ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&beneficiaries, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return beneficiaries, total, nil
}

func (r *BeneficiaryRepository) Create(b *models.Beneficiary) error {
	query := `INSERT INTO beneficiaries (company_id, full_name, cpf, email, phone,
	          birth_date, plan_code, holder_id, is_active)
	          VALUES (:company_id, :full_name, :cpf, :email, :phone,
	          :birth_date, :plan_code, :holder_id, :is_active)`
	result, err := r.db.NamedExec(query, b)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	b.ID = int(id)
	return nil
}

func (r *BeneficiaryRepository) Update(b *models.Beneficiary) error {
	query := `UPDATE beneficiaries SET company_id = :company_id, full_name = :full_name,
	          cpf = :cpf, email = :email, phone = :phone, birth_date = :birth_date,
	          plan_code = :plan_code, holder_id = :holder_id, is_active = :is_active
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, b)
	return err
}

func (r *BeneficiaryRepository) Delete(id int) error {
	_, err := r.db.Exec("DELETE FROM beneficiaries WHERE id = ?", id)
	return err
}
