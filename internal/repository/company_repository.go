package repository

import (
	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type CompanyRepository struct {
	db *sqlx.DB
}

func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) FindByID(id int) (*models.Company, error) {
	var company models.Company
	query := "SELECT * FROM companies WHERE id = ? LIMIT 1"
	err := r.db.Get(&company, query, id)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByCNPJ expects the digits-only form; callers normalize first
func (r *CompanyRepository) FindByCNPJ(cnpj string) (*models.Company, error) {
	var company models.Company
	query := "SELECT * FROM companies WHERE cnpj = ? LIMIT 1"
	err := r.db.Get(&company, query, cnpj)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByCNPJs resolves a whole pasted batch in one query, keyed by the
// digits-only CNPJ
func (r *CompanyRepository) FindByCNPJs(cnpjs []string) (map[string]models.Company, error) {
	result := make(map[string]models.Company, len(cnpjs))
	if len(cnpjs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT * FROM companies WHERE cnpj IN (?)", cnpjs)
	if err != nil {
		return nil, err
	}

	var companies []models.Company
	err = r.db.Select(&companies, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, c := range companies {
		result[c.CNPJ] = c
	}
	return result, nil
}

func (r *CompanyRepository) GetCompanies(limit, offset int, search string) ([]models.Company, int, error) {
	var companies []models.Company
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE name LIKE ? OR trade_name LIKE ? OR cnpj LIKE ?"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}

	countQuery := "SELECT COUNT(*) FROM companies " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM companies " + whereClause + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&companies, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

func (r *CompanyRepository) Create(company *models.Company) error {
	query := `INSERT INTO companies (name, trade_name, cnpj, email, phone, city, state, is_active)
	          VALUES (:name, :trade_name, :cnpj, :email, :phone, :city, :state, :is_active)`
	result, err := r.db.NamedExec(query, company)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	company.ID = int(id)
	return nil
}

func (r *CompanyRepository) Update(company *models.Company) error {
	query := `UPDATE companies SET name = :name, trade_name = :trade_name, cnpj = :cnpj,
	          email = :email, phone = :phone, city = :city, state = :state,
	          is_active = :is_active WHERE id = :id`
	_, err := r.db.NamedExec(query, company)
	return err
}

func (r *CompanyRepository) Delete(id int) error {
	_, err := r.db.Exec("DELETE FROM companies WHERE id = ?", id)
	return err
}
