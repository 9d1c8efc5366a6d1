package repository

import (
	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

// AccessRepository covers profiles and the user/profile role assignments
type AccessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// Profiles

func (r *AccessRepository) FindProfileByID(id int) (*models.Profile, error) {
	var p models.Profile
	query := "SELECT * FROM profiles WHERE id = ? LIMIT 1"
	err := r.db.Get(&p, query, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AccessRepository) FindProfileByName(name string) (*models.Profile, error) {
	var p models.Profile
	query := "SELECT * FROM profiles WHERE name = ? LIMIT 1"
	err := r.db.Get(&p, query, name)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AccessRepository) FindProfilesByNames(names []string) (map[string]models.Profile, error) {
	result := make(map[string]models.Profile, len(names))
	if len(names) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT * FROM profiles WHERE name IN (?)", names)
	if err != nil {
		return nil, err
	}

	var profiles []models.Profile
	err = r.db.Select(&profiles, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		result[p.Name] = p
	}
	return result, nil
}

func (r *AccessRepository) GetProfiles(limit, offset int, search string) ([]models.Profile, int, error) {
	var profiles []models.Profile
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE name LIKE ? OR description LIKE ?"
		like := "%" + search + "%"
		args = append(args, like, like)
	}

	countQuery := "SELECT COUNT(*) FROM profiles " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM profiles " + whereClause + " ORDER BY name ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&profiles, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *AccessRepository) CreateProfile(p *models.Profile) error {
	query := `INSERT INTO profiles (name, description, is_active)
	          VALUES (:name, :description, :is_active)`
	result, err := r.db.NamedExec(query, p)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	p.ID = int(id)
	return nil
}

func (r *AccessRepository) UpdateProfile(p *models.Profile) error {
	query := `UPDATE profiles SET name = :name, description = :description,
	          is_active = :is_active WHERE id = :id`
	_, err := r.db.NamedExec(query, p)
	return err
}

func (r *AccessRepository) DeleteProfile(id int) error {
	_, err := r.db.Exec("DELETE FROM profiles WHERE id = ?", id)
	return err
}

// Role assignments

func (r *AccessRepository) FindAssignmentByID(id int) (*models.RoleAssignment, error) {
	var a models.RoleAssignment
	query := "SELECT * FROM role_assignments WHERE id = ? LIMIT 1"
	err := r.db.Get(&a, query, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccessRepository) FindAssignment(userID, profileID int, companyID *int) (*models.RoleAssignment, error) {
	var a models.RoleAssignment
	if companyID != nil {
		query := "SELECT * FROM role_assignments WHERE user_id = ? AND profile_id = ? AND company_id = ? LIMIT 1"
		if err := r.db.Get(&a, query, userID, profileID, *companyID); err != nil {
			return nil, err
		}
		return &a, nil
	}
	query := "SELECT * FROM role_assignments WHERE user_id = ? AND profile_id = ? AND company_id IS NULL LIMIT 1"
	if err := r.db.Get(&a, query, userID, profileID); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccessRepository) GetAssignmentsByUser(userID int) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	query := "SELECT * FROM role_assignments WHERE user_id = ? ORDER BY created_at ASC"
	err := r.db.Select(&assignments, query, userID)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AccessRepository) CreateAssignment(a *models.RoleAssignment) error {
	query := `INSERT INTO role_assignments (user_id, profile_id, company_id)
	          VALUES (:user_id, :profile_id, :company_id)`
	result, err := r.db.NamedExec(query, a)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	a.ID = int(id)
	return nil
}

func (r *AccessRepository) UpdateAssignment(a *models.RoleAssignment) error {
	query := `UPDATE role_assignments SET user_id = :user_id, profile_id = :profile_id,
	          company_id = :company_id WHERE id = :id`
	_, err := r.db.NamedExec(query, a)
	return err
}

func (r *AccessRepository) DeleteAssignment(id int) error {
	_, err := r.db.Exec("DELETE FROM role_assignments WHERE id = ?", id)
	return err
}
