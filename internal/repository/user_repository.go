package repository

import (
	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	query := "SELECT * FROM users WHERE username = ? LIMIT 1"
	err := r.db.Get(&user, query, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	query := "SELECT * FROM users WHERE email = ? LIMIT 1"
	err := r.db.Get(&user, query, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id int) (*models.User, error) {
	var user models.User
	query := "SELECT * FROM users WHERE id = ? LIMIT 1"
	err := r.db.Get(&user, query, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmails resolves a batch of emails in one query; missing emails
// are simply absent from the result map.
func (r *UserRepository) FindByEmails(emails []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(emails))
	if len(emails) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT * FROM users WHERE email IN (?)", emails)
	if err != nil {
		return nil, err
	}

	var users []models.User
	err = r.db.Select(&users, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		result[u.Email] = u
	}
	return result, nil
}

func (r *UserRepository) GetUsers(limit, offset int, search string) ([]models.User, int, error) {
	var users []models.User
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE name LIKE ? OR username LIKE ? OR email LIKE ?"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}

	countQuery := "SELECT COUNT(*) FROM users " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM users " + whereClause + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&users, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) Create(user *models.User) error {
	query := `INSERT INTO users (name, username, email, password_hash, role, company_id, is_active)
	          VALUES (:name, :username, :email, :password_hash, :role, :company_id, :is_active)`
	result, err := r.db.NamedExec(query, user)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	user.ID = int(id)
	return nil
}

func (r *UserRepository) Update(user *models.User) error {
	query := `UPDATE users SET name = :name, username = :username, email = :email,
	          role = :role, company_id = :company_id, is_active = :is_active WHERE id = :id`
	_, err := r.db.NamedExec(query, user)
	return err
}

func (r *UserRepository) UpdatePassword(id int, passwordHash string) error {
	query := "UPDATE users SET password_hash = ? WHERE id = ?"
	_, err := r.db.Exec(query, passwordHash, id)
	return err
}

func (r *UserRepository) Delete(id int) error {
	_, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}
