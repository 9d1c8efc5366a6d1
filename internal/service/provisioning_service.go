package service

import (
	"errors"
	"strings"

	"benefits-web/internal/models"
	"benefits-web/internal/utils"
)

// UserAccountStore is the slice of the user repository the provisioning
// flow needs
type UserAccountStore interface {
	FindByEmails(emails []string) (map[string]models.User, error)
	Create(user *models.User) error
}

// ProvisioningService creates login accounts for the user wizard step.
// The wizard apply goes through ProvisionOne per row; Provision handles
// a whole batch with per-account results.
type ProvisioningService struct {
	accounts UserAccountStore
}

func NewProvisioningService(accounts UserAccountStore) *ProvisioningService {
	return &ProvisioningService{accounts: accounts}
}

// ProvisionOne creates a single account. The email doubles as the
// username; new accounts start as operators.
func (s *ProvisioningService) ProvisionOne(req models.ProvisionUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.FullName),
		Username:     email,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         "operator",
		CompanyID:    req.CompanyID,
		IsActive:     true,
	}
	if err := s.accounts.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Provision walks the batch in order, one account per entry. An email
// that already has an account is reported as a failure for that entry;
// earlier successes stand.
func (s *ProvisioningService) Provision(batch []models.ProvisionUserRequest) []models.ProvisionUserResult {
	results := make([]models.ProvisionUserResult, 0, len(batch))

	emails := make([]string, 0, len(batch))
	for _, req := range batch {
		emails = append(emails, strings.ToLower(strings.TrimSpace(req.Email)))
	}
	existing, err := s.accounts.FindByEmails(emails)
	if err != nil {
		existing = map[string]models.User{}
	}

	for _, req := range batch {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		res := models.ProvisionUserResult{Email: email}

		if _, ok := existing[email]; ok {
			res.Error = "email already registered"
			results = append(results, res)
			continue
		}

		user, err := s.ProvisionOne(req)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		existing[email] = *user
		res.UserID = user.ID
		res.Success = true
		results = append(results, res)
	}

	return results
}
