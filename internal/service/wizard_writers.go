package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/utils"
)

// companyWriter commits company rows from the wizard grid
type companyWriter struct {
	repo *repository.CompanyRepository
}

func (w *companyWriter) Create(_ context.Context, fields map[string]string) (string, error) {
	company := &models.Company{IsActive: true}
	applyCompanyFields(company, fields)
	if err := w.repo.Create(company); err != nil {
		return "", err
	}
	return strconv.Itoa(company.ID), nil
}

func (w *companyWriter) Update(_ context.Context, entityID string, fields map[string]string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return err
	}
	company, err := w.repo.FindByID(id)
	if err != nil {
		return err
	}
	applyCompanyFields(company, fields)
	return w.repo.Update(company)
}

// resolveCompanyID maps an optional CNPJ onto the company id, nil when
// the field is empty
func resolveCompanyID(repo *repository.CompanyRepository, cnpj string) (*int, error) {
	cnpj = utils.NormalizeCNPJ(cnpj)
	if cnpj == "" {
		return nil, nil
	}
	company, err := repo.FindByCNPJ(cnpj)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("company " + utils.FormatCNPJ(cnpj) + " not found")
	}
	if err != nil {
		return nil, err
	}
	return &company.ID, nil
}

// userWriter provisions login accounts for the user step
type userWriter struct {
	prov        *ProvisioningService
	repo        *repository.UserRepository
	companyRepo *repository.CompanyRepository
}

func (w *userWriter) Create(_ context.Context, fields map[string]string) (string, error) {
	companyID, err := resolveCompanyID(w.companyRepo, fields["company_cnpj"])
	if err != nil {
		return "", err
	}
	user, err := w.prov.ProvisionOne(models.ProvisionUserRequest{
		Email:     fields["email"],
		Password:  fields["password"],
		FullName:  fields["full_name"],
		CompanyID: companyID,
	})
	if err != nil {
		return "", err
	}
	return strconv.Itoa(user.ID), nil
}

func (w *userWriter) Update(_ context.Context, entityID string, fields map[string]string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return err
	}
	user, err := w.repo.FindByID(id)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(fields["full_name"]); v != "" {
		user.Name = v
	}
	return w.repo.Update(user)
}

// profileWriter commits access-profile rows
type profileWriter struct {
	repo *repository.AccessRepository
}

func (w *profileWriter) Create(_ context.Context, fields map[string]string) (string, error) {
	profile := &models.Profile{
		Name:        strings.TrimSpace(fields["name"]),
		Description: strings.TrimSpace(fields["description"]),
		IsActive:    true,
	}
	if err := w.repo.CreateProfile(profile); err != nil {
		return "", err
	}
	return strconv.Itoa(profile.ID), nil
}

func (w *profileWriter) Update(_ context.Context, entityID string, fields map[string]string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return err
	}
	profile, err := w.repo.FindProfileByID(id)
	if err != nil {
		return err
	}
	if v, ok := fields["description"]; ok {
		profile.Description = strings.TrimSpace(v)
	}
	return w.repo.UpdateProfile(profile)
}

// roleWriter links users to profiles, optionally scoped to one company.
// References were resolved during classification; a row reaching the
// writer with a missing reference still fails cleanly.
type roleWriter struct {
	accessRepo  *repository.AccessRepository
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
}

func (w *roleWriter) resolveCompany(cnpj string) (*int, error) {
	return resolveCompanyID(w.companyRepo, cnpj)
}

func (w *roleWriter) Create(_ context.Context, fields map[string]string) (string, error) {
	user, err := w.userRepo.FindByEmail(normalizeEmail(fields["user_email"]))
	if err != nil {
		return "", errors.New("user " + fields["user_email"] + " not found")
	}
	profile, err := w.accessRepo.FindProfileByName(strings.TrimSpace(fields["profile"]))
	if err != nil {
		return "", errors.New("profile " + fields["profile"] + " not found")
	}
	companyID, err := w.resolveCompany(fields["company_cnpj"])
	if err != nil {
		return "", err
	}

	assignment := &models.RoleAssignment{
		UserID:    user.ID,
		ProfileID: profile.ID,
		CompanyID: companyID,
	}
	if err := w.accessRepo.CreateAssignment(assignment); err != nil {
		return "", err
	}
	return strconv.Itoa(assignment.ID), nil
}

func (w *roleWriter) Update(_ context.Context, entityID string, fields map[string]string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return err
	}
	assignment, err := w.accessRepo.FindAssignmentByID(id)
	if err != nil {
		return err
	}
	companyID, err := w.resolveCompany(fields["company_cnpj"])
	if err != nil {
		return err
	}
	assignment.CompanyID = companyID
	return w.accessRepo.UpdateAssignment(assignment)
}
