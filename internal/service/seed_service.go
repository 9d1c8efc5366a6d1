package service

import (
	"database/sql"
	"errors"

	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/utils"
)

// SeedService provisions the bootstrap admin account and a small demo
// dataset for fresh environments
type SeedService struct {
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
	accessRepo  *repository.AccessRepository
}

func NewSeedService(
	userRepo *repository.UserRepository,
	companyRepo *repository.CompanyRepository,
	accessRepo *repository.AccessRepository,
) *SeedService {
	return &SeedService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		accessRepo:  accessRepo,
	}
}

// EnsureAdmin creates the admin account when no user has it yet
func (s *SeedService) EnsureAdmin(username, password string) error {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         "Administrador",
		Username:     username,
		Email:        username + "@localhost",
		PasswordHash: passwordHash,
		Role:         "admin",
		IsActive:     true,
	}
	return s.userRepo.Create(admin)
}

// SeedDemo loads a demo company and the default access profiles;
// existing records are left alone
func (s *SeedService) SeedDemo() error {
	if _, err := s.companyRepo.FindByCNPJ("11222333000181"); errors.Is(err, sql.ErrNoRows) {
		demo := &models.Company{
			Name:      "Empresa Demonstração Ltda",
			TradeName: "Demo",
			CNPJ:      "11222333000181",
			Email:     "contato@demo.example",
			City:      "São Paulo",
			State:     "SP",
			IsActive:  true,
		}
		if err := s.companyRepo.Create(demo); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	defaults := []models.Profile{
		{Name: "Gestor", Description: "Acesso completo à carteira", IsActive: true},
		{Name: "Operador", Description: "Cadastros e importações", IsActive: true},
		{Name: "Consulta", Description: "Somente leitura", IsActive: true},
	}
	for _, p := range defaults {
		if _, err := s.accessRepo.FindProfileByName(p.Name); errors.Is(err, sql.ErrNoRows) {
			profile := p
			if err := s.accessRepo.CreateProfile(&profile); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

// CleanupDemo removes the demo company and the default profiles
func (s *SeedService) CleanupDemo() error {
	if company, err := s.companyRepo.FindByCNPJ("11222333000181"); err == nil {
		if err := s.companyRepo.Delete(company.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	for _, name := range []string{"Gestor", "Operador", "Consulta"} {
		if profile, err := s.accessRepo.FindProfileByName(name); err == nil {
			if err := s.accessRepo.DeleteProfile(profile.ID); err != nil {
				return err
			}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	return nil
}
