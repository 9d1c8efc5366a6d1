package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"benefits-web/internal/draft"
	"benefits-web/internal/grid"
	"benefits-web/internal/models"
	"benefits-web/internal/preview"
	"benefits-web/internal/repository"
	"benefits-web/internal/undo"
	"benefits-web/internal/utils"
)

// Wizard steps, in registration order
const (
	StepCompanies = "empresas"
	StepUsers     = "usuarios"
	StepProfiles  = "perfis"
	StepRoles     = "roles"
)

var ErrUnknownStep = errors.New("unknown wizard step")

// stepDef binds one wizard step to its grid columns, its match key and
// its conflict policy for draft restore
type stepDef struct {
	Columns    []grid.Column
	KeyField   string
	Normalize  func(string) string
	Compare    []string
	Policy     draft.Policy
	EntityKind string
	// KeyFunc, when set, derives the match key from several fields and
	// stores it under KeyField before classification
	KeyFunc func(fields map[string]string) string
}

type WizardService struct {
	companyRepo  *repository.CompanyRepository
	userRepo     *repository.UserRepository
	accessRepo   *repository.AccessRepository
	provisioning *ProvisioningService
	drafts       draft.Store
	snapshots    undo.Store
	steps        map[string]stepDef
}

func NewWizardService(
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	accessRepo *repository.AccessRepository,
	drafts draft.Store,
	snapshots undo.Store,
) *WizardService {
	s := &WizardService{
		companyRepo:  companyRepo,
		userRepo:     userRepo,
		accessRepo:   accessRepo,
		provisioning: NewProvisioningService(userRepo),
		drafts:       drafts,
		snapshots:    snapshots,
	}
	s.steps = map[string]stepDef{
		StepCompanies: {
			Columns:    companyColumns(),
			KeyField:   "cnpj",
			Normalize:  utils.NormalizeCNPJ,
			Compare:    []string{"name", "trade_name", "email", "phone", "city", "state"},
			Policy:     draft.PolicyMerge,
			EntityKind: "company",
		},
		StepUsers: {
			Columns:    userColumns(),
			KeyField:   "email",
			Normalize:  normalizeEmail,
			Compare:    []string{"full_name"},
			Policy:     draft.PolicyKeep,
			EntityKind: "user",
		},
		StepProfiles: {
			Columns:    profileColumns(),
			KeyField:   "name",
			Normalize:  strings.TrimSpace,
			Compare:    []string{"description"},
			Policy:     draft.PolicyKeep,
			EntityKind: "profile",
		},
		StepRoles: {
			Columns:    roleColumns(),
			KeyField:   "assignment_key",
			Compare:    []string{"company_cnpj"},
			Policy:     draft.PolicyKeep,
			EntityKind: "role_assignment",
			KeyFunc: func(fields map[string]string) string {
				return normalizeEmail(fields["user_email"]) + "|" + strings.TrimSpace(fields["profile"])
			},
		},
	}
	return s
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func requiredValidator(msg string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func emailValidator(v string) error {
	if !utils.IsValidEmail(v) {
		return errors.New("invalid email")
	}
	return nil
}

func cnpjValidator(v string) error {
	if !utils.IsValidCNPJ(v) {
		return errors.New("invalid CNPJ")
	}
	return nil
}

func companyColumns() []grid.Column {
	return []grid.Column{
		{Key: "name", Title: "Razão Social", Required: true},
		{Key: "trade_name", Title: "Nome Fantasia"},
		{Key: "cnpj", Title: "CNPJ", Required: true, Normalize: utils.NormalizeCNPJ, Validator: cnpjValidator},
		{Key: "email", Title: "E-mail", Validator: func(v string) error {
			if v == "" {
				return nil
			}
			return emailValidator(v)
		}},
		{Key: "phone", Title: "Telefone", Normalize: utils.FormatPhone},
		{Key: "city", Title: "Cidade"},
		{Key: "state", Title: "UF", Validator: func(v string) error {
			if v != "" && len(v) != 2 {
				return errors.New("state must be two letters")
			}
			return nil
		}},
	}
}

func userColumns() []grid.Column {
	return []grid.Column{
		{Key: "full_name", Title: "Nome", Required: true},
		{Key: "email", Title: "E-mail", Required: true, Normalize: normalizeEmail, Validator: emailValidator},
		{Key: "password", Title: "Senha", Required: true, Validator: func(v string) error {
			if len(v) < 8 {
				return errors.New("password must have at least 8 characters")
			}
			return nil
		}},
		{Key: "company_cnpj", Title: "CNPJ da empresa", Normalize: utils.NormalizeCNPJ, Validator: func(v string) error {
			if v == "" {
				return nil
			}
			return cnpjValidator(v)
		}},
	}
}

func profileColumns() []grid.Column {
	return []grid.Column{
		{Key: "name", Title: "Perfil", Required: true},
		{Key: "description", Title: "Descrição"},
	}
}

func roleColumns() []grid.Column {
	return []grid.Column{
		{Key: "user_email", Title: "E-mail do usuário", Required: true, Normalize: normalizeEmail, Validator: emailValidator},
		{Key: "profile", Title: "Perfil", Required: true},
		{Key: "company_cnpj", Title: "CNPJ da empresa", Normalize: utils.NormalizeCNPJ, Validator: func(v string) error {
			if v == "" {
				return nil
			}
			return cnpjValidator(v)
		}},
	}
}

func (s *WizardService) Steps() []string {
	return []string{StepCompanies, StepUsers, StepProfiles, StepRoles}
}

func (s *WizardService) stepDef(step string) (stepDef, error) {
	def, ok := s.steps[step]
	if !ok {
		return stepDef{}, ErrUnknownStep
	}
	return def, nil
}

// NewGrid builds an empty editable grid for one step
func (s *WizardService) NewGrid(step string) (*grid.Grid, error) {
	def, err := s.stepDef(step)
	if err != nil {
		return nil, err
	}
	return grid.New(def.Columns), nil
}

// ValidateRows runs every column validator over a row set and returns
// the annotated rows
func (s *WizardService) ValidateRows(step string, rows []grid.Row) ([]grid.Row, error) {
	g, err := s.NewGrid(step)
	if err != nil {
		return nil, err
	}
	g.SetRows(rows)
	g.ValidateAll()
	validated := g.Rows()
	g.Stop()
	return validated, nil
}

// Drafts

func (s *WizardService) SaveDraft(ctx context.Context, userID int, step string, rows []grid.Row) error {
	if _, err := s.stepDef(step); err != nil {
		return err
	}
	return s.drafts.Save(ctx, userID, step, rows)
}

// LoadDraft returns the saved rows plus whether the restore banner
// should be offered (once per draft, per half day)
func (s *WizardService) LoadDraft(ctx context.Context, userID int, step string) ([]grid.Row, bool, error) {
	if _, err := s.stepDef(step); err != nil {
		return nil, false, err
	}
	rows, found, err := s.drafts.Load(ctx, userID, step)
	if err != nil || !found {
		return nil, false, err
	}
	shown, err := s.drafts.WasRestoreShown(ctx, userID, step)
	if err != nil {
		return rows, true, nil
	}
	if !shown {
		_ = s.drafts.MarkRestoreShown(ctx, userID, step)
	}
	return rows, !shown, nil
}

func (s *WizardService) ClearDraft(ctx context.Context, userID int, step string) error {
	if _, err := s.stepDef(step); err != nil {
		return err
	}
	return s.drafts.Clear(ctx, userID, step)
}

// ResolveDraft merges a restored draft with freshly loaded remote rows
// using the step's conflict policy
func (s *WizardService) ResolveDraft(step string, local, remote []grid.Row) ([]grid.Row, error) {
	def, err := s.stepDef(step)
	if err != nil {
		return nil, err
	}
	return draft.Resolve(def.Policy, local, remote, def.KeyField, def.Normalize), nil
}

// Preview

func (s *WizardService) Preview(ctx context.Context, step string, rows []grid.Row) ([]preview.Plan, preview.Summary, error) {
	def, err := s.stepDef(step)
	if err != nil {
		return nil, preview.Summary{}, err
	}

	rows, err = s.ValidateRows(step, rows)
	if err != nil {
		return nil, preview.Summary{}, err
	}
	rows = s.deriveKeys(def, rows)

	classifier := &preview.Classifier{
		KeyField:  def.KeyField,
		Normalize: def.Normalize,
		Compare:   def.Compare,
		Lookup:    s.lookupFor(step),
		Resolve:   s.resolveFor(step),
	}
	return classifier.Classify(ctx, rows)
}

// Apply

// Apply commits a previewed batch and records a snapshot that stays
// redeemable for the undo window.
func (s *WizardService) Apply(ctx context.Context, userID int, step string, rows []grid.Row, plans []preview.Plan) (*preview.ApplyOutcome, error) {
	def, err := s.stepDef(step)
	if err != nil {
		return nil, err
	}
	rows = s.deriveKeys(def, rows)

	applier := &preview.Applier{
		Writer:     s.writerFor(step),
		Snapshots:  s.snapshots,
		Step:       step,
		EntityKind: def.EntityKind,
	}
	outcome, err := applier.Apply(ctx, rows, plans)
	if err != nil {
		return nil, err
	}

	// A fully applied batch clears the step draft; errored rows keep it
	if outcome.Failed == 0 {
		_ = s.drafts.Clear(ctx, userID, step)
	}
	return outcome, nil
}

// Undo

// Undo replays the snapshot's compensating actions and consumes it
func (s *WizardService) Undo(ctx context.Context, snapshotID string) (*undo.UndoResult, error) {
	snap, err := s.snapshots.Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	result := undo.Execute(ctx, snap, s)
	if err := s.snapshots.Delete(ctx, snapshotID); err != nil {
		return result, err
	}
	return result, nil
}

// DismissUndo drops the snapshot without replaying it
func (s *WizardService) DismissUndo(ctx context.Context, snapshotID string) error {
	return s.snapshots.Delete(ctx, snapshotID)
}

func (s *WizardService) deriveKeys(def stepDef, rows []grid.Row) []grid.Row {
	if def.KeyFunc == nil {
		return rows
	}
	derived := make([]grid.Row, len(rows))
	for i, r := range rows {
		row := r.Clone()
		row.Fields[def.KeyField] = def.KeyFunc(row.Fields)
		derived[i] = row
	}
	return derived
}

func (s *WizardService) lookupFor(step string) func(ctx context.Context, key string) (*preview.RemoteRecord, error) {
	switch step {
	case StepCompanies:
		return func(_ context.Context, key string) (*preview.RemoteRecord, error) {
			company, err := s.companyRepo.FindByCNPJ(key)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &preview.RemoteRecord{
				ID: strconv.Itoa(company.ID),
				Fields: map[string]string{
					"name":       company.Name,
					"trade_name": company.TradeName,
					"cnpj":       company.CNPJ,
					"email":      company.Email,
					"phone":      company.Phone,
					"city":       company.City,
					"state":      company.State,
				},
			}, nil
		}
	case StepUsers:
		return func(_ context.Context, key string) (*preview.RemoteRecord, error) {
			user, err := s.userRepo.FindByEmail(key)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &preview.RemoteRecord{
				ID: strconv.Itoa(user.ID),
				Fields: map[string]string{
					"full_name": user.Name,
					"email":     user.Email,
				},
			}, nil
		}
	case StepProfiles:
		return func(_ context.Context, key string) (*preview.RemoteRecord, error) {
			profile, err := s.accessRepo.FindProfileByName(key)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &preview.RemoteRecord{
				ID: strconv.Itoa(profile.ID),
				Fields: map[string]string{
					"name":        profile.Name,
					"description": profile.Description,
				},
			}, nil
		}
	case StepRoles:
		return func(ctx context.Context, key string) (*preview.RemoteRecord, error) {
			return s.lookupAssignment(ctx, key)
		}
	}
	return nil
}

func (s *WizardService) lookupAssignment(_ context.Context, key string) (*preview.RemoteRecord, error) {
	email, profileName, ok := strings.Cut(key, "|")
	if !ok {
		return nil, nil
	}
	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	profile, err := s.accessRepo.FindProfileByName(profileName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assignments, err := s.accessRepo.GetAssignmentsByUser(user.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.ProfileID != profile.ID {
			continue
		}
		fields := map[string]string{"user_email": email, "profile": profileName}
		if a.CompanyID != nil {
			company, err := s.companyRepo.FindByID(*a.CompanyID)
			if err == nil {
				fields["company_cnpj"] = company.CNPJ
			}
		}
		return &preview.RemoteRecord{ID: strconv.Itoa(a.ID), Fields: fields}, nil
	}
	return nil, nil
}

// resolveFor marks rows whose referenced entities do not exist yet; only
// the roles step has cross-entity references
func (s *WizardService) resolveFor(step string) func(ctx context.Context, row grid.Row) error {
	if step != StepRoles {
		return nil
	}
	return func(_ context.Context, row grid.Row) error {
		email := normalizeEmail(row.Fields["user_email"])
		if _, err := s.userRepo.FindByEmail(email); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("user %s not found", email)
			}
			return err
		}
		profileName := strings.TrimSpace(row.Fields["profile"])
		if _, err := s.accessRepo.FindProfileByName(profileName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("profile %s not found", profileName)
			}
			return err
		}
		if cnpj := utils.NormalizeCNPJ(row.Fields["company_cnpj"]); cnpj != "" {
			if _, err := s.companyRepo.FindByCNPJ(cnpj); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("company %s not found", utils.FormatCNPJ(cnpj))
				}
				return err
			}
		}
		return nil
	}
}

func (s *WizardService) writerFor(step string) preview.RowWriter {
	switch step {
	case StepCompanies:
		return &companyWriter{repo: s.companyRepo}
	case StepUsers:
		return &userWriter{prov: s.provisioning, repo: s.userRepo, companyRepo: s.companyRepo}
	case StepProfiles:
		return &profileWriter{repo: s.accessRepo}
	case StepRoles:
		return &roleWriter{
			accessRepo:  s.accessRepo,
			userRepo:    s.userRepo,
			companyRepo: s.companyRepo,
		}
	}
	return nil
}

// Delete implements undo.EntityWriter: it reverses a create
func (s *WizardService) Delete(_ context.Context, entityKind, entityID string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return fmt.Errorf("invalid entity id %q", entityID)
	}
	switch entityKind {
	case "company":
		return s.companyRepo.Delete(id)
	case "user":
		return s.userRepo.Delete(id)
	case "profile":
		return s.accessRepo.DeleteProfile(id)
	case "role_assignment":
		return s.accessRepo.DeleteAssignment(id)
	}
	return fmt.Errorf("unknown entity kind %q", entityKind)
}

// Restore implements undo.EntityWriter: it writes the prior field values
// back over an update
func (s *WizardService) Restore(ctx context.Context, entityKind, entityID string, prior map[string]string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return fmt.Errorf("invalid entity id %q", entityID)
	}
	switch entityKind {
	case "company":
		company, err := s.companyRepo.FindByID(id)
		if err != nil {
			return err
		}
		applyCompanyFields(company, prior)
		return s.companyRepo.Update(company)
	case "user":
		user, err := s.userRepo.FindByID(id)
		if err != nil {
			return err
		}
		if v, ok := prior["full_name"]; ok {
			user.Name = v
		}
		return s.userRepo.Update(user)
	case "profile":
		profile, err := s.accessRepo.FindProfileByID(id)
		if err != nil {
			return err
		}
		if v, ok := prior["name"]; ok {
			profile.Name = v
		}
		if v, ok := prior["description"]; ok {
			profile.Description = v
		}
		return s.accessRepo.UpdateProfile(profile)
	case "role_assignment":
		assignment, err := s.accessRepo.FindAssignmentByID(id)
		if err != nil {
			return err
		}
		writer := &roleWriter{accessRepo: s.accessRepo, userRepo: s.userRepo, companyRepo: s.companyRepo}
		companyID, err := writer.resolveCompany(prior["company_cnpj"])
		if err != nil {
			return err
		}
		assignment.CompanyID = companyID
		return s.accessRepo.UpdateAssignment(assignment)
	}
	return fmt.Errorf("unknown entity kind %q", entityKind)
}

func applyCompanyFields(company *models.Company, fields map[string]string) {
	if v, ok := fields["name"]; ok {
		company.Name = v
	}
	if v, ok := fields["trade_name"]; ok {
		company.TradeName = v
	}
	if v, ok := fields["cnpj"]; ok && v != "" {
		company.CNPJ = utils.NormalizeCNPJ(v)
	}
	if v, ok := fields["email"]; ok {
		company.Email = v
	}
	if v, ok := fields["phone"]; ok {
		company.Phone = v
	}
	if v, ok := fields["city"]; ok {
		company.City = v
	}
	if v, ok := fields["state"]; ok {
		company.State = strings.ToUpper(v)
	}
}
