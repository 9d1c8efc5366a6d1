package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/models"
	"benefits-web/internal/utils"
)

type fakeAccountStore struct {
	existing  map[string]models.User
	created   []*models.User
	failEmail string
	nextID    int
}

func (f *fakeAccountStore) FindByEmails(emails []string) (map[string]models.User, error) {
	out := make(map[string]models.User)
	for _, email := range emails {
		if user, ok := f.existing[email]; ok {
			out[email] = user
		}
	}
	return out, nil
}

func (f *fakeAccountStore) Create(user *models.User) error {
	if user.Email == f.failEmail {
		return errors.New("insert failed")
	}
	f.nextID++
	user.ID = f.nextID
	f.created = append(f.created, user)
	return nil
}

func TestProvisionOneDefaults(t *testing.T) {
	store := &fakeAccountStore{}
	svc := NewProvisioningService(store)

	companyID := 5
	user, err := svc.ProvisionOne(models.ProvisionUserRequest{
		Email:     "  Maria@Empresa.com ",
		Password:  "senha-forte",
		FullName:  " Maria Souza ",
		CompanyID: &companyID,
	})
	require.NoError(t, err)

	assert.Equal(t, "maria@empresa.com", user.Email)
	assert.Equal(t, "maria@empresa.com", user.Username)
	assert.Equal(t, "Maria Souza", user.Name)
	assert.Equal(t, "operator", user.Role)
	require.NotNil(t, user.CompanyID)
	assert.Equal(t, 5, *user.CompanyID)
	assert.True(t, user.IsActive)
	assert.True(t, utils.CheckPasswordHash("senha-forte", user.PasswordHash))
}

func TestProvisionBatchPerAccountResults(t *testing.T) {
	store := &fakeAccountStore{
		existing: map[string]models.User{
			"joao@empresa.com": {ID: 42, Email: "joao@empresa.com"},
		},
		failEmail: "quebrado@empresa.com",
	}
	svc := NewProvisioningService(store)

	results := svc.Provision([]models.ProvisionUserRequest{
		{Email: "Joao@Empresa.com", Password: "senha-forte", FullName: "João"},
		{Email: "maria@empresa.com", Password: "senha-forte", FullName: "Maria"},
		{Email: "quebrado@empresa.com", Password: "senha-forte", FullName: "Quebrado"},
	})
	require.Len(t, results, 3)

	assert.False(t, results[0].Success)
	assert.Equal(t, "joao@empresa.com", results[0].Email)
	assert.Equal(t, "email already registered", results[0].Error)

	assert.True(t, results[1].Success)
	assert.NotZero(t, results[1].UserID)

	assert.False(t, results[2].Success)
	assert.Equal(t, "insert failed", results[2].Error)

	// The failed entries do not roll back the successful one
	require.Len(t, store.created, 1)
	assert.Equal(t, "maria@empresa.com", store.created[0].Email)
}

func TestProvisionBatchDuplicateWithinBatch(t *testing.T) {
	store := &fakeAccountStore{}
	svc := NewProvisioningService(store)

	results := svc.Provision([]models.ProvisionUserRequest{
		{Email: "ana@empresa.com", Password: "senha-forte", FullName: "Ana"},
		{Email: "ANA@empresa.com", Password: "senha-forte", FullName: "Ana de novo"},
	})
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "email already registered", results[1].Error)
	assert.Len(t, store.created, 1)
}
