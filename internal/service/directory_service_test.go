package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

type directoryFixture struct {
	service   *DirectoryService
	users     *fakeUsers
	companies *fakeCompanies
	admin     domain.Actor
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	users := newFakeUsers()
	companies := newFakeCompanies()
	store := &fakeStore{repos: repository.Repositories{
		Requests:  newFakeRequests(),
		Media:     newFakeMedia(),
		Users:     users,
		Companies: companies,
		Tokens:    newFakeTokens(),
	}}
	admin := domain.User{Username: "root", IsActive: true, IsAdmin: true}
	require.NoError(t, users.Create(context.Background(), &admin))
	return &directoryFixture{
		service:   NewDirectoryService(store, 4),
		users:     users,
		companies: companies,
		admin:     domain.Actor{UserID: admin.ID, Roles: domain.NewRoleSet(domain.RoleAdmin)},
	}
}

func TestCreateCustomer(t *testing.T) {
	f := newDirectoryFixture(t)
	person := "reception"

	user, err := f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username:    "acme",
		Password:    "long-enough",
		CompanyName: "ACME LLC",
		Contacts:    []ContactInput{{Phone: "+10000000000", Person: &person}},
	})
	require.NoError(t, err)

	assert.True(t, user.IsCustomer)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.Company)
	assert.Equal(t, "ACME LLC", user.Company.Name)
	require.Len(t, user.Company.Contacts, 1)
	assert.Equal(t, "+10000000000", user.Company.Contacts[0].Phone)

	stored, err := f.companies.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Company.ID, stored.ID)
}

func TestCreateCustomerValidation(t *testing.T) {
	f := newDirectoryFixture(t)

	_, err := f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username: "acme", Password: "short", CompanyName: "ACME",
	})
	require.Error(t, err, "password too short")

	_, err = f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username: "acme", Password: "long-enough", CompanyName: "  ",
	})
	require.Error(t, err, "company name required")

	customer := domain.Actor{UserID: 99, Roles: domain.NewRoleSet(domain.RoleCustomer)}
	_, err = f.service.CreateCustomer(context.Background(), customer, CustomerCreateInput{
		Username: "acme", Password: "long-enough", CompanyName: "ACME",
	})
	require.Error(t, err, "admin only")
}

func TestCreateCustomerRejectsDuplicateUsername(t *testing.T) {
	f := newDirectoryFixture(t)

	_, err := f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username: "acme", Password: "long-enough", CompanyName: "ACME",
	})
	require.NoError(t, err)

	_, err = f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username: "acme", Password: "long-enough", CompanyName: "Other",
	})
	require.Error(t, err)
}

func TestUpdateCustomer(t *testing.T) {
	f := newDirectoryFixture(t)
	created, err := f.service.CreateCustomer(context.Background(), f.admin, CustomerCreateInput{
		Username: "acme", Password: "long-enough", CompanyName: "ACME",
	})
	require.NoError(t, err)

	name := "ACME Renamed"
	weekdays := true
	self := domain.Actor{UserID: created.ID, Roles: domain.NewRoleSet(domain.RoleCustomer)}
	updated, err := f.service.UpdateCustomer(context.Background(), self, created.ID, CustomerUpdateInput{
		CompanyName:  &name,
		OnlyWeekdays: &weekdays,
		Contacts:     []ContactInput{{Phone: "+1"}, {Phone: "+2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME Renamed", updated.Company.Name)
	assert.True(t, updated.Company.OnlyWeekdays)
	assert.Len(t, updated.Company.Contacts, 2)

	// another customer cannot touch the card
	stranger := domain.Actor{UserID: created.ID + 100, Roles: domain.NewRoleSet(domain.RoleCustomer)}
	_, err = f.service.UpdateCustomer(context.Background(), stranger, created.ID, CustomerUpdateInput{})
	require.Error(t, err)
}

func TestCreateAndUpdateExecutor(t *testing.T) {
	f := newDirectoryFixture(t)
	name := "J. Smith"

	created, err := f.service.CreateExecutor(context.Background(), f.admin, ExecutorCreateInput{
		Username: "smith", Password: "long-enough", Name: &name,
	})
	require.NoError(t, err)
	assert.True(t, created.IsExecutor)
	require.NotNil(t, created.Name)

	phone := "+19990000000"
	self := domain.Actor{UserID: created.ID, Roles: domain.NewRoleSet(domain.RoleExecutor)}
	updated, err := f.service.UpdateExecutor(context.Background(), self, created.ID, ExecutorUpdateInput{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Equal(t, name, *updated.Name, "untouched fields survive")
}

func TestUpdateExecutorCredentials(t *testing.T) {
	f := newDirectoryFixture(t)
	created, err := f.service.CreateExecutor(context.Background(), f.admin, ExecutorCreateInput{
		Username: "smith", Password: "long-enough",
	})
	require.NoError(t, err)
	oldHash := created.PasswordHash

	username := "smith-renamed"
	password := "even-longer-secret"
	updated, err := f.service.UpdateExecutor(context.Background(), f.admin, created.ID, ExecutorUpdateInput{
		Username: &username,
		Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, "smith-renamed", updated.Username)
	assert.NotEqual(t, oldHash, updated.PasswordHash)

	// occupied username is rejected
	taken := "root"
	_, err = f.service.UpdateExecutor(context.Background(), f.admin, created.ID, ExecutorUpdateInput{Username: &taken})
	require.Error(t, err)

	short := "short"
	_, err = f.service.UpdateExecutor(context.Background(), f.admin, created.ID, ExecutorUpdateInput{Password: &short})
	require.Error(t, err)
}

func TestUpdateExecutorUnknown(t *testing.T) {
	f := newDirectoryFixture(t)

	_, err := f.service.UpdateExecutor(context.Background(), f.admin, 9999, ExecutorUpdateInput{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBlock(t *testing.T) {
	f := newDirectoryFixture(t)
	created, err := f.service.CreateExecutor(context.Background(), f.admin, ExecutorCreateInput{
		Username: "smith", Password: "long-enough",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Block(context.Background(), f.admin, created.ID))
	_, err = f.users.GetActiveWithRole(context.Background(), created.ID, domain.RoleExecutor)
	require.Error(t, err, "blocked accounts drop out of active lookups")

	// blocking an already blocked account reports not found
	err = f.service.Block(context.Background(), f.admin, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBlockGuards(t *testing.T) {
	f := newDirectoryFixture(t)

	err := f.service.Block(context.Background(), f.admin, f.admin.UserID)
	require.Error(t, err, "self block rejected")

	executor := domain.Actor{UserID: 7, Roles: domain.NewRoleSet(domain.RoleExecutor)}
	err = f.service.Block(context.Background(), executor, 1)
	require.Error(t, err, "admin only")
}
