package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// ---- in-memory fakes ----

type fakeRequests struct {
	mu         sync.Mutex
	items      map[string]domain.ServiceRequest
	lastFilter *repository.RequestFilter
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{items: map[string]domain.ServiceRequest{}}
}

func (f *fakeRequests) Create(_ context.Context, req *domain.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	f.items[req.ID] = *req
	return nil
}

func (f *fakeRequests) Update(_ context.Context, req *domain.ServiceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	req.UpdatedAt = time.Now()
	f.items[req.ID] = *req
	return nil
}

func (f *fakeRequests) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := req
	return &copied, nil
}

func (f *fakeRequests) GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRequests) MarkViewed(_ context.Context, id string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	req.SetViewed(role, true)
	f.items[id] = req
	return nil
}

func (f *fakeRequests) ListByStatus(_ context.Context, filter repository.RequestFilter) (*repository.RequestPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = &filter
	page := &repository.RequestPage{Items: []domain.ServiceRequest{}}
	for _, req := range f.items {
		if req.CompanyID == filter.CompanyID && req.Status == filter.Status {
			page.Items = append(page.Items, req)
			page.Total++
		}
	}
	return page, nil
}

func (f *fakeRequests) CompanySummaries(_ context.Context, _ repository.CompanyFilter) ([]repository.CompanySummary, int, error) {
	return nil, 0, nil
}

type fakeMedia struct {
	mu    sync.Mutex
	items map[string]domain.MediaFile
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{items: map[string]domain.MediaFile{}}
}

func (f *fakeMedia) Create(_ context.Context, file *domain.MediaFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file.CreatedAt = time.Now()
	f.items[file.ID] = *file
	return nil
}

func (f *fakeMedia) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMedia) GetByID(_ context.Context, id string, fileType domain.FileType) (*domain.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.items[id]
	if !ok || file.FileType != fileType {
		return nil, pgx.ErrNoRows
	}
	copied := file
	return &copied, nil
}

func (f *fakeMedia) ListByService(_ context.Context, serviceID string) ([]domain.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MediaFile
	for _, file := range f.items {
		if file.ServiceID == serviceID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeMedia) ListByServiceAndOwner(_ context.Context, serviceID string, owner domain.OwnerType) ([]domain.MediaFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MediaFile
	for _, file := range f.items {
		if file.ServiceID == serviceID && file.OwnerType == owner {
			out = append(out, file)
		}
	}
	return out, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	items map[int64]domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{items: map[int64]domain.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = int64(len(f.items) + 1)
	f.items[user.ID] = *user
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[user.ID] = *user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.items {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetActiveWithRole(_ context.Context, id int64, role domain.Role) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.items[id]
	if !ok || !user.IsActive || !user.Roles().Has(role) {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUsers) SearchCustomers(_ context.Context, _ string, _, _ int) ([]repository.CustomerRow, int, error) {
	return nil, 0, nil
}

func (f *fakeUsers) SearchExecutors(_ context.Context, _ string, _, _ int) ([]repository.ExecutorRow, int, error) {
	return nil, 0, nil
}

func (f *fakeUsers) Block(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.items[id]
	if !ok || !user.IsActive {
		return pgx.ErrNoRows
	}
	user.IsActive = false
	f.items[id] = user
	return nil
}

type fakeCompanies struct {
	mu     sync.Mutex
	byUser map[int64]domain.Company
}

func newFakeCompanies() *fakeCompanies {
	return &fakeCompanies{byUser: map[int64]domain.Company{}}
}

func (f *fakeCompanies) Create(_ context.Context, company *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[company.UserID] = *company
	return nil
}

func (f *fakeCompanies) Update(_ context.Context, company *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[company.UserID] = *company
	return nil
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, company := range f.byUser {
		if company.ID == id {
			copied := company
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCompanies) GetByUserID(_ context.Context, userID int64) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	company, ok := f.byUser[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := company
	return &copied, nil
}

func (f *fakeCompanies) AddContact(_ context.Context, _ *domain.CompanyContact) error { return nil }

func (f *fakeCompanies) ReplaceContacts(_ context.Context, _ string, _ []domain.CompanyContact) error {
	return nil
}

type fakeTokens struct {
	mu    sync.Mutex
	items map[string]domain.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{items: map[string]domain.RefreshToken{}}
}

func (f *fakeTokens) Create(_ context.Context, token *domain.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	f.items[token.ID] = *token
	return nil
}

func (f *fakeTokens) GetByToken(_ context.Context, value string) (*domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.items {
		if token.Token == value {
			copied := token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTokens) Expire(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	token.ExpiresAt = time.Now().Add(-time.Second)
	f.items[id] = token
	return nil
}

func (f *fakeTokens) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, token := range f.items {
		if token.ExpiresAt.Before(cutoff) {
			delete(f.items, id)
			removed++
		}
	}
	return removed, nil
}

type fakeStore struct {
	repos repository.Repositories
}

func (s *fakeStore) Repos() repository.Repositories { return s.repos }

func (s *fakeStore) WithinTx(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(s.repos)
}

type fakeBlobs struct {
	mu      sync.Mutex
	videos  int
	images  int
	removed []string
}

func (b *fakeBlobs) SaveVideo(requestID, filename string, _ io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videos++
	return fmt.Sprintf("%s/%s-%s", requestID, uuid.NewString(), filename), nil
}

func (b *fakeBlobs) SaveImage(requestID string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images++
	return fmt.Sprintf("%s/%s.jpg", requestID, uuid.NewString()), nil
}

func (b *fakeBlobs) Remove(_ domain.FileType, rel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, rel)
	return nil
}

func (b *fakeBlobs) RemoveAll(files []domain.MediaFile) {
	for _, file := range files {
		_ = b.Remove(file.FileType, file.URL)
	}
}

// ---- fixture ----

type fixture struct {
	service   *RequestService
	requests  *fakeRequests
	media     *fakeMedia
	users     *fakeUsers
	companies *fakeCompanies
	blobs     *fakeBlobs
}

func newFixture() *fixture {
	requests := newFakeRequests()
	mediaRepo := newFakeMedia()
	users := newFakeUsers()
	companies := newFakeCompanies()
	store := &fakeStore{repos: repository.Repositories{
		Requests:  requests,
		Media:     mediaRepo,
		Users:     users,
		Companies: companies,
		Tokens:    newFakeTokens(),
	}}
	blobs := &fakeBlobs{}
	return &fixture{
		service: NewRequestService(RequestDependencies{
			Store: store,
			Blobs: blobs,
		}),
		requests:  requests,
		media:     mediaRepo,
		users:     users,
		companies: companies,
		blobs:     blobs,
	}
}

func (f *fixture) addUser(t *testing.T, user domain.User) int64 {
	t.Helper()
	user.IsActive = true
	require.NoError(t, f.users.Create(context.Background(), &user))
	return user.ID
}

func (f *fixture) addCustomerWithCompany(t *testing.T) (int64, string) {
	t.Helper()
	customerID := f.addUser(t, domain.User{Username: fmt.Sprintf("customer-%d", len(f.users.items)+1), IsCustomer: true})
	company := domain.Company{ID: uuid.NewString(), UserID: customerID, Name: "LLC Test"}
	require.NoError(t, f.companies.Create(context.Background(), &company))
	return customerID, company.ID
}

func (f *fixture) seedRequest(t *testing.T, req domain.ServiceRequest) string {
	t.Helper()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	require.NoError(t, f.requests.Create(context.Background(), &req))
	return req.ID
}

func actorWith(userID int64, roles ...domain.Role) domain.Actor {
	return domain.Actor{UserID: userID, Roles: domain.NewRoleSet(roles...)}
}

func imageUpload() MediaUpload {
	return MediaUpload{FileType: domain.FileTypeImage, Filename: "photo.jpg", Content: []byte{1}}
}

func videoUpload() MediaUpload {
	return MediaUpload{FileType: domain.FileTypeVideo, Filename: "clip.mp4", Content: []byte{1}}
}

// ---- tests ----

func TestCreateByCustomer(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	actor := actorWith(customerID, domain.RoleCustomer)

	deadline := time.Now().Add(72 * time.Hour)
	req, err := f.service.CreateByCustomer(context.Background(), actor, RequestCreateInput{
		Title:      "leaking pipe",
		DeadlineAt: &deadline,
		Uploads:    []MediaUpload{videoUpload(), imageUpload(), imageUpload()},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusNew, req.Status)
	require.NotNil(t, req.DeadlineAt)
	assert.Equal(t, deadline, *req.DeadlineAt)
	stored, err := f.requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeadlineAt)
	assert.Equal(t, deadline, *stored.DeadlineAt)
	assert.Equal(t, companyID, req.CompanyID)
	assert.Equal(t, customerID, req.CustomerID)
	assert.True(t, req.ViewedCustomer)
	assert.False(t, req.ViewedAdmin)
	assert.False(t, req.ViewedExecutor)

	files, err := f.media.ListByService(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	for _, file := range files {
		assert.Equal(t, domain.OwnerTypeCustomer, file.OwnerType)
	}
	assert.Equal(t, 1, f.blobs.videos)
	assert.Equal(t, 2, f.blobs.images)
}

func TestCreateByCustomerRejectsOversizedBatch(t *testing.T) {
	f := newFixture()
	customerID, _ := f.addCustomerWithCompany(t)
	actor := actorWith(customerID, domain.RoleCustomer)

	_, err := f.service.CreateByCustomer(context.Background(), actor, RequestCreateInput{
		Title:   "too much",
		Uploads: []MediaUpload{imageUpload(), imageUpload(), imageUpload(), imageUpload()},
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.blobs.images, "no file may be written on a rejected batch")
	assert.Empty(t, f.requests.items)
}

func TestCreateByCustomerRequiresTitle(t *testing.T) {
	f := newFixture()
	customerID, _ := f.addCustomerWithCompany(t)

	_, err := f.service.CreateByCustomer(context.Background(), actorWith(customerID, domain.RoleCustomer), RequestCreateInput{Title: "   "})
	require.Error(t, err)
}

func TestCreateByAdmin(t *testing.T) {
	f := newFixture()
	customerID, _ := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	deadline := time.Now().Add(24 * time.Hour)
	comment := "keys at the front desk"
	req, err := f.service.CreateByAdmin(context.Background(), admin, RequestCreateInput{
		CustomerID: customerID,
		ExecutorID: &executorID,
		Comment:    &comment,
		Title:      "scheduled maintenance",
		DeadlineAt: &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusNew, req.Status)
	assert.True(t, req.ViewedAdmin)
	assert.False(t, req.ViewedCustomer)
	require.NotNil(t, req.ExecutorID)
	assert.Equal(t, executorID, *req.ExecutorID)
	require.NotNil(t, req.DeadlineAt)
	assert.Equal(t, deadline, *req.DeadlineAt)
	require.NotNil(t, req.Comment)
	assert.Equal(t, comment, *req.Comment)
}

func TestCreateByAdminRejectsCustomerAsExecutor(t *testing.T) {
	f := newFixture()
	customerID, _ := f.addCustomerWithCompany(t)
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	_, err := f.service.CreateByAdmin(context.Background(), admin, RequestCreateInput{
		CustomerID: customerID,
		ExecutorID: &customerID,
		Title:      "self-service",
	})
	require.Error(t, err)
}

func TestAssign(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID:     customerID,
		CompanyID:      companyID,
		Title:          "broken lift",
		Status:         domain.RequestStatusNew,
		ViewedCustomer: true,
	})

	deadline := time.Now().Add(48 * time.Hour)
	comment := "bring spare parts"
	emergency := true
	req, err := f.service.Assign(context.Background(), admin, requestID, AssignInput{
		ExecutorID: executorID,
		DeadlineAt: &deadline,
		Comment:    &comment,
		Emergency:  &emergency,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusWorking, req.Status)
	assert.True(t, req.ViewedAdmin)
	assert.False(t, req.ViewedCustomer)
	assert.False(t, req.ViewedExecutor)
	require.NotNil(t, req.ExecutorID)
	assert.Equal(t, executorID, *req.ExecutorID)
	require.NotNil(t, req.Comment)
	assert.Equal(t, comment, *req.Comment)
	assert.True(t, req.Emergency)
}

func TestAssignRequiresAdmin(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		Title:      "x",
		Status:     domain.RequestStatusNew,
	})

	_, err := f.service.Assign(context.Background(), actorWith(customerID, domain.RoleCustomer), requestID, AssignInput{ExecutorID: 99})
	require.Error(t, err)
}

func TestSubmitForVerification(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		ExecutorID: &executorID,
		Title:      "in progress",
		Status:     domain.RequestStatusWorking,
	})

	req, err := f.service.SubmitForVerification(context.Background(),
		actorWith(executorID, domain.RoleExecutor), requestID, []MediaUpload{imageUpload()})
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusVerifying, req.Status)
	assert.False(t, req.ViewedAdmin)
	assert.False(t, req.ViewedCustomer)
	assert.True(t, req.ViewedExecutor)

	files, err := f.media.ListByServiceAndOwner(context.Background(), requestID, domain.OwnerTypeExecutor)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSubmitForVerificationGuards(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})
	strangerID := f.addUser(t, domain.User{Username: "other", IsExecutor: true})

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		ExecutorID: &executorID,
		Title:      "in progress",
		Status:     domain.RequestStatusWorking,
	})

	t.Run("requires at least one attachment", func(t *testing.T) {
		_, err := f.service.SubmitForVerification(context.Background(),
			actorWith(executorID, domain.RoleExecutor), requestID, nil)
		require.Error(t, err)
	})

	t.Run("rejects foreign executor", func(t *testing.T) {
		_, err := f.service.SubmitForVerification(context.Background(),
			actorWith(strangerID, domain.RoleExecutor), requestID, []MediaUpload{imageUpload()})
		require.Error(t, err)
	})

	t.Run("enforces verify limits", func(t *testing.T) {
		_, err := f.service.SubmitForVerification(context.Background(),
			actorWith(executorID, domain.RoleExecutor), requestID,
			[]MediaUpload{imageUpload(), imageUpload(), imageUpload()})
		require.Error(t, err)
	})

	t.Run("rejects wrong status", func(t *testing.T) {
		newID := f.seedRequest(t, domain.ServiceRequest{
			CustomerID: customerID,
			CompanyID:  companyID,
			ExecutorID: &executorID,
			Title:      "fresh",
			Status:     domain.RequestStatusNew,
		})
		_, err := f.service.SubmitForVerification(context.Background(),
			actorWith(executorID, domain.RoleExecutor), newID, []MediaUpload{imageUpload()})
		require.Error(t, err)
	})
}

func TestClose(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID:     customerID,
		CompanyID:      companyID,
		Title:          "done soon",
		Status:         domain.RequestStatusVerifying,
		ViewedExecutor: true,
	})

	req, err := f.service.Close(context.Background(), admin, requestID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusClosed, req.Status)
	assert.True(t, req.ViewedAdmin)
	assert.False(t, req.ViewedCustomer)
	assert.False(t, req.ViewedExecutor)
}

func TestEditByCustomer(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	actor := actorWith(customerID, domain.RoleCustomer)

	description := "old text"
	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID:     customerID,
		CompanyID:      companyID,
		Title:          "old title",
		Description:    &description,
		Status:         domain.RequestStatusNew,
		ViewedAdmin:    true,
		ViewedCustomer: true,
		ViewedExecutor: true,
	})

	kept := domain.MediaFile{ID: uuid.NewString(), ServiceID: requestID, FileType: domain.FileTypeImage, OwnerType: domain.OwnerTypeCustomer, URL: "a.jpg"}
	dropped := domain.MediaFile{ID: uuid.NewString(), ServiceID: requestID, FileType: domain.FileTypeImage, OwnerType: domain.OwnerTypeCustomer, URL: "b.jpg"}
	require.NoError(t, f.media.Create(context.Background(), &kept))
	require.NoError(t, f.media.Create(context.Background(), &dropped))

	title := "new title"
	req, err := f.service.Edit(context.Background(), actor, requestID, RequestEditInput{
		Title:           &title,
		RetainedFileIDs: []string{kept.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "new title", req.Title)
	assert.Nil(t, req.Description, "absent description clears the stored value")
	assert.False(t, req.ViewedAdmin)
	assert.False(t, req.ViewedExecutor)
	assert.True(t, req.ViewedCustomer, "own flag survives a customer edit")

	_, err = f.media.GetByID(context.Background(), dropped.ID, domain.FileTypeImage)
	assert.Equal(t, pgx.ErrNoRows, err)
	_, err = f.media.GetByID(context.Background(), kept.ID, domain.FileTypeImage)
	assert.NoError(t, err)
	assert.Contains(t, f.blobs.removed, "b.jpg")
}

func TestEditByCustomerGuards(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	otherID, _ := f.addCustomerWithCompany(t)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		Title:      "x",
		Status:     domain.RequestStatusWorking,
	})

	t.Run("foreign request", func(t *testing.T) {
		_, err := f.service.Edit(context.Background(), actorWith(otherID, domain.RoleCustomer), requestID, RequestEditInput{})
		require.Error(t, err)
	})

	t.Run("only NEW status", func(t *testing.T) {
		_, err := f.service.Edit(context.Background(), actorWith(customerID, domain.RoleCustomer), requestID, RequestEditInput{})
		require.Error(t, err)
	})
}

func TestEditByAdmin(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID:     customerID,
		CompanyID:      companyID,
		Title:          "x",
		Status:         domain.RequestStatusWorking,
		ViewedCustomer: true,
		ViewedExecutor: true,
	})

	comment := "reassigned"
	req, err := f.service.Edit(context.Background(), admin, requestID, RequestEditInput{
		ExecutorID: &executorID,
		Comment:    &comment,
	})
	require.NoError(t, err)

	require.NotNil(t, req.ExecutorID)
	assert.Equal(t, executorID, *req.ExecutorID)
	assert.False(t, req.ViewedCustomer)
	assert.False(t, req.ViewedExecutor)
}

func TestEditReconciliationEnforcesCreateLimits(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	actor := actorWith(customerID, domain.RoleCustomer)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		Title:      "x",
		Status:     domain.RequestStatusNew,
	})
	first := domain.MediaFile{ID: uuid.NewString(), ServiceID: requestID, FileType: domain.FileTypeImage, OwnerType: domain.OwnerTypeCustomer, URL: "1.jpg"}
	second := domain.MediaFile{ID: uuid.NewString(), ServiceID: requestID, FileType: domain.FileTypeImage, OwnerType: domain.OwnerTypeCustomer, URL: "2.jpg"}
	require.NoError(t, f.media.Create(context.Background(), &first))
	require.NoError(t, f.media.Create(context.Background(), &second))

	_, err := f.service.Edit(context.Background(), actor, requestID, RequestEditInput{
		RetainedFileIDs: []string{first.ID, second.ID},
		Uploads:         []MediaUpload{imageUpload(), imageUpload()},
	})
	require.Error(t, err, "retained plus new files exceed the create budget")
}

func TestGetMarksViewedForCallerRole(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID:     customerID,
		CompanyID:      companyID,
		Title:          "unseen",
		Status:         domain.RequestStatusNew,
		ViewedCustomer: true,
	})

	req, err := f.service.Get(context.Background(), admin, requestID)
	require.NoError(t, err)
	assert.True(t, req.ViewedAdmin)

	stored, err := f.requests.GetByID(context.Background(), requestID)
	require.NoError(t, err)
	assert.True(t, stored.ViewedAdmin, "flag persisted, not just mutated in memory")
	assert.NotNil(t, req.Customer)
}

func TestGetAccessControl(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	otherID, _ := f.addCustomerWithCompany(t)
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		ExecutorID: &executorID,
		Title:      "restricted",
		Status:     domain.RequestStatusWorking,
	})

	_, err := f.service.Get(context.Background(), actorWith(otherID, domain.RoleCustomer), requestID)
	require.Error(t, err)

	_, err = f.service.Get(context.Background(), actorWith(customerID, domain.RoleCustomer), requestID)
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), actorWith(executorID, domain.RoleExecutor), requestID)
	require.NoError(t, err)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	requestID := f.seedRequest(t, domain.ServiceRequest{
		CustomerID: customerID,
		CompanyID:  companyID,
		Title:      "to remove",
		Status:     domain.RequestStatusClosed,
	})
	file := domain.MediaFile{ID: uuid.NewString(), ServiceID: requestID, FileType: domain.FileTypeImage, OwnerType: domain.OwnerTypeCustomer, URL: "gone.jpg"}
	require.NoError(t, f.media.Create(context.Background(), &file))

	require.NoError(t, f.service.Delete(context.Background(), admin, requestID))

	_, err := f.requests.GetByID(context.Background(), requestID)
	assert.Equal(t, pgx.ErrNoRows, err)
	files, err := f.media.ListByService(context.Background(), requestID)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Contains(t, f.blobs.removed, "gone.jpg")
}

func TestDeleteUnknownRequest(t *testing.T) {
	f := newFixture()
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	err := f.service.Delete(context.Background(), admin, uuid.NewString())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListByStatusScopesExecutor(t *testing.T) {
	f := newFixture()
	executorID := f.addUser(t, domain.User{Username: "exec", IsExecutor: true})

	_, err := f.service.ListByStatus(context.Background(),
		actorWith(executorID, domain.RoleExecutor), uuid.NewString(), domain.RequestStatusWorking, ListOptions{})
	require.NoError(t, err)

	require.NotNil(t, f.requests.lastFilter)
	require.NotNil(t, f.requests.lastFilter.ExecutorID)
	assert.Equal(t, executorID, *f.requests.lastFilter.ExecutorID)
	assert.Equal(t, domain.RoleExecutor, f.requests.lastFilter.UnreadFor)
}

func TestListByStatusAdminUnscoped(t *testing.T) {
	f := newFixture()
	admin := actorWith(f.addUser(t, domain.User{Username: "admin", IsAdmin: true}), domain.RoleAdmin)

	_, err := f.service.ListByStatus(context.Background(), admin, uuid.NewString(), domain.RequestStatusNew, ListOptions{})
	require.NoError(t, err)

	require.NotNil(t, f.requests.lastFilter)
	assert.Nil(t, f.requests.lastFilter.ExecutorID)
	assert.Equal(t, domain.RoleAdmin, f.requests.lastFilter.UnreadFor)
}

func TestListByStatusRejectsCustomer(t *testing.T) {
	f := newFixture()
	customerID, _ := f.addCustomerWithCompany(t)

	_, err := f.service.ListByStatus(context.Background(),
		actorWith(customerID, domain.RoleCustomer), uuid.NewString(), domain.RequestStatusNew, ListOptions{})
	require.Error(t, err)
}

func TestListForCustomerResolvesCompany(t *testing.T) {
	f := newFixture()
	customerID, companyID := f.addCustomerWithCompany(t)

	_, err := f.service.ListForCustomer(context.Background(),
		actorWith(customerID, domain.RoleCustomer), domain.RequestStatusNew, ListOptions{})
	require.NoError(t, err)

	require.NotNil(t, f.requests.lastFilter)
	assert.Equal(t, companyID, f.requests.lastFilter.CompanyID)
	assert.Equal(t, domain.RoleCustomer, f.requests.lastFilter.UnreadFor)
}
