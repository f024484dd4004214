package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/persistence"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

const rosterCacheTTL = 15 * time.Second

// BlobStore abstracts the on-disk media store.
type BlobStore interface {
	SaveVideo(requestID, filename string, src io.Reader) (string, error)
	SaveImage(requestID string, data []byte) (string, error)
	Remove(fileType domain.FileType, rel string) error
	RemoveAll(files []domain.MediaFile)
}

// MediaUpload is one incoming attachment, already read into memory.
type MediaUpload struct {
	FileType domain.FileType
	Filename string
	Content  []byte
}

// RequestService coordinates the service-request lifecycle.
type RequestService struct {
	store      repository.Store
	blobs      BlobStore
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Store      repository.Store
	Blobs      BlobStore
	Dispatcher events.Dispatcher
	Cache      *persistence.Redis
	Logger     *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		logger:     deps.Logger,
	}
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	CustomerID           int64   // admin path: the customer the request is created for
	ExecutorID           *int64  // admin path only
	Comment              *string // admin path only
	Title                string
	Description          *string
	DeadlineAt           *time.Time
	MaterialAvailability bool
	Emergency            bool
	CustomPosition       bool
	Uploads              []MediaUpload
}

// AssignInput describes assignment payload.
type AssignInput struct {
	ExecutorID     int64
	DeadlineAt     *time.Time
	Comment        *string
	Emergency      *bool
	CustomPosition *bool
}

// RequestEditInput describes the patch applied by an edit. Nil fields
// are left untouched; Description is special-cased: empty or absent
// clears the stored value.
type RequestEditInput struct {
	ExecutorID           *int64
	Title                *string
	Description          *string
	DeadlineAt           *time.Time
	MaterialAvailability *bool
	Emergency            *bool
	CustomPosition       *bool
	Comment              *string
	RetainedFileIDs      []string
	Uploads              []MediaUpload
}

// ListOptions captures the common listing knobs.
type ListOptions struct {
	Emergency      bool
	CustomPosition bool
	Sort           domain.SortOrder
	Page           int
	Limit          int
}

// CreateByCustomer creates a request owned by the calling customer.
func (s *RequestService) CreateByCustomer(ctx context.Context, actor domain.Actor, input RequestCreateInput) (*domain.ServiceRequest, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	company, err := s.store.Repos().Companies.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("customer has no company", nil)
		}
		return nil, err
	}

	req := &domain.ServiceRequest{
		ID:                   uuid.NewString(),
		CustomerID:           actor.UserID,
		CompanyID:            company.ID,
		Title:                input.Title,
		Description:          input.Description,
		DeadlineAt:           input.DeadlineAt,
		MaterialAvailability: input.MaterialAvailability,
		Emergency:            input.Emergency,
		CustomPosition:       input.CustomPosition,
		Status:               domain.RequestStatusNew,
		ViewedCustomer:       true,
	}
	if err := s.createWithUploads(ctx, req, input.Uploads); err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestCreated, req.ID, actor, events.StatusChangedPayload{To: req.Status})
	return req, nil
}

// CreateByAdmin creates a request on behalf of a customer, optionally
// pre-selecting an executor. The request still starts in NEW.
func (s *RequestService) CreateByAdmin(ctx context.Context, actor domain.Actor, input RequestCreateInput) (*domain.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("admin role required")
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	customer, err := repos.Users.GetActiveWithRole(ctx, input.CustomerID, domain.RoleCustomer)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": input.CustomerID})
		}
		return nil, err
	}
	company, err := repos.Companies.GetByUserID(ctx, customer.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("customer has no company", nil)
		}
		return nil, err
	}
	if input.ExecutorID != nil {
		if err := s.checkExecutor(ctx, repos, *input.ExecutorID, customer.ID); err != nil {
			return nil, err
		}
	}

	req := &domain.ServiceRequest{
		ID:                   uuid.NewString(),
		CustomerID:           customer.ID,
		ExecutorID:           input.ExecutorID,
		CompanyID:            company.ID,
		Title:                input.Title,
		Description:          input.Description,
		DeadlineAt:           input.DeadlineAt,
		MaterialAvailability: input.MaterialAvailability,
		Emergency:            input.Emergency,
		CustomPosition:       input.CustomPosition,
		Status:               domain.RequestStatusNew,
		ViewedAdmin:          true,
	}
	if input.Comment != nil && *input.Comment != "" {
		req.Comment = input.Comment
	}
	if err := s.createWithUploads(ctx, req, input.Uploads); err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestCreated, req.ID, actor, events.StatusChangedPayload{To: req.Status})
	return req, nil
}

// Assign hands a request to an executor and moves it to WORKING.
// Deadline, comment and the priority flags are overwritten from the
// payload, not merged.
func (s *RequestService) Assign(ctx context.Context, actor domain.Actor, requestID string, input AssignInput) (*domain.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("admin role required")
	}

	var req *domain.ServiceRequest
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		req, err = s.lockRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		if err := s.checkExecutor(ctx, repos, input.ExecutorID, req.CustomerID); err != nil {
			return err
		}

		req.ExecutorID = &input.ExecutorID
		req.Status = domain.RequestStatusWorking
		if !req.ViewedAdmin {
			req.ViewedAdmin = true
		}
		req.ViewedCustomer = false
		req.ViewedExecutor = false
		req.DeadlineAt = input.DeadlineAt
		req.Comment = nil
		if input.Comment != nil && *input.Comment != "" {
			req.Comment = input.Comment
		}
		if input.Emergency != nil {
			req.Emergency = *input.Emergency
		}
		if input.CustomPosition != nil {
			req.CustomPosition = *input.CustomPosition
		}
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestAssigned, req.ID, actor, events.AssignedPayload{
		ExecutorID: input.ExecutorID,
		DeadlineAt: input.DeadlineAt,
		Emergency:  req.Emergency,
	})
	return req, nil
}

// SubmitForVerification attaches the executor's result files and moves
// the request to VERIFYING. Only the assigned executor or an admin may
// call it, only from WORKING, and at least one file is required.
func (s *RequestService) SubmitForVerification(ctx context.Context, actor domain.Actor, requestID string, uploads []MediaUpload) (*domain.ServiceRequest, error) {
	videos, images := countUploads(uploads)
	if videos+images == 0 {
		return nil, apperrors.NewValidationError("at least one attachment is required", nil)
	}
	if err := checkAttachmentPolicy(verifyLimits, videos, images); err != nil {
		return nil, err
	}

	var req *domain.ServiceRequest
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		req, err = s.lockRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			if req.ExecutorID == nil || *req.ExecutorID != actor.UserID {
				return apperrors.NewAuthorizationError("only the assigned executor may submit results")
			}
		}
		if req.Status != domain.RequestStatusWorking {
			return apperrors.NewValidationError("request is not in progress", map[string]any{"status": req.Status})
		}

		if _, err := s.saveUploads(ctx, repos.Media, req.ID, uploads, domain.OwnerTypeExecutor); err != nil {
			return err
		}

		req.Status = domain.RequestStatusVerifying
		req.ViewedAdmin = false
		req.ViewedCustomer = false
		req.ViewedExecutor = true
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestVerifying, req.ID, actor, events.StatusChangedPayload{
		From: domain.RequestStatusWorking,
		To:   domain.RequestStatusVerifying,
	})
	return req, nil
}

// Close finalizes a request.
func (s *RequestService) Close(ctx context.Context, actor domain.Actor, requestID string) (*domain.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("admin role required")
	}

	var req *domain.ServiceRequest
	var from domain.RequestStatus
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		req, err = s.lockRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		from = req.Status
		req.Status = domain.RequestStatusClosed
		if !req.ViewedAdmin {
			req.ViewedAdmin = true
		}
		req.ViewedCustomer = false
		req.ViewedExecutor = false
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RequestClosed, req.ID, actor, events.StatusChangedPayload{
		From: from,
		To:   domain.RequestStatusClosed,
	})
	return req, nil
}

// Edit patches request fields and reconciles customer attachments.
// Admins may edit anything; customers only their own requests and only
// while they are still NEW. Stored files absent from the retained set
// are removed together with their rows.
func (s *RequestService) Edit(ctx context.Context, actor domain.Actor, requestID string, input RequestEditInput) (*domain.ServiceRequest, error) {
	var req *domain.ServiceRequest
	var removed []domain.MediaFile
	var fields []string
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		req, err = s.lockRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}

		admin := actor.IsAdmin()
		if !admin {
			if req.CustomerID != actor.UserID {
				return apperrors.NewAuthorizationError("customer may only edit own requests")
			}
			if req.Status != domain.RequestStatusNew {
				return apperrors.NewValidationError("customer may only edit requests in status NEW", map[string]any{"status": req.Status})
			}
			input.ExecutorID = nil
			req.ViewedAdmin = false
		} else {
			req.ViewedCustomer = false
		}
		req.ViewedExecutor = false

		fields = applyEditPatch(req, input)

		removed, err = s.reconcileCustomerFiles(ctx, repos.Media, req, input)
		if err != nil {
			return err
		}
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	// Files come off disk only after the rows are gone for good.
	s.blobs.RemoveAll(removed)

	s.publish(ctx, events.RequestEdited, req.ID, actor, events.EditedPayload{
		Fields:        fields,
		RemovedMedia:  len(removed),
		UploadedMedia: len(input.Uploads),
	})
	return req, nil
}

// Get returns the request card with joined customer, executor and
// media data, and marks it viewed for the caller's role.
func (s *RequestService) Get(ctx context.Context, actor domain.Actor, requestID string) (*domain.ServiceRequest, error) {
	repos := s.store.Repos()
	req, err := repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, requestError(err, requestID)
	}
	if err := checkReadAccess(actor, req); err != nil {
		return nil, err
	}

	role := actor.Roles.Viewer()
	if role != "" && !req.Viewed(role) {
		if err := repos.Requests.MarkViewed(ctx, req.ID, role); err != nil {
			return nil, err
		}
		req.SetViewed(role, true)
	}

	if err := s.loadRelations(ctx, repos, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Delete removes a request with all attachment rows, then unlinks the
// files best effort.
func (s *RequestService) Delete(ctx context.Context, actor domain.Actor, requestID string) error {
	if !actor.IsAdmin() {
		return apperrors.NewAuthorizationError("admin role required")
	}

	var files []domain.MediaFile
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		req, err := s.lockRequest(ctx, repos, requestID)
		if err != nil {
			return err
		}
		files, err = repos.Media.ListByService(ctx, req.ID)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := repos.Media.Delete(ctx, file.ID); err != nil {
				return err
			}
		}
		return repos.Requests.Delete(ctx, req.ID)
	})
	if err != nil {
		return requestError(err, requestID)
	}

	s.blobs.RemoveAll(files)
	s.publish(ctx, events.RequestDeleted, requestID, actor, nil)
	return nil
}

// ListByStatus returns one page of a company's requests in the given
// status, for an admin or executor view. Executors only see requests
// assigned to them, and unread counts follow the caller's role.
func (s *RequestService) ListByStatus(ctx context.Context, actor domain.Actor, companyID string, status domain.RequestStatus, opts ListOptions) (*repository.RequestPage, error) {
	filter := repository.RequestFilter{
		CompanyID:      companyID,
		Status:         status,
		Emergency:      opts.Emergency,
		CustomPosition: opts.CustomPosition,
		Sort:           opts.Sort,
		Page:           opts.Page,
		Limit:          opts.Limit,
	}
	if actor.IsAdmin() {
		filter.UnreadFor = domain.RoleAdmin
	} else if actor.Roles.Has(domain.RoleExecutor) {
		executorID := actor.UserID
		filter.ExecutorID = &executorID
		filter.UnreadFor = domain.RoleExecutor
	} else {
		return nil, apperrors.NewAuthorizationError("admin or executor role required")
	}
	return s.listPage(ctx, filter)
}

// ListForCustomer returns one page of the calling customer's company
// requests in the given status.
func (s *RequestService) ListForCustomer(ctx context.Context, actor domain.Actor, status domain.RequestStatus, opts ListOptions) (*repository.RequestPage, error) {
	if !actor.Roles.Has(domain.RoleCustomer) {
		return nil, apperrors.NewAuthorizationError("customer role required")
	}
	company, err := s.store.Repos().Companies.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("company", nil)
		}
		return nil, err
	}
	filter := repository.RequestFilter{
		CompanyID:      company.ID,
		Status:         status,
		Emergency:      opts.Emergency,
		CustomPosition: opts.CustomPosition,
		Sort:           opts.Sort,
		Page:           opts.Page,
		Limit:          opts.Limit,
		UnreadFor:      domain.RoleCustomer,
	}
	return s.listPage(ctx, filter)
}

type rosterCacheEntry struct {
	Items []repository.CompanySummary `json:"items"`
	Total int                         `json:"total"`
}

// ListCompanies returns the company roster with unread badges. Admins
// see company-wide counters; executors only what is assigned to them.
// Results are cached briefly, staleness within the TTL is acceptable.
func (s *RequestService) ListCompanies(ctx context.Context, actor domain.Actor, page, limit int) ([]repository.CompanySummary, int, error) {
	filter := repository.CompanyFilter{Page: page, Limit: limit}
	cacheKey := fmt.Sprintf("roster:admin:%d:%d", page, limit)
	if !actor.IsAdmin() {
		if !actor.Roles.Has(domain.RoleExecutor) {
			return nil, 0, apperrors.NewAuthorizationError("admin or executor role required")
		}
		executorID := actor.UserID
		filter.ExecutorID = &executorID
		cacheKey = fmt.Sprintf("roster:executor:%d:%d:%d", executorID, page, limit)
	}

	if entry, ok := s.rosterFromCache(ctx, cacheKey); ok {
		return entry.Items, entry.Total, nil
	}

	items, total, err := s.store.Repos().Requests.CompanySummaries(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.rosterToCache(ctx, cacheKey, rosterCacheEntry{Items: items, Total: total})
	return items, total, nil
}

func (s *RequestService) rosterFromCache(ctx context.Context, key string) (rosterCacheEntry, bool) {
	var entry rosterCacheEntry
	if s.cache == nil || s.cache.Client == nil {
		return entry, false
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (s *RequestService) rosterToCache(ctx context.Context, key string, entry rosterCacheEntry) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, rosterCacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("roster cache write failed", zap.Error(err))
	}
}

func (s *RequestService) listPage(ctx context.Context, filter repository.RequestFilter) (*repository.RequestPage, error) {
	repos := s.store.Repos()
	page, err := repos.Requests.ListByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		files, err := repos.Media.ListByService(ctx, page.Items[i].ID)
		if err != nil {
			return nil, err
		}
		page.Items[i].MediaFiles = files
	}
	return page, nil
}

// createWithUploads runs the insert transaction. Files hit the disk
// before their rows; a rollback can therefore leave orphan files
// behind, which the store tolerates.
func (s *RequestService) createWithUploads(ctx context.Context, req *domain.ServiceRequest, uploads []MediaUpload) error {
	videos, images := countUploads(uploads)
	if err := checkAttachmentPolicy(createLimits, videos, images); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Requests.Create(ctx, req); err != nil {
			return err
		}
		files, err := s.saveUploads(ctx, repos.Media, req.ID, uploads, domain.OwnerTypeCustomer)
		if err != nil {
			return err
		}
		req.MediaFiles = files
		return nil
	})
}

func (s *RequestService) saveUploads(ctx context.Context, media repository.MediaFileRepository, requestID string, uploads []MediaUpload, owner domain.OwnerType) ([]domain.MediaFile, error) {
	files := make([]domain.MediaFile, 0, len(uploads))
	for _, up := range uploads {
		var rel string
		var err error
		switch up.FileType {
		case domain.FileTypeVideo:
			rel, err = s.blobs.SaveVideo(requestID, up.Filename, bytes.NewReader(up.Content))
		default:
			rel, err = s.blobs.SaveImage(requestID, up.Content)
		}
		if err != nil {
			return nil, apperrors.NewStorageFailure("saving attachment", err)
		}
		file := domain.MediaFile{
			ID:        uuid.NewString(),
			ServiceID: requestID,
			FileType:  up.FileType,
			OwnerType: owner,
			URL:       rel,
		}
		if err := media.Create(ctx, &file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// reconcileCustomerFiles drops customer-owned rows absent from the
// retained set, validates the combined count and stores new uploads.
// Returned files still need unlinking after commit.
func (s *RequestService) reconcileCustomerFiles(ctx context.Context, media repository.MediaFileRepository, req *domain.ServiceRequest, input RequestEditInput) ([]domain.MediaFile, error) {
	existing, err := media.ListByServiceAndOwner(ctx, req.ID, domain.OwnerTypeCustomer)
	if err != nil {
		return nil, err
	}
	retained := make(map[string]struct{}, len(input.RetainedFileIDs))
	for _, id := range input.RetainedFileIDs {
		retained[id] = struct{}{}
	}

	var removed []domain.MediaFile
	keptVideos, keptImages := 0, 0
	for _, file := range existing {
		if _, keep := retained[file.ID]; !keep {
			if err := media.Delete(ctx, file.ID); err != nil {
				return nil, err
			}
			removed = append(removed, file)
			continue
		}
		if file.FileType == domain.FileTypeVideo {
			keptVideos++
		} else {
			keptImages++
		}
	}

	newVideos, newImages := countUploads(input.Uploads)
	if err := checkAttachmentPolicy(createLimits, keptVideos+newVideos, keptImages+newImages); err != nil {
		return nil, err
	}
	if _, err := s.saveUploads(ctx, media, req.ID, input.Uploads, domain.OwnerTypeCustomer); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *RequestService) loadRelations(ctx context.Context, repos repository.Repositories, req *domain.ServiceRequest) error {
	files, err := repos.Media.ListByService(ctx, req.ID)
	if err != nil {
		return err
	}
	req.MediaFiles = files

	customer, err := repos.Users.GetByID(ctx, req.CustomerID)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if customer != nil {
		if company, err := repos.Companies.GetByUserID(ctx, customer.ID); err == nil {
			customer.Company = company
		} else if err != pgx.ErrNoRows {
			return err
		}
		req.Customer = customer
	}

	if req.ExecutorID != nil {
		executor, err := repos.Users.GetByID(ctx, *req.ExecutorID)
		if err != nil && err != pgx.ErrNoRows {
			return err
		}
		req.Executor = executor
	}
	return nil
}

func (s *RequestService) lockRequest(ctx context.Context, repos repository.Repositories, requestID string) (*domain.ServiceRequest, error) {
	req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, requestError(err, requestID)
	}
	return req, nil
}

// checkExecutor validates an assignment target: an active executor
// distinct from the request's customer.
func (s *RequestService) checkExecutor(ctx context.Context, repos repository.Repositories, executorID, customerID int64) error {
	if executorID == customerID {
		return apperrors.NewValidationError("customer and executor must differ", nil)
	}
	if _, err := repos.Users.GetActiveWithRole(ctx, executorID, domain.RoleExecutor); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("executor", map[string]any{"executor_id": executorID})
		}
		return err
	}
	return nil
}

func (s *RequestService) publish(ctx context.Context, eventType events.EventType, requestID string, actor domain.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	eventActor := events.Actor{UserID: actor.UserID, Role: actor.Roles.Viewer()}
	_ = s.dispatcher.Publish(ctx, events.NewEvent(eventType, requestID, eventActor, payload))
}

func validateCreateInput(input *RequestCreateInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		input.Description = nil
	}
	return nil
}

// applyEditPatch overwrites present fields and reports which ones were
// touched. An absent or empty description always clears the column.
func applyEditPatch(req *domain.ServiceRequest, input RequestEditInput) []string {
	var fields []string
	if input.Description == nil || *input.Description == "" {
		req.Description = nil
	} else {
		req.Description = input.Description
		fields = append(fields, "description")
	}
	if input.ExecutorID != nil {
		req.ExecutorID = input.ExecutorID
		fields = append(fields, "executor_id")
	}
	if input.Title != nil {
		req.Title = *input.Title
		fields = append(fields, "title")
	}
	if input.DeadlineAt != nil {
		req.DeadlineAt = input.DeadlineAt
		fields = append(fields, "deadline_at")
	}
	if input.MaterialAvailability != nil {
		req.MaterialAvailability = *input.MaterialAvailability
		fields = append(fields, "material_availability")
	}
	if input.Emergency != nil {
		req.Emergency = *input.Emergency
		fields = append(fields, "emergency")
	}
	if input.CustomPosition != nil {
		req.CustomPosition = *input.CustomPosition
		fields = append(fields, "custom_position")
	}
	if input.Comment != nil {
		req.Comment = input.Comment
		fields = append(fields, "comment")
	}
	return fields
}

func checkReadAccess(actor domain.Actor, req *domain.ServiceRequest) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Roles.Has(domain.RoleCustomer) && req.CustomerID == actor.UserID {
		return nil
	}
	if actor.Roles.Has(domain.RoleExecutor) && req.ExecutorID != nil && *req.ExecutorID == actor.UserID {
		return nil
	}
	return apperrors.NewAuthorizationError("access denied")
}

func countUploads(uploads []MediaUpload) (videos, images int) {
	for _, up := range uploads {
		if up.FileType == domain.FileTypeVideo {
			videos++
		} else {
			images++
		}
	}
	return videos, images
}

func requestError(err error, requestID string) error {
	if err == pgx.ErrNoRows {
		return apperrors.NewNotFound("service request", map[string]any{"request_id": requestID})
	}
	return err
}
