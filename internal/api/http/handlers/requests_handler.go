package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// RequestsHandler manages service-request endpoints.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

// Create POST /services/create. Multipart: title, description, flags,
// plus video_file and image_files parts.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input, err := parseCreateForm(c)
	if err != nil {
		return err
	}
	req, err := h.requests.CreateByCustomer(c.UserContext(), principal.Actor(), *input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(req)})
}

// CreateByAdmin POST /services/create_by_admin. Same form plus
// customer_id and optional executor_id and comment.
func (h *RequestsHandler) CreateByAdmin(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input, err := parseCreateForm(c)
	if err != nil {
		return err
	}

	customerID, err := strconv.ParseInt(c.FormValue("customer_id"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("customer_id is required", nil)
	}
	input.CustomerID = customerID
	if raw := c.FormValue("executor_id"); raw != "" {
		executorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid executor_id", nil)
		}
		input.ExecutorID = &executorID
	}
	if raw := c.FormValue("comment"); raw != "" {
		input.Comment = &raw
	}

	req, err := h.requests.CreateByAdmin(c.UserContext(), principal.Actor(), *input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(req)})
}

// Assign POST /services/assign.
func (h *RequestsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var body dto.AssignRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if body.ServiceID == "" || body.ExecutorID == 0 {
		return apperrors.NewValidationError("service_id and executor_id required", nil)
	}

	req, err := h.requests.Assign(c.UserContext(), principal.Actor(), body.ServiceID, service.AssignInput{
		ExecutorID:     body.ExecutorID,
		DeadlineAt:     body.DeadlineAt,
		Comment:        body.Comment,
		Emergency:      body.Emergency,
		CustomPosition: body.CustomPosition,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Verify POST /services/verify. Multipart: service_id plus result
// attachments.
func (h *RequestsHandler) Verify(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}
	serviceID := c.FormValue("service_id")
	if serviceID == "" {
		return apperrors.NewValidationError("service_id is required", nil)
	}
	uploads, err := collectUploads(form)
	if err != nil {
		return err
	}

	req, err := h.requests.SubmitForVerification(c.UserContext(), principal.Actor(), serviceID, uploads)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Close POST /services/close/:id.
func (h *RequestsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := h.requests.Close(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Edit PUT /services/edit/:id. Multipart patch: present fields
// overwrite, current_files lists retained attachment ids, new files
// ride along as on create.
func (h *RequestsHandler) Edit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}

	input := service.RequestEditInput{}
	if v, ok := formValue(form, "title"); ok {
		input.Title = &v
	}
	if v, ok := formValue(form, "description"); ok {
		input.Description = &v
	}
	if v, ok := formValue(form, "comment"); ok {
		input.Comment = &v
	}
	if v, ok := formValue(form, "executor_id"); ok && v != "" {
		executorID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid executor_id", nil)
		}
		input.ExecutorID = &executorID
	}
	if v, ok := formValue(form, "deadline_at"); ok && v != "" {
		deadline, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.NewValidationError("invalid deadline_at", nil)
		}
		input.DeadlineAt = &deadline
	}
	if v, ok := formValue(form, "material_availability"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.NewValidationError("invalid material_availability", nil)
		}
		input.MaterialAvailability = &parsed
	}
	if v, ok := formValue(form, "emergency"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.NewValidationError("invalid emergency", nil)
		}
		input.Emergency = &parsed
	}
	if v, ok := formValue(form, "custom_position"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.NewValidationError("invalid custom_position", nil)
		}
		input.CustomPosition = &parsed
	}

	if v, ok := formValue(form, "current_files"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &input.RetainedFileIDs); err != nil {
			return apperrors.NewValidationError("current_files must be a JSON array of ids", nil)
		}
	}
	input.Uploads, err = collectUploads(form)
	if err != nil {
		return err
	}

	req, err := h.requests.Edit(c.UserContext(), principal.Actor(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Get GET /services/get/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := h.requests.Get(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(req)})
}

// Delete DELETE /services/delete/:id.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.requests.Delete(c.UserContext(), principal.Actor(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListByStatus GET /services/status/:value/:company_id.
func (h *RequestsHandler) ListByStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	status, ok := domain.ParseRequestStatus(c.Params("value"))
	if !ok {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": c.Params("value")})
	}
	opts := parseListOptions(c)
	page, err := h.requests.ListByStatus(c.UserContext(), principal.Actor(), c.Params("company_id"), status, opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listResponse(page, opts)})
}

// ListForCustomer GET /services/customer/status/:value.
func (h *RequestsHandler) ListForCustomer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	status, ok := domain.ParseRequestStatus(c.Params("value"))
	if !ok {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": c.Params("value")})
	}
	opts := parseListOptions(c)
	page, err := h.requests.ListForCustomer(c.UserContext(), principal.Actor(), status, opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listResponse(page, opts)})
}

// ListCompanies GET /services/companies/all.
func (h *RequestsHandler) ListCompanies(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)
	items, total, err := h.requests.ListCompanies(c.UserContext(), principal.Actor(), page, limit)
	if err != nil {
		return err
	}

	rows := make([]dto.CompanySummaryResponse, 0, len(items))
	for _, item := range items {
		rows = append(rows, dto.CompanySummaryResponse{
			CompanyID:   item.CompanyID,
			Name:        item.Name,
			Address:     item.Address,
			Marked:      item.Marked,
			UnreadTotal: item.UnreadTotal,
			Tabs: dto.CompanyTabCounters{
				New:       item.TabNew,
				Working:   item.TabWorking,
				Verifying: item.TabVerifying,
				Closed:    item.TabClosed,
			},
		})
	}
	return c.JSON(fiber.Map{"data": dto.CompanyListResponse{
		Items: rows,
		Total: total,
		Page:  page,
		Limit: limit,
	}})
}

func parseCreateForm(c *fiber.Ctx) (*service.RequestCreateInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("multipart form required", nil)
	}

	input := &service.RequestCreateInput{
		Title:                c.FormValue("title"),
		MaterialAvailability: formBool(form, "material_availability"),
		Emergency:            formBool(form, "emergency"),
		CustomPosition:       formBool(form, "custom_position"),
	}
	if v, ok := formValue(form, "description"); ok && strings.TrimSpace(v) != "" {
		input.Description = &v
	}
	if v, ok := formValue(form, "deadline_at"); ok && v != "" {
		deadline, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid deadline_at", nil)
		}
		input.DeadlineAt = &deadline
	}
	input.Uploads, err = collectUploads(form)
	if err != nil {
		return nil, err
	}
	return input, nil
}

func parseListOptions(c *fiber.Ctx) service.ListOptions {
	sort := domain.SortDateDesc
	if c.Query("sort") == string(domain.SortDateAsc) {
		sort = domain.SortDateAsc
	}
	return service.ListOptions{
		Emergency:      c.QueryBool("emergency", false),
		CustomPosition: c.QueryBool("custom_position", false),
		Sort:           sort,
		Page:           c.QueryInt("page", 1),
		Limit:          c.QueryInt("limit", 0),
	}
}

// collectUploads reads video_file and image_files parts into memory.
func collectUploads(form *multipart.Form) ([]service.MediaUpload, error) {
	var uploads []service.MediaUpload
	for _, fh := range form.File["video_file"] {
		content, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.MediaUpload{
			FileType: domain.FileTypeVideo,
			Filename: fh.Filename,
			Content:  content,
		})
	}
	for _, fh := range form.File["image_files"] {
		content, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.MediaUpload{
			FileType: domain.FileTypeImage,
			Filename: fh.Filename,
			Content:  content,
		})
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable upload", map[string]any{"file": fh.Filename})
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable upload", map[string]any{"file": fh.Filename})
	}
	return content, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func formBool(form *multipart.Form, key string) bool {
	v, ok := formValue(form, key)
	if !ok {
		return false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return parsed
}

func listResponse(page *repository.RequestPage, opts service.ListOptions) dto.RequestListResponse {
	items := make([]dto.RequestResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, requestResponse(&page.Items[i]))
	}
	normPage, normLimit := repository.NormalizePage(opts.Page, opts.Limit)
	return dto.RequestListResponse{
		Items:  items,
		Total:  page.Total,
		Unread: page.Unread,
		Page:   normPage,
		Limit:  normLimit,
	}
}

func requestResponse(req *domain.ServiceRequest) dto.RequestResponse {
	resp := dto.RequestResponse{
		ID:                   req.ID,
		CustomerID:           req.CustomerID,
		ExecutorID:           req.ExecutorID,
		CompanyID:            req.CompanyID,
		Title:                req.Title,
		Description:          req.Description,
		MaterialAvailability: req.MaterialAvailability,
		Emergency:            req.Emergency,
		CustomPosition:       req.CustomPosition,
		Status:               req.Status,
		Comment:              req.Comment,
		ViewedAdmin:          req.ViewedAdmin,
		ViewedCustomer:       req.ViewedCustomer,
		ViewedExecutor:       req.ViewedExecutor,
		DeadlineAt:           req.DeadlineAt,
		CreatedAt:            req.CreatedAt,
		UpdatedAt:            req.UpdatedAt,
		MediaFiles:           make([]dto.MediaFileResponse, 0, len(req.MediaFiles)),
	}
	for _, file := range req.MediaFiles {
		resp.MediaFiles = append(resp.MediaFiles, dto.MediaFileResponse{
			ID:        file.ID,
			FileType:  file.FileType,
			OwnerType: file.OwnerType,
			URL:       file.URL,
			CreatedAt: file.CreatedAt,
		})
	}
	if req.Customer != nil {
		resp.Customer = customerCard(req.Customer)
	}
	if req.Executor != nil {
		resp.Executor = &dto.ExecutorCard{
			UserID:   req.Executor.ID,
			Username: req.Executor.Username,
			Name:     req.Executor.Name,
			Phone:    req.Executor.Phone,
		}
	}
	return resp
}

func customerCard(user *domain.User) *dto.CustomerCard {
	card := &dto.CustomerCard{
		UserID:   user.ID,
		Username: user.Username,
	}
	if user.Company != nil {
		card.CompanyID = user.Company.ID
		card.Company = user.Company.Name
		card.Address = user.Company.Address
		card.OpeningTime = user.Company.OpeningTime
		card.ClosingTime = user.Company.ClosingTime
		for _, contact := range user.Company.Contacts {
			card.Contacts = append(card.Contacts, dto.ContactPayload{
				Phone:  contact.Phone,
				Person: contact.Person,
			})
		}
	}
	return card
}
