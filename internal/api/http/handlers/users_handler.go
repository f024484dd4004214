package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// UsersHandler manages the customer/executor directory endpoints.
type UsersHandler struct {
	directory *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{directory: directory}
}

// CreateCustomer POST /users/customers.
func (h *UsersHandler) CreateCustomer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var body dto.CreateCustomerRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.directory.CreateCustomer(c.UserContext(), principal.Actor(), service.CustomerCreateInput{
		Username:       body.Username,
		Password:       body.Password,
		CompanyName:    body.CompanyName,
		CompanyAddress: body.CompanyAddress,
		OpeningTime:    body.OpeningTime,
		ClosingTime:    body.ClosingTime,
		OnlyWeekdays:   body.OnlyWeekdays,
		Contacts:       contactInputs(body.Contacts),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": customerCard(user)})
}

// UpdateCustomer PUT /users/customers/:id.
func (h *UsersHandler) UpdateCustomer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	var body dto.UpdateCustomerRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CustomerUpdateInput{
		Username:       body.Username,
		Password:       body.Password,
		CompanyName:    body.CompanyName,
		CompanyAddress: body.CompanyAddress,
		OpeningTime:    body.OpeningTime,
		ClosingTime:    body.ClosingTime,
		OnlyWeekdays:   body.OnlyWeekdays,
	}
	if body.Contacts != nil {
		input.Contacts = contactInputs(*body.Contacts)
	}

	user, err := h.directory.UpdateCustomer(c.UserContext(), principal.Actor(), userID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerCard(user)})
}

// CreateExecutor POST /users/executors.
func (h *UsersHandler) CreateExecutor(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var body dto.CreateExecutorRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.directory.CreateExecutor(c.UserContext(), principal.Actor(), service.ExecutorCreateInput{
		Username: body.Username,
		Password: body.Password,
		Name:     body.Name,
		Phone:    body.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": executorCard(user)})
}

// UpdateExecutor PUT /users/executors/:id.
func (h *UsersHandler) UpdateExecutor(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	var body dto.UpdateExecutorRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.directory.UpdateExecutor(c.UserContext(), principal.Actor(), userID, service.ExecutorUpdateInput{
		Username: body.Username,
		Password: body.Password,
		Name:     body.Name,
		Phone:    body.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": executorCard(user)})
}

// SearchCustomers GET /users/customers.
func (h *UsersHandler) SearchCustomers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	rows, total, err := h.directory.SearchCustomers(c.UserContext(), principal.Actor(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	items := make([]dto.CustomerSearchRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.CustomerSearchRow{
			UserID:  row.UserID,
			Company: row.Company,
			Address: row.Address,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"items": items, "total": total}})
}

// SearchExecutors GET /users/executors.
func (h *UsersHandler) SearchExecutors(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	rows, total, err := h.directory.SearchExecutors(c.UserContext(), principal.Actor(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	items := make([]dto.ExecutorSearchRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.ExecutorSearchRow{
			UserID: row.UserID,
			Name:   row.Name,
			Phone:  row.Phone,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"items": items, "total": total}})
}

// Block DELETE /users/block/:id.
func (h *UsersHandler) Block(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}
	if err := h.directory.Block(c.UserContext(), principal.Actor(), userID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusAccepted)
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid user id", nil)
	}
	return userID, nil
}

func contactInputs(payloads []dto.ContactPayload) []service.ContactInput {
	contacts := make([]service.ContactInput, 0, len(payloads))
	for _, payload := range payloads {
		contacts = append(contacts, service.ContactInput{
			Phone:  payload.Phone,
			Person: payload.Person,
		})
	}
	return contacts
}

func executorCard(user *domain.User) dto.ExecutorCard {
	return dto.ExecutorCard{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Phone:    user.Phone,
	}
}
