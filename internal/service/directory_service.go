package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// DirectoryService manages the customer and executor rosters.
type DirectoryService struct {
	store      repository.Store
	bcryptCost int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(store repository.Store, bcryptCost int) *DirectoryService {
	return &DirectoryService{store: store, bcryptCost: bcryptCost}
}

// ContactInput is one company phone contact.
type ContactInput struct {
	Phone  string
	Person *string
}

// CustomerCreateInput describes a new customer account with company.
type CustomerCreateInput struct {
	Username       string
	Password       string
	CompanyName    string
	CompanyAddress *string
	OpeningTime    *string
	ClosingTime    *string
	OnlyWeekdays   bool
	Contacts       []ContactInput
}

// CustomerUpdateInput patches a customer's account and company card.
// Nil fields are untouched; contacts, when present, replace the stored
// set.
type CustomerUpdateInput struct {
	Username       *string
	Password       *string
	CompanyName    *string
	CompanyAddress *string
	OpeningTime    *string
	ClosingTime    *string
	OnlyWeekdays   *bool
	Contacts       []ContactInput
}

// ExecutorCreateInput describes a new executor account.
type ExecutorCreateInput struct {
	Username string
	Password string
	Name     *string
	Phone    *string
}

// ExecutorUpdateInput patches an executor's account and card.
type ExecutorUpdateInput struct {
	Username *string
	Password *string
	Name     *string
	Phone    *string
}

// CreateCustomer registers a customer account together with its
// company and contacts in one transaction.
func (s *DirectoryService) CreateCustomer(ctx context.Context, actor domain.Actor, input CustomerCreateInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("admin role required")
	}
	if err := validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, apperrors.NewValidationError("company name is required", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := s.checkUsernameFree(ctx, repos.Users, input.Username); err != nil {
			return err
		}
		user = &domain.User{
			Username:     strings.TrimSpace(input.Username),
			PasswordHash: hash,
			IsActive:     true,
			IsCustomer:   true,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}

		company := &domain.Company{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			Name:         strings.TrimSpace(input.CompanyName),
			Address:      input.CompanyAddress,
			OpeningTime:  input.OpeningTime,
			ClosingTime:  input.ClosingTime,
			OnlyWeekdays: input.OnlyWeekdays,
		}
		if err := repos.Companies.Create(ctx, company); err != nil {
			return err
		}
		for _, contact := range input.Contacts {
			record := &domain.CompanyContact{
				ID:        uuid.NewString(),
				CompanyID: company.ID,
				Phone:     contact.Phone,
				Person:    contact.Person,
			}
			if err := repos.Companies.AddContact(ctx, record); err != nil {
				return err
			}
			company.Contacts = append(company.Contacts, *record)
		}
		user.Company = company
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateCustomer patches company details for a customer account.
func (s *DirectoryService) UpdateCustomer(ctx context.Context, actor domain.Actor, userID int64, input CustomerUpdateInput) (*domain.User, error) {
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, apperrors.NewAuthorizationError("access denied")
	}

	var user *domain.User
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		user, err = repos.Users.GetActiveWithRole(ctx, userID, domain.RoleCustomer)
		if err != nil {
			return userError(err, userID, "customer")
		}
		company, err := repos.Companies.GetByUserID(ctx, user.ID)
		if err != nil {
			return userError(err, userID, "company")
		}

		changed, err := s.applyCredentialPatch(ctx, repos.Users, user, input.Username, input.Password)
		if err != nil {
			return err
		}
		if changed {
			if err := repos.Users.Update(ctx, user); err != nil {
				return err
			}
		}

		if input.CompanyName != nil && strings.TrimSpace(*input.CompanyName) != "" {
			company.Name = strings.TrimSpace(*input.CompanyName)
		}
		if input.CompanyAddress != nil {
			company.Address = input.CompanyAddress
		}
		if input.OpeningTime != nil {
			company.OpeningTime = input.OpeningTime
		}
		if input.ClosingTime != nil {
			company.ClosingTime = input.ClosingTime
		}
		if input.OnlyWeekdays != nil {
			company.OnlyWeekdays = *input.OnlyWeekdays
		}
		if err := repos.Companies.Update(ctx, company); err != nil {
			return err
		}

		if input.Contacts != nil {
			contacts := make([]domain.CompanyContact, 0, len(input.Contacts))
			for _, contact := range input.Contacts {
				contacts = append(contacts, domain.CompanyContact{
					ID:        uuid.NewString(),
					CompanyID: company.ID,
					Phone:     contact.Phone,
					Person:    contact.Person,
				})
			}
			if err := repos.Companies.ReplaceContacts(ctx, company.ID, contacts); err != nil {
				return err
			}
			company.Contacts = contacts
		}
		user.Company = company
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateExecutor registers an executor account.
func (s *DirectoryService) CreateExecutor(ctx context.Context, actor domain.Actor, input ExecutorCreateInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewAuthorizationError("admin role required")
	}
	if err := validateCredentials(input.Username, input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := s.checkUsernameFree(ctx, repos.Users, input.Username); err != nil {
			return err
		}
		user = &domain.User{
			Username:     strings.TrimSpace(input.Username),
			PasswordHash: hash,
			IsActive:     true,
			IsExecutor:   true,
			Name:         input.Name,
			Phone:        input.Phone,
		}
		return repos.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateExecutor patches an executor's card.
func (s *DirectoryService) UpdateExecutor(ctx context.Context, actor domain.Actor, userID int64, input ExecutorUpdateInput) (*domain.User, error) {
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, apperrors.NewAuthorizationError("access denied")
	}

	repos := s.store.Repos()
	user, err := repos.Users.GetActiveWithRole(ctx, userID, domain.RoleExecutor)
	if err != nil {
		return nil, userError(err, userID, "executor")
	}
	if _, err := s.applyCredentialPatch(ctx, repos.Users, user, input.Username, input.Password); err != nil {
		return nil, err
	}
	if input.Name != nil {
		user.Name = input.Name
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if err := repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// applyCredentialPatch rewrites username and password when present.
// A new username must be free, a new password long enough.
func (s *DirectoryService) applyCredentialPatch(ctx context.Context, users repository.UserRepository, user *domain.User, username, password *string) (bool, error) {
	changed := false
	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			return false, apperrors.NewValidationError("username is required", nil)
		}
		if trimmed != user.Username {
			if err := s.checkUsernameFree(ctx, users, trimmed); err != nil {
				return false, err
			}
			user.Username = trimmed
			changed = true
		}
	}
	if password != nil {
		if len(*password) < 8 {
			return false, apperrors.NewValidationError("password must be at least 8 characters", nil)
		}
		hash, err := auth.HashPassword(*password, s.bcryptCost)
		if err != nil {
			return false, err
		}
		user.PasswordHash = hash
		changed = true
	}
	return changed, nil
}

// SearchCustomers pages the customer roster, matching company name or
// address when a search term is present.
func (s *DirectoryService) SearchCustomers(ctx context.Context, actor domain.Actor, search string, page, limit int) ([]repository.CustomerRow, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.NewAuthorizationError("admin role required")
	}
	page, limit = repository.NormalizePage(page, limit)
	return s.store.Repos().Users.SearchCustomers(ctx, strings.TrimSpace(search), page, limit)
}

// SearchExecutors pages the executor roster, matching name or phone.
func (s *DirectoryService) SearchExecutors(ctx context.Context, actor domain.Actor, search string, page, limit int) ([]repository.ExecutorRow, int, error) {
	if !actor.IsAdmin() {
		return nil, 0, apperrors.NewAuthorizationError("admin role required")
	}
	page, limit = repository.NormalizePage(page, limit)
	return s.store.Repos().Users.SearchExecutors(ctx, strings.TrimSpace(search), page, limit)
}

// Block soft-blocks an account. Existing rows stay untouched so closed
// history keeps its references.
func (s *DirectoryService) Block(ctx context.Context, actor domain.Actor, userID int64) error {
	if !actor.IsAdmin() {
		return apperrors.NewAuthorizationError("admin role required")
	}
	if actor.UserID == userID {
		return apperrors.NewValidationError("cannot block own account", nil)
	}
	if err := s.store.Repos().Users.Block(ctx, userID); err != nil {
		return userError(err, userID, "user")
	}
	return nil
}

func (s *DirectoryService) checkUsernameFree(ctx context.Context, users repository.UserRepository, username string) error {
	_, err := users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return apperrors.NewConflict("username already taken", map[string]any{"username": username})
	}
	if err != pgx.ErrNoRows {
		return err
	}
	return nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return apperrors.NewValidationError("username is required", nil)
	}
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	return nil
}

func userError(err error, id int64, resource string) error {
	if err == pgx.ErrNoRows {
		return apperrors.NewNotFound(resource, map[string]any{"user_id": id})
	}
	return err
}
