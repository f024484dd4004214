package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// CompanyRepository persists company records and their contacts.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Company, error)
	AddContact(ctx context.Context, contact *domain.CompanyContact) error
	ReplaceContacts(ctx context.Context, companyID string, contacts []domain.CompanyContact) error
}

type companyRepository struct {
	db Querier
}

// NewCompanyRepository constructs the repository.
func NewCompanyRepository(db Querier) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (id, user_id, name, address, opening_time, closing_time, only_weekdays)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		company.ID,
		company.UserID,
		company.Name,
		company.Address,
		company.OpeningTime,
		company.ClosingTime,
		company.OnlyWeekdays,
	).Scan(&company.CreatedAt, &company.UpdatedAt)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET name=$1, address=$2, opening_time=$3, closing_time=$4, only_weekdays=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		company.Name,
		company.Address,
		company.OpeningTime,
		company.ClosingTime,
		company.OnlyWeekdays,
		company.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	return r.fetchSingle(ctx, `WHERE id=$1`, id)
}

func (r *companyRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Company, error) {
	return r.fetchSingle(ctx, `WHERE user_id=$1`, userID)
}

func (r *companyRepository) fetchSingle(ctx context.Context, where string, arg any) (*domain.Company, error) {
	query := `
        SELECT id, user_id, name, address, opening_time, closing_time, only_weekdays, created_at, updated_at
        FROM companies ` + where
	var company domain.Company
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&company.Address,
		&company.OpeningTime,
		&company.ClosingTime,
		&company.OnlyWeekdays,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}

	contacts, err := r.listContacts(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	company.Contacts = contacts
	return &company, nil
}

func (r *companyRepository) AddContact(ctx context.Context, contact *domain.CompanyContact) error {
	const query = `INSERT INTO company_contacts (id, company_id, phone, person) VALUES ($1,$2,$3,$4)`
	_, err := r.db.Exec(ctx, query, contact.ID, contact.CompanyID, contact.Phone, contact.Person)
	return err
}

// ReplaceContacts swaps the full contact list of a company.
func (r *companyRepository) ReplaceContacts(ctx context.Context, companyID string, contacts []domain.CompanyContact) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM company_contacts WHERE company_id=$1`, companyID); err != nil {
		return err
	}
	for i := range contacts {
		contacts[i].CompanyID = companyID
		if err := r.AddContact(ctx, &contacts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *companyRepository) listContacts(ctx context.Context, companyID string) ([]domain.CompanyContact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, company_id, phone, person FROM company_contacts WHERE company_id=$1`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CompanyContact
	for rows.Next() {
		var contact domain.CompanyContact
		if err := rows.Scan(&contact.ID, &contact.CompanyID, &contact.Phone, &contact.Person); err != nil {
			return nil, err
		}
		result = append(result, contact)
	}
	return result, rows.Err()
}
