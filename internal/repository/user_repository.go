package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// CustomerRow is a roster search hit joined with company info.
type CustomerRow struct {
	UserID  int64
	Company string
	Address *string
}

// ExecutorRow is a roster search hit for executors.
type ExecutorRow struct {
	UserID int64
	Name   *string
	Phone  *string
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetActiveWithRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error)
	SearchCustomers(ctx context.Context, search string, page, limit int) ([]CustomerRow, int, error)
	SearchExecutors(ctx context.Context, search string, page, limit int) ([]ExecutorRow, int, error)
	Block(ctx context.Context, id int64) error
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, is_active, is_admin, is_customer, is_executor,
       name, phone, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, is_active, is_admin, is_customer, is_executor, name, phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.IsAdmin,
		user.IsCustomer,
		user.IsExecutor,
		user.Name,
		user.Phone,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, password_hash=$2, is_active=$3, name=$4, phone=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.Name,
		user.Phone,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

// GetActiveWithRole loads a user only when active and holding the role.
func (r *userRepository) GetActiveWithRole(ctx context.Context, id int64, role domain.Role) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1 AND is_active`
	switch role {
	case domain.RoleAdmin:
		query += ` AND is_admin`
	case domain.RoleCustomer:
		query += ` AND is_customer`
	case domain.RoleExecutor:
		query += ` AND is_executor`
	}
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsAdmin,
		&user.IsCustomer,
		&user.IsExecutor,
		&user.Name,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchCustomers pages active customers matched by company name or address.
func (r *userRepository) SearchCustomers(ctx context.Context, search string, page, limit int) ([]CustomerRow, int, error) {
	page, limit = NormalizePage(page, limit)

	where := `u.is_customer AND u.is_active`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += ` AND (c.name ILIKE $1 OR c.address ILIKE $1)`
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users u JOIN companies c ON c.user_id = u.id WHERE `+where,
		args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT u.id, c.name, c.address FROM users u JOIN companies c ON c.user_id = u.id WHERE ` + where +
		` ORDER BY c.name LIMIT ` + itoa(limit) + ` OFFSET ` + itoa(pageOffset(page, limit))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []CustomerRow
	for rows.Next() {
		var row CustomerRow
		if err := rows.Scan(&row.UserID, &row.Company, &row.Address); err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	return result, total, rows.Err()
}

// SearchExecutors pages active executors matched by name or phone.
func (r *userRepository) SearchExecutors(ctx context.Context, search string, page, limit int) ([]ExecutorRow, int, error) {
	page, limit = NormalizePage(page, limit)

	where := `is_executor AND is_active`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += ` AND (name ILIKE $1 OR phone ILIKE $1)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, phone FROM users WHERE ` + where +
		` ORDER BY name LIMIT ` + itoa(limit) + ` OFFSET ` + itoa(pageOffset(page, limit))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []ExecutorRow
	for rows.Next() {
		var row ExecutorRow
		if err := rows.Scan(&row.UserID, &row.Name, &row.Phone); err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	return result, total, rows.Err()
}

// Block soft-disables the account; requests and history stay intact.
func (r *userRepository) Block(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
