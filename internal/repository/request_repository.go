package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// RequestFilter captures listing parameters for service requests.
type RequestFilter struct {
	CompanyID      string
	Status         domain.RequestStatus
	CustomerID     *int64
	ExecutorID     *int64
	Emergency      bool
	CustomPosition bool
	Sort           domain.SortOrder
	Page           int
	Limit          int
	UnreadFor      domain.Role
}

// RequestPage is the listing result triple: one page of rows, the full
// matching count and the matching-and-unread count for the caller's role.
type RequestPage struct {
	Items  []domain.ServiceRequest
	Total  int
	Unread int
}

// CompanyFilter captures parameters for the company roster listing.
type CompanyFilter struct {
	ExecutorID *int64
	Page       int
	Limit      int
}

// CompanySummary is one roster row with unread badge counters.
type CompanySummary struct {
	CompanyID    string
	Name         string
	Address      *string
	Marked       bool
	UnreadTotal  int
	TabNew       int
	TabWorking   int
	TabVerifying int
	TabClosed    int
}

// RequestRepository encapsulates service-request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	Update(ctx context.Context, req *domain.ServiceRequest) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error)
	MarkViewed(ctx context.Context, id string, role domain.Role) error
	ListByStatus(ctx context.Context, filter RequestFilter) (*RequestPage, error)
	CompanySummaries(ctx context.Context, filter CompanyFilter) ([]CompanySummary, int, error)
}

type requestRepository struct {
	db Querier
}

// NewRequestRepository instantiates the repository over a pool or tx handle.
func NewRequestRepository(db Querier) RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, customer_id, executor_id, company_id, title, description,
       material_availability, emergency, custom_position, status, comment,
       viewed_admin, viewed_customer, viewed_executor, deadline_at, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (id, customer_id, executor_id, company_id, title, description,
            material_availability, emergency, custom_position, status, comment,
            viewed_admin, viewed_customer, viewed_executor, deadline_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		req.ID,
		req.CustomerID,
		req.ExecutorID,
		req.CompanyID,
		req.Title,
		req.Description,
		req.MaterialAvailability,
		req.Emergency,
		req.CustomPosition,
		req.Status,
		req.Comment,
		req.ViewedAdmin,
		req.ViewedCustomer,
		req.ViewedExecutor,
		req.DeadlineAt,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET executor_id=$1, title=$2, description=$3,
            material_availability=$4, emergency=$5, custom_position=$6, status=$7, comment=$8,
            viewed_admin=$9, viewed_customer=$10, viewed_executor=$11, deadline_at=$12,
            updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		req.ExecutorID,
		req.Title,
		req.Description,
		req.MaterialAvailability,
		req.Emergency,
		req.CustomPosition,
		req.Status,
		req.Comment,
		req.ViewedAdmin,
		req.ViewedCustomer,
		req.ViewedExecutor,
		req.DeadlineAt,
		req.ID,
	).Scan(&req.UpdatedAt)
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM service_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE id=$1`, requestColumns)
	return r.fetchSingle(ctx, query, id)
}

// GetByIDForUpdate takes a row lock so a concurrent transition observes
// either the pre- or post-state, never an interleaving. Only meaningful
// inside WithinTx.
func (r *requestRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE id=$1 FOR UPDATE`, requestColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&req.ID,
		&req.CustomerID,
		&req.ExecutorID,
		&req.CompanyID,
		&req.Title,
		&req.Description,
		&req.MaterialAvailability,
		&req.Emergency,
		&req.CustomPosition,
		&req.Status,
		&req.Comment,
		&req.ViewedAdmin,
		&req.ViewedCustomer,
		&req.ViewedExecutor,
		&req.DeadlineAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

// MarkViewed flips the role's unread flag to read. A second call is a
// no-op at the database level.
func (r *requestRepository) MarkViewed(ctx context.Context, id string, role domain.Role) error {
	column := viewedColumn(role)
	if column == "" {
		return nil
	}
	query := fmt.Sprintf(`UPDATE service_requests SET %s=TRUE WHERE id=$1 AND %s=FALSE`, column, column)
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *requestRepository) ListByStatus(ctx context.Context, filter RequestFilter) (*RequestPage, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)

	where := fmt.Sprintf(`company_id=$1 AND status=$2 AND %s`, flagClause(filter.Emergency, filter.CustomPosition))
	args := []any{filter.CompanyID, filter.Status}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		where += fmt.Sprintf(" AND customer_id=$%d", len(args))
	}
	if filter.ExecutorID != nil {
		args = append(args, *filter.ExecutorID)
		where += fmt.Sprintf(" AND executor_id=$%d", len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM service_requests WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	var unread int
	if column := viewedColumn(filter.UnreadFor); column != "" {
		unreadQuery := fmt.Sprintf(`SELECT COUNT(*) FROM service_requests WHERE %s AND NOT %s`, where, column)
		if err := r.db.QueryRow(ctx, unreadQuery, args...).Scan(&unread); err != nil {
			return nil, err
		}
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		requestColumns, where, orderClause(filter.Sort), limit, pageOffset(page, limit))
	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	return &RequestPage{Items: items, Total: total, Unread: unread}, nil
}

// CompanySummaries lists companies carrying requests, with per-status
// unread counters. With an executor id the roster is scoped to that
// executor's assignments and counts use the executor's unread flag;
// otherwise it is the admin view.
func (r *requestRepository) CompanySummaries(ctx context.Context, filter CompanyFilter) ([]CompanySummary, int, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)

	scope := ""
	unreadCol := "viewed_admin"
	args := []any{}
	if filter.ExecutorID != nil {
		args = append(args, *filter.ExecutorID)
		scope = " AND s.executor_id=$1"
		unreadCol = "viewed_executor"
	}

	countQuery := fmt.Sprintf(`
        SELECT COUNT(DISTINCT c.id)
        FROM companies c
        JOIN service_requests s ON s.company_id = c.id%s
        JOIN users u ON u.id = c.user_id
        WHERE u.is_active`, scope)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
        SELECT c.id, c.name, c.address,
               BOOL_OR(NOT s.%[1]s) AS marked,
               COUNT(*) FILTER (WHERE NOT s.%[1]s) AS unread_total,
               COUNT(*) FILTER (WHERE s.status='NEW' AND NOT s.%[1]s) AS tab_new,
               COUNT(*) FILTER (WHERE s.status='WORKING' AND NOT s.%[1]s) AS tab_working,
               COUNT(*) FILTER (WHERE s.status='VERIFYING' AND NOT s.%[1]s) AS tab_verifying,
               COUNT(*) FILTER (WHERE s.status='CLOSED' AND NOT s.%[1]s) AS tab_closed
        FROM companies c
        JOIN service_requests s ON s.company_id = c.id%[2]s
        JOIN users u ON u.id = c.user_id
        WHERE u.is_active
        GROUP BY c.id, c.name, c.address
        ORDER BY MAX(s.updated_at) DESC
        LIMIT %[3]d OFFSET %[4]d`, unreadCol, scope, limit, pageOffset(page, limit))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []CompanySummary
	for rows.Next() {
		var summary CompanySummary
		if err := rows.Scan(
			&summary.CompanyID,
			&summary.Name,
			&summary.Address,
			&summary.Marked,
			&summary.UnreadTotal,
			&summary.TabNew,
			&summary.TabWorking,
			&summary.TabVerifying,
			&summary.TabClosed,
		); err != nil {
			return nil, 0, err
		}
		// executor roster has no NEW tab: assignments start at WORKING
		if filter.ExecutorID != nil {
			summary.TabNew = 0
		}
		result = append(result, summary)
	}
	return result, total, rows.Err()
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var req domain.ServiceRequest
		if err := rows.Scan(
			&req.ID,
			&req.CustomerID,
			&req.ExecutorID,
			&req.CompanyID,
			&req.Title,
			&req.Description,
			&req.MaterialAvailability,
			&req.Emergency,
			&req.CustomPosition,
			&req.Status,
			&req.Comment,
			&req.ViewedAdmin,
			&req.ViewedCustomer,
			&req.ViewedExecutor,
			&req.DeadlineAt,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
