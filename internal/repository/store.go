package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Every
// repository runs against one of the two; no process-wide mutable handle
// is threaded through the services.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles all aggregate repositories bound to one handle.
type Repositories struct {
	Requests  RequestRepository
	Media     MediaFileRepository
	Users     UserRepository
	Companies CompanyRepository
	Tokens    RefreshTokenRepository
}

// Store hands out repositories and scopes units of work to a single
// database transaction.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore builds a Postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Repos() Repositories {
	return buildRepositories(s.pool)
}

// WithinTx runs fn against transaction-bound repositories. Any error
// rolls the whole unit of work back.
func (s *pgStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(buildRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func buildRepositories(db Querier) Repositories {
	return Repositories{
		Requests:  NewRequestRepository(db),
		Media:     NewMediaFileRepository(db),
		Users:     NewUserRepository(db),
		Companies: NewCompanyRepository(db),
		Tokens:    NewRefreshTokenRepository(db),
	}
}
