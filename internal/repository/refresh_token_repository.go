package repository

import (
	"context"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// RefreshTokenRepository persists rotating refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByToken(ctx context.Context, value string) (*domain.RefreshToken, error)
	Expire(ctx context.Context, id string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db Querier
}

// NewRefreshTokenRepository constructs the repository.
func NewRefreshTokenRepository(db Querier) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO auth_refresh_tokens (id, user_id, refresh_token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, value string) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, user_id, refresh_token, expires_at, created_at
        FROM auth_refresh_tokens WHERE refresh_token=$1`
	var token domain.RefreshToken
	if err := r.db.QueryRow(ctx, query, value).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// Expire invalidates the token by moving its expiry into the past. The
// row is kept; cleanup happens separately.
func (r *refreshTokenRepository) Expire(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE auth_refresh_tokens SET expires_at=NOW() - INTERVAL '1 second' WHERE id=$1`, id)
	return err
}

// DeleteExpiredBefore removes tokens that expired before the cutoff.
func (r *refreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM auth_refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
