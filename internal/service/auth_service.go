package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/worker"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// TokenPair is an access/refresh token bundle handed to a client.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates login and refresh-token rotation.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	queue      *worker.Queue
	logger     *zap.Logger
	refreshTTL time.Duration
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, store repository.Store, queue *worker.Queue, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		queue:      queue,
		logger:     logger,
		refreshTTL: cfg.RefreshTokenTTL(),
	}
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	user, err := s.store.Repos().Users.GetByUsername(ctx, username)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.NewUnauthorized("user is blocked")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is checked and
// a fresh pair issued. Invalidation of the old row is deferred off the
// request path; a dropped task only means the row dies by its own
// expiry instead.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	repos := s.store.Repos()
	stored, err := repos.Tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, nil, err
	}
	if !stored.Valid(time.Now()) {
		return nil, nil, apperrors.NewUnauthorized("refresh token expired")
	}

	user, err := repos.Users.GetByID(ctx, stored.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.NewUnauthorized("user is blocked")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.deferExpire(stored.ID)
	return user, pair, nil
}

// Logout invalidates the presented refresh token. Unknown tokens are
// treated as already logged out.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.store.Repos().Tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return err
	}
	return s.store.Repos().Tokens.Expire(ctx, stored.ID)
}

// PurgeExpired deletes refresh-token rows that expired before the
// cutoff. Meant to be run periodically.
func (s *AuthService) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.Repos().Tokens.DeleteExpiredBefore(ctx, cutoff)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, accessExp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	refresh := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.store.Repos().Tokens.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (s *AuthService) deferExpire(tokenID string) {
	expire := func(ctx context.Context) {
		if err := s.store.Repos().Tokens.Expire(ctx, tokenID); err != nil && s.logger != nil {
			s.logger.Warn("deferred token expiry failed", zap.String("token_id", tokenID), zap.Error(err))
		}
	}
	if s.queue == nil || !s.queue.Enqueue(expire) {
		expire(context.Background())
	}
}
