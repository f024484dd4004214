package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-desk/internal/domain"
)

// MediaFileRepository persists attachment metadata.
type MediaFileRepository interface {
	Create(ctx context.Context, file *domain.MediaFile) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string, fileType domain.FileType) (*domain.MediaFile, error)
	ListByService(ctx context.Context, serviceID string) ([]domain.MediaFile, error)
	ListByServiceAndOwner(ctx context.Context, serviceID string, owner domain.OwnerType) ([]domain.MediaFile, error)
}

type mediaFileRepository struct {
	db Querier
}

// NewMediaFileRepository constructs the repository.
func NewMediaFileRepository(db Querier) MediaFileRepository {
	return &mediaFileRepository{db: db}
}

func (r *mediaFileRepository) Create(ctx context.Context, file *domain.MediaFile) error {
	const query = `
        INSERT INTO media_files (id, service_id, file_type, owner_type, url)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	return r.db.QueryRow(ctx, query,
		file.ID,
		file.ServiceID,
		file.FileType,
		file.OwnerType,
		file.URL,
	).Scan(&file.CreatedAt)
}

func (r *mediaFileRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM media_files WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mediaFileRepository) GetByID(ctx context.Context, id string, fileType domain.FileType) (*domain.MediaFile, error) {
	const query = `
        SELECT id, service_id, file_type, owner_type, url, created_at
        FROM media_files WHERE id=$1 AND file_type=$2`
	var file domain.MediaFile
	if err := r.db.QueryRow(ctx, query, id, fileType).Scan(
		&file.ID,
		&file.ServiceID,
		&file.FileType,
		&file.OwnerType,
		&file.URL,
		&file.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *mediaFileRepository) ListByService(ctx context.Context, serviceID string) ([]domain.MediaFile, error) {
	const query = `
        SELECT id, service_id, file_type, owner_type, url, created_at
        FROM media_files WHERE service_id=$1 ORDER BY created_at`
	return r.list(ctx, query, serviceID)
}

func (r *mediaFileRepository) ListByServiceAndOwner(ctx context.Context, serviceID string, owner domain.OwnerType) ([]domain.MediaFile, error) {
	const query = `
        SELECT id, service_id, file_type, owner_type, url, created_at
        FROM media_files WHERE service_id=$1 AND owner_type=$2 ORDER BY created_at`
	return r.list(ctx, query, serviceID, owner)
}

func (r *mediaFileRepository) list(ctx context.Context, query string, args ...any) ([]domain.MediaFile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MediaFile
	for rows.Next() {
		var file domain.MediaFile
		if err := rows.Scan(
			&file.ID,
			&file.ServiceID,
			&file.FileType,
			&file.OwnerType,
			&file.URL,
			&file.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	return result, rows.Err()
}
