package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/domain"
)

// MediaRepository defines the interface for uploaded image records
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Media, error)
	List(ctx context.Context) ([]*domain.Media, error)
}

type mediaRepository struct {
	db DBTX
}

func NewMediaRepository(db DBTX) MediaRepository {
	return &mediaRepository{db: db}
}

func scanMedia(row rowScanner) (*domain.Media, error) {
	media := &domain.Media{}
	if err := row.Scan(&media.ID, &media.FileName, &media.FileType, &media.FileSize, &media.UploadedAt); err != nil {
		return nil, err
	}
	return media, nil
}

func (r *mediaRepository) Create(ctx context.Context, media *domain.Media) error {
	query := `
		INSERT INTO media (file_name, file_type, file_size)
		VALUES ($1, $2, $3)
		RETURNING id, upload_date
	`

	err := r.db.QueryRowContext(ctx, query, media.FileName, media.FileType, media.FileSize).
		Scan(&media.ID, &media.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

// Delete removes a media record. Records still attached to products are kept.
func (r *mediaRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		if code, _ := constraintViolation(err); code == foreignKeyViolation {
			return domain.ErrMediaInUse
		}
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return expectOneRow(result, domain.ErrMediaNotFound)
}

func (r *mediaRepository) FindByID(ctx context.Context, id int64) (*domain.Media, error) {
	query := `SELECT id, file_name, file_type, file_size, upload_date FROM media WHERE id = $1`

	media, err := scanMedia(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to find media by ID: %w", err)
	}
	return media, nil
}

// List returns media newest first
func (r *mediaRepository) List(ctx context.Context) ([]*domain.Media, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_name, file_type, file_size, upload_date
		FROM media
		ORDER BY upload_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := []*domain.Media{}
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		items = append(items, media)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media: %w", err)
	}
	return items, nil
}
