package service

import (
	"context"
	"io"

	"stockroom/internal/domain"
	"stockroom/internal/repository"

	"go.uber.org/zap"
)

type MediaService interface {
	List(ctx context.Context) ([]*domain.Media, error)
	Get(ctx context.Context, id int64) (*domain.Media, error)
	Upload(ctx context.Context, file io.Reader) (*domain.Media, error)
	UploadMany(ctx context.Context, files []io.Reader) ([]*domain.Media, error)
	Delete(ctx context.Context, id int64) error
}

type mediaService struct {
	media    repository.MediaRepository
	uploader *ImageUploader
	logger   *zap.Logger
}

func NewMediaService(media repository.MediaRepository, uploader *ImageUploader, logger *zap.Logger) MediaService {
	return &mediaService{media: media, uploader: uploader, logger: logger}
}

func (s *mediaService) List(ctx context.Context) ([]*domain.Media, error) {
	return s.media.List(ctx)
}

func (s *mediaService) Get(ctx context.Context, id int64) (*domain.Media, error) {
	return s.media.FindByID(ctx, id)
}

// Upload stores the file first and removes it again if the row cannot be
// written.
func (s *mediaService) Upload(ctx context.Context, file io.Reader) (*domain.Media, error) {
	stored, err := s.uploader.Store(file)
	if err != nil {
		return nil, err
	}

	media := &domain.Media{
		FileName: stored.Name,
		FileType: stored.MIME,
		FileSize: stored.Size,
	}
	if err := s.media.Create(ctx, media); err != nil {
		s.removeFile(stored.Name)
		return nil, err
	}
	return media, nil
}

// UploadMany stores files in order. A rejected file aborts the batch and
// removes everything stored before it. A file whose row cannot be written is
// dropped and the rest of the batch continues.
func (s *mediaService) UploadMany(ctx context.Context, files []io.Reader) ([]*domain.Media, error) {
	uploaded := []*domain.Media{}
	for i, file := range files {
		stored, err := s.uploader.Store(file)
		if err != nil {
			s.discardBatch(ctx, uploaded)
			return nil, err
		}

		media := &domain.Media{
			FileName: stored.Name,
			FileType: stored.MIME,
			FileSize: stored.Size,
		}
		if err := s.media.Create(ctx, media); err != nil {
			s.logger.Error("Failed to save media row", zap.Int("file_index", i), zap.Error(err))
			s.removeFile(stored.Name)
			continue
		}
		uploaded = append(uploaded, media)
	}
	return uploaded, nil
}

func (s *mediaService) discardBatch(ctx context.Context, uploaded []*domain.Media) {
	for _, media := range uploaded {
		if err := s.media.Delete(context.WithoutCancel(ctx), media.ID); err != nil {
			s.logger.Warn("Failed to remove media row", zap.Int64("media_id", media.ID), zap.Error(err))
		}
		s.removeFile(media.FileName)
	}
}

// Delete removes the row, then the file. A leftover file is only logged.
func (s *mediaService) Delete(ctx context.Context, id int64) error {
	media, err := s.media.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(media.FileName)
	return nil
}

func (s *mediaService) removeFile(name string) {
	if err := s.uploader.Discard(name); err != nil {
		s.logger.Warn("Failed to remove media file", zap.String("file", name), zap.Error(err))
	}
}
