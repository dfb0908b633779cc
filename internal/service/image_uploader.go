package service

import (
	"fmt"
	"io"

	"stockroom/internal/domain"
	"stockroom/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// StoredImage describes a file accepted by ImageUploader.
type StoredImage struct {
	Name string
	MIME string
	Size int64
}

// ImageUploader validates uploads by content and stores them under a
// generated name.
type ImageUploader struct {
	files    storage.FileStore
	maxBytes int64
}

func NewImageUploader(files storage.FileStore, maxBytes int64) *ImageUploader {
	return &ImageUploader{files: files, maxBytes: maxBytes}
}

// Store reads at most maxBytes from r. The client supplied file name and
// content type are ignored; only the sniffed type counts.
func (u *ImageUploader) Store(r io.Reader) (*StoredImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !isAllowedImage(detected) {
		return nil, domain.ErrUnsupportedFile
	}

	name := uuid.NewString() + detected.Extension()
	if err := u.files.Save(name, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &StoredImage{Name: name, MIME: detected.String(), Size: int64(len(data))}, nil
}

// Discard removes a stored image.
func (u *ImageUploader) Discard(name string) error {
	return u.files.Remove(name)
}

func isAllowedImage(detected *mimetype.MIME) bool {
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
