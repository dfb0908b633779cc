package transport

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxUploadFiles = 10
	// multipartMemory is held in memory before parts spill to temp files
	multipartMemory = 8 << 20
)

// MediaHandler manages uploaded product images
type MediaHandler struct {
	mediaService service.MediaService
	maxUpload    int64
	logger       *zap.Logger
}

func NewMediaHandler(mediaService service.MediaService, maxUpload int64, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		maxUpload:    maxUpload,
		logger:       logger,
	}
}

func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/media", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(middleware.RequireCapability(h.logger, domain.ManageProducts)).Post("/upload", h.Upload)
		r.With(middleware.RequireCapability(h.logger, domain.ManageProducts)).Post("/upload-multiple", h.UploadMultiple)
		r.With(middleware.RequireCapability(h.logger, domain.DeleteRecords)).Delete("/{id}", h.Delete)
	})
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	media, err := h.mediaService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to list media", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"media": media})
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrMediaNotFound)
	if !ok {
		return
	}

	media, err := h.mediaService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to get media", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"media": media})
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, ok := uploadedFile(w, r, "file", h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	media, err := h.mediaService.Upload(r.Context(), file)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to upload media", err)
		return
	}

	h.logger.Info("Media uploaded",
		zap.Int64("media_id", media.ID),
		zap.String("file_type", media.FileType),
		zap.Int64("file_size", media.FileSize),
	)
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "File uploaded successfully",
		"media":   media,
	})
}

// UploadMultiple accepts up to maxUploadFiles images in the "files" field
func (h *MediaHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	limit := maxUploadFiles*h.maxUpload + multipartOverhead
	if r.ContentLength > limit {
		middleware.RespondWithError(w, http.StatusBadRequest, domain.ErrFileTooLarge.Error())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, domain.ErrFileTooLarge.Error())
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(headers) > maxUploadFiles {
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Too many files (maximum %d)", maxUploadFiles))
		return
	}

	files := make([]io.Reader, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.logger.Warn("Failed to open uploaded part", zap.String("file", header.Filename), zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadRequest, "No files uploaded")
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(file)
		files = append(files, file)
	}

	media, err := h.mediaService.UploadMany(r.Context(), files)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to upload media", err)
		return
	}

	h.logger.Info("Media batch uploaded",
		zap.Int("files", len(headers)),
		zap.Int("stored", len(media)),
	)
	middleware.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%d file(s) uploaded successfully", len(media)),
		"media":   media,
	})
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, domain.ErrMediaNotFound)
	if !ok {
		return
	}

	if err := h.mediaService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, "Failed to delete media", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"message": "Image deleted successfully"})
}
