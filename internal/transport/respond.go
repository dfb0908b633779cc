package transport

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"stockroom/internal/auth"
	"stockroom/internal/domain"
	"stockroom/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var notFoundErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrGroupNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrMediaNotFound,
	domain.ErrProductNotFound,
	domain.ErrSaleNotFound,
}

var badRequestErrors = []error{
	domain.ErrUsernameTaken,
	domain.ErrGroupNameTaken,
	domain.ErrGroupLevelTaken,
	domain.ErrCategoryExists,
	domain.ErrCategoryInUse,
	domain.ErrMediaInUse,
	domain.ErrGroupInUse,
	domain.ErrUserHasSales,
	domain.ErrSelfDelete,
	domain.ErrSelfStatus,
	domain.ErrUnknownLevel,
	domain.ErrUnknownCategory,
	domain.ErrUnknownMedia,
	domain.ErrInsufficientStock,
	domain.ErrNegativeAmount,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidLevel,
	domain.ErrBlankName,
	domain.ErrPasswordMismatch,
	domain.ErrSamePassword,
	domain.ErrInvalidDateRange,
	domain.ErrFileTooLarge,
	domain.ErrUnsupportedFile,
}

// statusFor maps a domain error to its HTTP status. Zero means the error is
// unexpected.
func statusFor(err error) int {
	var lockout *domain.LockoutError
	switch {
	case errors.As(err, &lockout), errors.Is(err, domain.ErrLoginLocked):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return 0
}

// respondWithServiceError writes the envelope for err. Unexpected errors are
// logged and reported with a generic message.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	if status == 0 {
		logger.Error(msg, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var lockout *domain.LockoutError
	if errors.As(err, &lockout) {
		w.Header().Set("Retry-After", strconv.Itoa(int(lockout.RetryAfter.Seconds())))
		middleware.RespondWithError(w, status, lockout.Error())
		return
	}

	logger.Debug(msg, zap.Error(err))
	middleware.RespondWithError(w, status, rootMessage(err))
}

// rootMessage returns the message of the domain sentinel wrapped by err.
func rootMessage(err error) string {
	for _, group := range [][]error{notFoundErrors, badRequestErrors, {domain.ErrInvalidCredentials, domain.ErrWrongPassword, domain.ErrLoginLocked}} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	return err.Error()
}

// decodeRequest decodes and validates the JSON body into v, writing the 400
// response itself when that fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v any) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, middleware.ErrMalformedBody.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. Malformed ids are reported as not
// found.
func pathID(w http.ResponseWriter, r *http.Request, notFound error) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusNotFound, notFound.Error())
		return 0, false
	}
	return id, true
}

// caller returns the authenticated identity. Routes using it are always
// mounted behind the auth middleware.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Access token required")
		return nil, false
	}
	return identity, true
}

// multipartOverhead leaves room for boundaries and headers around the file
const multipartOverhead = 64 << 10

// uploadedFile returns the multipart file under field, writing the 400
// response itself when the form is missing or oversized.
func uploadedFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, bool) {
	limit := maxBytes + multipartOverhead
	if r.ContentLength > limit {
		middleware.RespondWithError(w, http.StatusBadRequest, domain.ErrFileTooLarge.Error())
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, _, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, domain.ErrFileTooLarge.Error())
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return nil, false
	}
	return file, true
}
