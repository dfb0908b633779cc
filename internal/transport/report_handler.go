package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/middleware"
	"stockroom/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	invalidDate     = "Invalid date format. Use YYYY-MM-DD"
)

// RangeRequest selects an inclusive range of calendar days
type RangeRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ReportHandler serves sales reports and the dashboard
type ReportHandler struct {
	reportService service.ReportService
	loc           *time.Location
	logger        *zap.Logger
	now           func() time.Time
}

func NewReportHandler(reportService service.ReportService, loc *time.Location, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		loc:           loc,
		logger:        logger,
		now:           time.Now,
	}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/dashboard", h.Dashboard)
	r.Get("/api/dashboard/quick-stats", h.QuickStats)

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(middleware.RequireCapability(h.logger, domain.ViewReports))
		r.Get("/daily", h.Daily)
		r.Get("/daily-summary", h.DailySummary)
		r.Get("/monthly", h.Monthly)
		r.Get("/analytics", h.Analytics)
		r.Post("/sales", h.Range)
		r.Get("/sales/export", h.Export)
	})
}

// Daily reports one day, today unless ?date= is given
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day := h.now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := service.ParseDay(raw, h.loc)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, invalidDate)
			return
		}
		day = parsed
	}

	report, err := h.reportService.Daily(r.Context(), day)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build daily report", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": report})
}

func (h *ReportHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.loc)
	year, ok := h.queryInt(w, r, "year", today.Year(), 1, 9999)
	if !ok {
		return
	}
	month, ok := h.queryInt(w, r, "month", int(today.Month()), 1, 12)
	if !ok {
		return
	}

	days, err := h.reportService.DailySummary(r.Context(), year, time.Month(month))
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build daily summary", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"data":  days,
	})
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, ok := h.queryInt(w, r, "year", h.now().In(h.loc).Year(), 1, 9999)
	if !ok {
		return
	}

	report, err := h.reportService.Monthly(r.Context(), year)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build monthly report", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": report})
}

// Range reports every sale between two inclusive dates
func (h *ReportHandler) Range(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	start, end, ok := h.parseRange(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	report, err := h.reportService.Range(r.Context(), start, end)
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build sales report", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": report})
}

// Export sends the range report as a spreadsheet download
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := RangeRequest{StartDate: query.Get("start_date"), EndDate: query.Get("end_date")}
	if err := middleware.ValidateRequest(req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	start, end, ok := h.parseRange(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportRange(r.Context(), start, end, &buf); err != nil {
		respondWithServiceError(w, h.logger, "Failed to export sales report", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sales_%s_%s.xlsx"`, req.StartDate, req.EndDate))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write sales export", zap.Error(err))
	}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reportService.Dashboard(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build dashboard", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": dashboard})
}

// Analytics reports today, this month and the recent best sellers
func (h *ReportHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.reportService.Analytics(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to build analytics", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": analytics})
}

func (h *ReportHandler) QuickStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.QuickStats(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "Failed to load quick stats", err)
		return
	}
	middleware.RespondWithSuccess(w, http.StatusOK, map[string]any{"data": stats})
}

func (h *ReportHandler) parseRange(w http.ResponseWriter, rawStart, rawEnd string) (time.Time, time.Time, bool) {
	start, err := service.ParseDay(rawStart, h.loc)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, invalidDate)
		return time.Time{}, time.Time{}, false
	}
	end, err := service.ParseDay(rawEnd, h.loc)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, invalidDate)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// queryInt reads an optional integer query parameter within [min, max]
func (h *ReportHandler) queryInt(w http.ResponseWriter, r *http.Request, name string, fallback, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		middleware.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return n, true
}
