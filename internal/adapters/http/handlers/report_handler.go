package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles reporting endpoints (staff only)
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetSummary returns the library-wide dashboard snapshot
// @Summary Library summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /reports/summary [get]
func (h *ReportHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.reportService.GetSummary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build summary")
	}

	return response.Success(c, "Summary retrieved successfully", summary)
}

// MostBorrowed ranks books by all-time loan count
// @Summary Most borrowed books
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param category query string false "Restrict to one category"
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {object} response.Response
// @Router /reports/most-borrowed [get]
func (h *ReportHandler) MostBorrowed(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(services.DefaultReportLimit)))

	rows, err := h.reportService.MostBorrowedBooks(c.Context(), c.Query("category"), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report retrieved successfully", fiber.Map{
		"books": rows,
	})
}

// MostActiveMembers ranks members by all-time loan count
// @Summary Most active members
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {object} response.Response
// @Router /reports/most-active-members [get]
func (h *ReportHandler) MostActiveMembers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(services.DefaultReportLimit)))

	rows, err := h.reportService.MostActiveMembers(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report retrieved successfully", fiber.Map{
		"members": rows,
	})
}

// parseDateRange reads from/to query params as YYYY-MM-DD dates.
// The returned upper bound is exclusive, one day past "to".
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}

// LoansIssued lists loans issued within a date range
// @Summary Loans issued in a date range
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD), inclusive"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorBody
// @Router /reports/loans-issued [get]
func (h *ReportHandler) LoansIssued(c *fiber.Ctx) error {
	from, to, ok := parseDateRange(c)
	if !ok {
		return response.BadRequest(c, "from and to must be dates in YYYY-MM-DD format")
	}
	params := pagination.GetParams(c)

	rows, total, err := h.reportService.LoansIssuedBetween(c.Context(), from, to, params)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			return response.BadRequest(c, "from must be before to")
		}
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report retrieved successfully", pagination.NewResponse(rows, params, total))
}

// LoansReturned lists loans returned within a date range
// @Summary Loans returned in a date range
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD), inclusive"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorBody
// @Router /reports/loans-returned [get]
func (h *ReportHandler) LoansReturned(c *fiber.Ctx) error {
	from, to, ok := parseDateRange(c)
	if !ok {
		return response.BadRequest(c, "from and to must be dates in YYYY-MM-DD format")
	}
	params := pagination.GetParams(c)

	rows, total, err := h.reportService.LoansReturnedBetween(c.Context(), from, to, params)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			return response.BadRequest(c, "from must be before to")
		}
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report retrieved successfully", pagination.NewResponse(rows, params, total))
}

// Overdue lists overdue loans with accrued fines
// @Summary Overdue report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /reports/overdue [get]
func (h *ReportHandler) Overdue(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	rows, total, err := h.reportService.ListOverdue(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report retrieved successfully", pagination.NewResponse(rows, params, total))
}
