package handlers

import (
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LendingHandler handles loan endpoints
type LendingHandler struct {
	lendingService *services.LendingService
}

// NewLendingHandler creates a new lending handler
func NewLendingHandler(lendingService *services.LendingService) *LendingHandler {
	return &LendingHandler{lendingService: lendingService}
}

// statusFilter reads and validates the optional ?status= loan filter
func statusFilter(c *fiber.Ctx) (string, bool) {
	status := c.Query("status")
	switch status {
	case "", models.LoanStatusActive, models.LoanStatusReturned:
		return status, true
	}
	return "", false
}

// actorFromCtx builds the acting principal from the auth middleware locals
func actorFromCtx(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	return services.Actor{UserID: userID, Role: models.Role(role)}
}

// Borrow issues a book to a member
// @Summary Issue loan
// @Description Borrow a book; staff name the member and may set a due date
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BorrowInput true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /loans [post]
func (h *LendingHandler) Borrow(c *fiber.Ctx) error {
	var input services.BorrowInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	loan, err := h.lendingService.Borrow(c.Context(), input, actorFromCtx(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberIDRequired):
			return response.BadRequest(c, "member_id is required")
		case errors.Is(err, services.ErrMemberIDForbidden):
			return response.Forbidden(c, "Members can only borrow for themselves")
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrMemberSuspended):
			return response.Forbidden(c, "Member account is suspended")
		case errors.Is(err, services.ErrBorrowLimitReached):
			return response.Conflict(c, "Member has reached the active loan limit")
		case errors.Is(err, services.ErrBookUnavailable):
			return response.BadRequest(c, "No copies of this book are available")
		default:
			return response.InternalServerError(c, "Failed to issue loan")
		}
	}

	return response.Created(c, "Loan issued successfully", fiber.Map{
		"loan": loan,
	})
}

// Return closes a loan
// @Summary Return loan
// @Description Return your own borrowed book; staff may return any loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /loans/{id}/return [post]
func (h *LendingHandler) Return(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.lendingService.Return(c.Context(), id, actorFromCtx(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrNotLoanOwner):
			return response.Forbidden(c, "Loan belongs to another member")
		case errors.Is(err, services.ErrLoanAlreadyReturned):
			return response.Conflict(c, "Loan is already returned")
		default:
			return response.InternalServerError(c, "Failed to return loan")
		}
	}

	return response.Success(c, "Loan returned successfully", fiber.Map{
		"loan": loan,
	})
}

// List lists loans
// @Summary List loans
// @Description List loans, optionally by status (staff only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (ACTIVE or RETURNED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LendingHandler) List(c *fiber.Ctx) error {
	status, ok := statusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	loans, total, err := h.lendingService.List(c.Context(), status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// ListOverdue lists overdue loans
// @Summary List overdue loans
// @Description List active loans past their due date (staff only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LendingHandler) ListOverdue(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.lendingService.ListOverdue(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list overdue loans")
	}

	return response.Success(c, "Overdue loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// GetByID gets a loan by ID
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /loans/{id} [get]
func (h *LendingHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.lendingService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		default:
			return response.InternalServerError(c, "Failed to get loan")
		}
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"loan": loan,
	})
}
