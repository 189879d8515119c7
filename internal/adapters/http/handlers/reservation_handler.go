package handlers

import (
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles reservation endpoints
type ReservationHandler struct {
	reservationService *services.ReservationService
	memberService      *services.MemberService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService, memberService *services.MemberService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		memberService:      memberService,
	}
}

// ReserveRequest is the request body for placing a reservation
type ReserveRequest struct {
	BookID uint `json:"book_id" validate:"required"`
}

// callerIsStaff reports whether the authenticated caller is staff
func callerIsStaff(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return models.Role(role).IsStaff()
}

// callerMemberID resolves the member profile of the authenticated caller.
// Returns 0 for staff accounts, which have no member profile.
func (h *ReservationHandler) callerMemberID(c *fiber.Ctx) (uint, error) {
	userID, _ := c.Locals("userID").(uint)
	member, err := h.memberService.GetByUserID(c.Context(), userID)
	if err != nil {
		return 0, err
	}
	return member.ID, nil
}

// Reserve places the caller at the tail of a book's wait queue
// @Summary Reserve book
// @Description Join the wait queue of a fully lent-out book
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReserveRequest true "Reservation data"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var req ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	memberID, err := h.callerMemberID(c)
	if err != nil {
		return response.Forbidden(c, "Only members can reserve books")
	}

	reservation, err := h.reservationService.Reserve(c.Context(), memberID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrMemberSuspended):
			return response.Forbidden(c, "Member account is suspended")
		case errors.Is(err, services.ErrBookStillAvailable):
			return response.Conflict(c, "Copies are available, borrow instead of reserving")
		case errors.Is(err, services.ErrAlreadyReserved):
			return response.Conflict(c, "You already have an active reservation for this book")
		default:
			return response.InternalServerError(c, "Failed to place reservation")
		}
	}

	return response.Created(c, "Reservation placed successfully", fiber.Map{
		"reservation": reservation,
	})
}

// Cancel cancels an active reservation
// @Summary Cancel reservation
// @Description Cancel your own reservation; staff may cancel any
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	isStaff := callerIsStaff(c)
	var memberID uint
	if !isStaff {
		memberID, err = h.callerMemberID(c)
		if err != nil {
			return response.Forbidden(c, "No member profile for this account")
		}
	}

	if err := h.reservationService.Cancel(c.Context(), id, memberID, isStaff); err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, services.ErrNotReservationOwner):
			return response.Forbidden(c, "Reservation belongs to another member")
		case errors.Is(err, services.ErrReservationNotActive):
			return response.Conflict(c, "Reservation is not active")
		default:
			return response.InternalServerError(c, "Failed to cancel reservation")
		}
	}

	return response.Success(c, "Reservation cancelled successfully", nil)
}

// GetByID gets a reservation with its live queue position
// @Summary Get reservation
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	reservation, err := h.reservationService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		default:
			return response.InternalServerError(c, "Failed to get reservation")
		}
	}

	// Members may only see their own reservations
	if !callerIsStaff(c) {
		memberID, err := h.callerMemberID(c)
		if err != nil || reservation.MemberID != memberID {
			return response.Forbidden(c, "Reservation belongs to another member")
		}
	}

	return response.Success(c, "Reservation retrieved successfully", fiber.Map{
		"reservation": reservation,
	})
}
