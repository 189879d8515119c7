package handlers

import (
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member profile endpoints, both the member's own
// /me surface and the staff-facing administration surface
type MemberHandler struct {
	memberService      *services.MemberService
	lendingService     *services.LendingService
	fineService        *services.FineService
	reservationService *services.ReservationService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(
	memberService *services.MemberService,
	lendingService *services.LendingService,
	fineService *services.FineService,
	reservationService *services.ReservationService,
) *MemberHandler {
	return &MemberHandler{
		memberService:      memberService,
		lendingService:     lendingService,
		fineService:        fineService,
		reservationService: reservationService,
	}
}

// me resolves the caller's member profile
func (h *MemberHandler) me(c *fiber.Ctx) (*models.MemberResponse, error) {
	userID, _ := c.Locals("userID").(uint)
	return h.memberService.GetByUserID(c.Context(), userID)
}

// GetMe returns the caller's profile with lending statistics
// @Summary My profile
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me [get]
func (h *MemberHandler) GetMe(c *fiber.Ctx) error {
	member, err := h.me(c)
	if err != nil {
		return response.NotFound(c, "No member profile for this account")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{
		"member": member,
	})
}

// UpdateMe edits the caller's profile
// @Summary Update my profile
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Fields to update"
// @Success 200 {object} response.Response
// @Router /me [put]
func (h *MemberHandler) UpdateMe(c *fiber.Ctx) error {
	member, err := h.me(c)
	if err != nil {
		return response.NotFound(c, "No member profile for this account")
	}

	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	updated, err := h.memberService.UpdateProfile(c.Context(), member.ID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, "Profile updated successfully", fiber.Map{
		"member": updated,
	})
}

// GetMyLoans lists the caller's loans
// @Summary My loans
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (ACTIVE or RETURNED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/loans [get]
func (h *MemberHandler) GetMyLoans(c *fiber.Ctx) error {
	member, err := h.me(c)
	if err != nil {
		return response.NotFound(c, "No member profile for this account")
	}

	status, ok := statusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	loans, total, err := h.lendingService.ListByMember(c.Context(), member.ID, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// GetMyFines lists the caller's fines
// @Summary My fines
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING or SETTLED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/fines [get]
func (h *MemberHandler) GetMyFines(c *fiber.Ctx) error {
	member, err := h.me(c)
	if err != nil {
		return response.NotFound(c, "No member profile for this account")
	}

	status, ok := fineStatusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	fines, total, err := h.fineService.ListByMember(c.Context(), member.ID, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fines")
	}

	return response.Success(c, "Fines retrieved successfully", pagination.NewResponse(fines, params, total))
}

// GetMyReservations lists the caller's reservations
// @Summary My reservations
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (ACTIVE, FULFILLED or CANCELLED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /me/reservations [get]
func (h *MemberHandler) GetMyReservations(c *fiber.Ctx) error {
	member, err := h.me(c)
	if err != nil {
		return response.NotFound(c, "No member profile for this account")
	}

	status := c.Query("status")
	switch status {
	case "", models.ReservationStatusActive, models.ReservationStatusFulfilled, models.ReservationStatusCancelled:
	default:
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	reservations, total, err := h.reservationService.ListByMember(c.Context(), member.ID, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", pagination.NewResponse(reservations, params, total))
}

// List lists members
// @Summary List members
// @Description List all members (staff only)
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	members, total, err := h.memberService.List(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", pagination.NewResponse(members, params, total))
}

// GetByID gets a member with statistics
// @Summary Get member
// @Description Get a member with lending statistics (staff only)
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /members/{id} [get]
func (h *MemberHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.memberService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to get member")
		}
	}

	return response.Success(c, "Member retrieved successfully", fiber.Map{
		"member": member,
	})
}

// GetLoans lists a member's loans
// @Summary Get member loans
// @Description List a member's loans (staff only)
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param status query string false "Filter by status (ACTIVE or RETURNED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /members/{id}/loans [get]
func (h *MemberHandler) GetLoans(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	status, ok := statusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	loans, total, err := h.lendingService.ListByMember(c.Context(), id, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// GetFines lists a member's fines
// @Summary Get member fines
// @Description List a member's fines (staff only)
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param status query string false "Filter by status (PENDING or SETTLED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /members/{id}/fines [get]
func (h *MemberHandler) GetFines(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	status, ok := fineStatusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	fines, total, err := h.fineService.ListByMember(c.Context(), id, status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fines")
	}

	return response.Success(c, "Fines retrieved successfully", pagination.NewResponse(fines, params, total))
}
