package handlers

import (
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FineHandler handles fine endpoints
type FineHandler struct {
	fineService *services.FineService
}

// NewFineHandler creates a new fine handler
func NewFineHandler(fineService *services.FineService) *FineHandler {
	return &FineHandler{fineService: fineService}
}

// fineStatusFilter reads and validates the optional ?status= fine filter
func fineStatusFilter(c *fiber.Ctx) (string, bool) {
	status := c.Query("status")
	switch status {
	case "", models.FineStatusPending, models.FineStatusSettled:
		return status, true
	}
	return "", false
}

// List lists fines
// @Summary List fines
// @Description List fines, optionally by status (staff only)
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING or SETTLED)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /fines [get]
func (h *FineHandler) List(c *fiber.Ctx) error {
	status, ok := fineStatusFilter(c)
	if !ok {
		return response.BadRequest(c, "Invalid status filter")
	}
	params := pagination.GetParams(c)

	fines, total, err := h.fineService.List(c.Context(), status, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fines")
	}

	return response.Success(c, "Fines retrieved successfully", pagination.NewResponse(fines, params, total))
}

// GetByID gets a fine by ID
// @Summary Get fine
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /fines/{id} [get]
func (h *FineHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	fine, err := h.fineService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found")
		default:
			return response.InternalServerError(c, "Failed to get fine")
		}
	}

	return response.Success(c, "Fine retrieved successfully", fiber.Map{
		"fine": fine,
	})
}

// Pay settles a pending fine
// @Summary Pay fine
// @Description Settle a pending fine (librarian only); payment details are optional
// @Tags Fines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Param body body services.PayInput false "Payment data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /fines/{id}/pay [post]
func (h *FineHandler) Pay(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	// Payment details may be omitted entirely
	var input services.PayInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		if err := validate.Struct(input); err != nil {
			return response.BadRequest(c, validationMessage(err))
		}
	}

	userID, _ := c.Locals("userID").(uint)

	fine, err := h.fineService.Pay(c.Context(), id, input, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found")
		case errors.Is(err, services.ErrFineAlreadySettled):
			return response.Conflict(c, "Fine is already settled")
		default:
			return response.InternalServerError(c, "Failed to settle fine")
		}
	}

	return response.Success(c, "Fine settled successfully", fiber.Map{
		"fine": fine,
	})
}
