package handlers

import (
	"errors"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/core/domain"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account administration endpoints (admin only)
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ChangeRoleRequest is the request body for a role change
type ChangeRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=LIBRARIAN MEMBER"`
}

// ChangeStatusRequest is the request body for suspend/activate
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED"`
}

// Create creates a LIBRARIAN or MEMBER account
// @Summary Create account
// @Description Create a librarian or member account (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "Account data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorBody
// @Router /users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input services.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	user, err := h.userService.Create(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "Username is already taken")
		case errors.Is(err, services.ErrAdminImmutable), errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Role must be LIBRARIAN or MEMBER")
		default:
			return response.InternalServerError(c, "Failed to create account")
		}
	}

	return response.Created(c, "Account created successfully", fiber.Map{
		"user": user,
	})
}

// List lists accounts
// @Summary List accounts
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", pagination.NewResponse(users, params, total))
}

// GetByID gets an account by ID
// @Summary Get account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to get account")
		}
	}

	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"user": user,
	})
}

// ChangeRole switches an account between LIBRARIAN and MEMBER
// @Summary Change role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ChangeRoleRequest true "New role"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	user, err := h.userService.ChangeRole(c.Context(), id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrAdminImmutable):
			return response.Forbidden(c, "Admin accounts cannot be modified")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Role must be LIBRARIAN or MEMBER")
		default:
			return response.InternalServerError(c, "Failed to change role")
		}
	}

	return response.Success(c, "Role changed successfully", fiber.Map{
		"user": user,
	})
}

// ChangeStatus suspends or reactivates an account
// @Summary Change account status
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ChangeStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /users/{id}/status [patch]
func (h *UserHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	user, err := h.userService.SetStatus(c.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrAdminImmutable):
			return response.Forbidden(c, "Admin accounts cannot be modified")
		case errors.Is(err, services.ErrAlreadyInStatus):
			return response.Conflict(c, "Account is already in that status")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Status must be ACTIVE or SUSPENDED")
		default:
			return response.InternalServerError(c, "Failed to change status")
		}
	}

	return response.Success(c, "Status changed successfully", fiber.Map{
		"user": user,
	})
}

// Delete removes an account
// @Summary Delete account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrAdminImmutable):
			return response.Forbidden(c, "Admin accounts cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete account")
		}
	}

	return response.Success(c, "Account deleted successfully", nil)
}
