package handlers

import (
	"errors"
	"strconv"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/core/services"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService        *services.BookService
	reservationService *services.ReservationService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService, reservationService *services.ReservationService) *BookHandler {
	return &BookHandler{
		bookService:        bookService,
		reservationService: reservationService,
	}
}

// parseIDParam parses the :id path parameter
func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// Create adds a book to the catalog
// @Summary Add book
// @Description Add a book to the catalog (staff only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var input services.CreateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	book, err := h.bookService.Create(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrISBNTaken):
			return response.Conflict(c, "A book with this ISBN already exists")
		default:
			return response.InternalServerError(c, "Failed to add book")
		}
	}

	return response.Created(c, "Book added successfully", fiber.Map{
		"book": book,
	})
}

// List lists and searches the catalog
// @Summary List books
// @Tags Books
// @Produce json
// @Param title query string false "Filter by title substring"
// @Param author query string false "Filter by author substring"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.SearchFilter{
		Title:    c.Query("title"),
		Author:   c.Query("author"),
		Category: c.Query("category"),
	}

	books, total, err := h.bookService.List(c.Context(), filter, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved successfully", pagination.NewResponse(books, params, total))
}

// GetByID gets a book by ID
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		default:
			return response.InternalServerError(c, "Failed to get book")
		}
	}

	return response.Success(c, "Book retrieved successfully", fiber.Map{
		"book": book,
	})
}

// Update edits a catalog entry
// @Summary Update book
// @Description Update a catalog entry (staff only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.UpdateBookInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.UpdateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.Struct(input); err != nil {
		return response.BadRequest(c, validationMessage(err))
	}

	book, err := h.bookService.Update(c.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrCopyShrink):
			return response.Conflict(c, "Total copies cannot drop below copies currently on loan")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated successfully", fiber.Map{
		"book": book,
	})
}

// Delete removes a book from the catalog
// @Summary Delete book
// @Description Remove a book (staff only); rejected while copies are on loan
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.Delete(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrCopiesOnLoan):
			return response.Conflict(c, "Copies of this book are still on loan")
		default:
			return response.InternalServerError(c, "Failed to delete book")
		}
	}

	return response.Success(c, "Book deleted successfully", nil)
}

// GetQueue lists a book's active reservation queue
// @Summary Get reservation queue
// @Description List the wait queue for a book in order (staff only)
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Router /books/{id}/queue [get]
func (h *BookHandler) GetQueue(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	queue, err := h.reservationService.ListQueue(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to get reservation queue")
	}

	return response.Success(c, "Reservation queue retrieved successfully", fiber.Map{
		"queue": queue,
	})
}
