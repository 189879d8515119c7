package services

import (
	"context"
	"errors"
	"log"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"
	"github.com/pavanbirlangi/library-management-system/internal/pkg/pagination"

	"gorm.io/gorm"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrISBNTaken    = errors.New("a book with this ISBN already exists")
	ErrCopiesOnLoan = errors.New("copies of this book are still on loan")
	ErrCopyShrink   = errors.New("total copies cannot drop below copies currently on loan")
)

// BookService handles catalog management
type BookService struct {
	bookRepo *repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo *repositories.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

// CreateBookInput is the input for adding a book to the catalog
type CreateBookInput struct {
	ISBN        string `json:"isbn" validate:"required,max=20"`
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	TotalCopies int    `json:"total_copies" validate:"required,min=1"`
}

// UpdateBookInput is the input for editing a catalog entry.
// Nil fields are left unchanged.
type UpdateBookInput struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Author      *string `json:"author" validate:"omitempty,max=255"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	TotalCopies *int    `json:"total_copies" validate:"omitempty,min=1"`
}

// Create adds a book to the catalog. All copies start on the shelf.
func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*models.BookResponse, error) {
	taken, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrISBNTaken
	}

	book := &models.Book{
		ISBN:            input.ISBN,
		Title:           input.Title,
		Author:          input.Author,
		Category:        input.Category,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book added to catalog: %s (%s)", book.Title, book.ISBN)
	return book.ToResponse(), nil
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// List lists books matching the filter with pagination
func (s *BookService) List(ctx context.Context, filter repositories.SearchFilter, params *pagination.Params) ([]*models.BookResponse, int64, error) {
	books, total, err := s.bookRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse()
	}
	return responses, total, nil
}

// Update edits a catalog entry. Changing the copy count shifts the
// availability by the same delta; the change is rejected when it would
// leave fewer total copies than are currently on loan.
func (s *BookService) Update(ctx context.Context, id uint, input UpdateBookInput) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Category != nil {
		book.Category = *input.Category
	}
	if input.TotalCopies != nil {
		delta := *input.TotalCopies - book.TotalCopies
		newAvailable := book.AvailableCopies + delta
		if newAvailable < 0 {
			return nil, ErrCopyShrink
		}
		book.TotalCopies = *input.TotalCopies
		book.AvailableCopies = newAvailable
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	return book.ToResponse(), nil
}

// Delete removes a book from the catalog. Allowed only when every copy
// is on the shelf.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	if book.AvailableCopies != book.TotalCopies {
		return ErrCopiesOnLoan
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("🗑️ Book removed from catalog: %s (%s)", book.Title, book.ISBN)
	return nil
}
