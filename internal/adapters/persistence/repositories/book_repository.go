package repositories

import (
	"context"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles book catalog data access
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN gets a book by ISBN
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ExistsByISBN checks whether a book with the given ISBN exists
func (r *BookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("isbn = ?", isbn).
		Count(&count).Error
	return count > 0, err
}

// SearchFilter holds optional catalog search criteria.
// All filters are combined with AND; string matches are substring matches.
type SearchFilter struct {
	Title    string
	Author   string
	Category string
}

// List lists books matching the filter with pagination
func (r *BookRepository) List(ctx context.Context, filter SearchFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if filter.Title != "" {
		query = query.Where("title LIKE ?", "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		query = query.Where("author LIKE ?", "%"+filter.Author+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	query.Count(&total)

	err := query.
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// Update updates a book
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *BookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// DecrementAvailable atomically takes one copy off the shelf.
// The WHERE guard makes concurrent borrows of the last copy race safely:
// only one UPDATE matches, the loser sees zero rows affected.
func (r *BookRepository) DecrementAvailable(ctx context.Context, bookID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementAvailable atomically puts one copy back on the shelf.
// Guarded so available never exceeds total.
func (r *BookRepository) IncrementAvailable(ctx context.Context, bookID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountAll counts all books
func (r *BookRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error
	return count, err
}

// SumCopies returns total and available copy counts across the catalog
func (r *BookRepository) SumCopies(ctx context.Context) (total int64, available int64, err error) {
	row := struct {
		Total     int64
		Available int64
	}{}
	err = r.db.WithContext(ctx).Model(&models.Book{}).
		Select("COALESCE(SUM(total_copies), 0) AS total, COALESCE(SUM(available_copies), 0) AS available").
		Scan(&row).Error
	return row.Total, row.Available, err
}
