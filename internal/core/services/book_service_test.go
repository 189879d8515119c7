package services

import (
	"context"
	"testing"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookService(repositories.NewBookRepository(db))
	ctx := context.Background()

	book, err := svc.Create(ctx, CreateBookInput{
		ISBN:        "978-0441172719",
		Title:       "Dune",
		Author:      "Frank Herbert",
		Category:    "Science Fiction",
		TotalCopies: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)

	// Duplicate ISBN is a conflict
	_, err = svc.Create(ctx, CreateBookInput{
		ISBN:        "978-0441172719",
		Title:       "Dune (reprint)",
		Author:      "Frank Herbert",
		TotalCopies: 1,
	})
	assert.ErrorIs(t, err, ErrISBNTaken)
}

func TestUpdateBookCopies(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 2)
	svc := NewBookService(repositories.NewBookRepository(db))
	lending := newLendingService(db)
	ctx := context.Background()

	// One copy goes out on loan
	_, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: member.ID}, asUser(admin))
	require.NoError(t, err)

	// Growing the stock grows availability by the same delta
	five := 5
	updated, err := svc.Update(ctx, book.ID, UpdateBookInput{TotalCopies: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalCopies)
	assert.Equal(t, 4, updated.AvailableCopies)
}

func TestUpdateBookShrinkBelowLoans(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	alice := seedMember(t, db, "alice")
	bob := seedMember(t, db, "bob")
	book := seedBook(t, db, "Dune", 3)
	svc := NewBookService(repositories.NewBookRepository(db))
	lending := newLendingService(db)
	ctx := context.Background()

	_, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: alice.ID}, asUser(admin))
	require.NoError(t, err)
	_, err = lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: bob.ID}, asUser(admin))
	require.NoError(t, err)

	// Two copies on loan; shrinking to one would owe a copy
	one := 1
	_, err = svc.Update(ctx, book.ID, UpdateBookInput{TotalCopies: &one})
	assert.ErrorIs(t, err, ErrCopyShrink)

	// Shrinking to exactly the on-loan count is fine
	two := 2
	updated, err := svc.Update(ctx, book.ID, UpdateBookInput{TotalCopies: &two})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestDeleteBook(t *testing.T) {
	db := setupTestDB(t)
	admin := seedAdmin(t, db)
	member := seedMember(t, db, "alice")
	book := seedBook(t, db, "Dune", 1)
	svc := NewBookService(repositories.NewBookRepository(db))
	lending := newLendingService(db)
	ctx := context.Background()

	loan, err := lending.Borrow(ctx, BorrowInput{BookID: book.ID, MemberID: member.ID}, asUser(admin))
	require.NoError(t, err)

	// Cannot delete while a copy is out
	err = svc.Delete(ctx, book.ID)
	assert.ErrorIs(t, err, ErrCopiesOnLoan)

	_, err = lending.Return(ctx, loan.ID, asUser(admin))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, book.ID))

	_, err = svc.GetByID(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestListBooksFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookService(repositories.NewBookRepository(db))
	ctx := context.Background()

	seedBook(t, db, "Dune", 1)
	seedBook(t, db, "Dune Messiah", 1)
	seedBook(t, db, "Foundation", 1)

	books, total, err := svc.List(ctx, repositories.SearchFilter{Title: "Dune"}, testParams())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, books, 2)

	books, total, err = svc.List(ctx, repositories.SearchFilter{}, testParams())
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, books, 3)
}
