package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/domain"
	"libralend/internal/pkg/pagination"
)

func newBookFixture() (*BookService, *fakeBookRepo, *fakeTransactionRepo, domain.Identity, domain.Identity) {
	books := newFakeBookRepo()
	txns := newFakeTransactionRepo(books)
	svc := NewBookService(books, txns, domain.NewAccessPolicy())
	admin := domain.Identity{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	user := domain.Identity{UserID: 2, Username: "alice", Role: domain.RoleUser}
	return svc, books, txns, admin, user
}

func TestCreateBook(t *testing.T) {
	input := &CreateBookInput{
		Title:    "The Go Programming Language",
		Author:   "Donovan",
		ISBN:     "978-0134190440",
		Quantity: 3,
	}

	t.Run("admin creates book", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()

		book, err := svc.CreateBook(context.Background(), admin, input)
		require.NoError(t, err)
		assert.Equal(t, 3, book.Quantity)
		assert.NotZero(t, book.ID)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		svc, _, _, _, user := newBookFixture()

		_, err := svc.CreateBook(context.Background(), user, input)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("duplicate ISBN is rejected", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()
		ctx := context.Background()

		_, err := svc.CreateBook(ctx, admin, input)
		require.NoError(t, err)

		_, err = svc.CreateBook(ctx, admin, input)
		assert.ErrorIs(t, err, domain.ErrDuplicateISBN)
	})

	t.Run("blank fields are rejected", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()

		_, err := svc.CreateBook(context.Background(), admin, &CreateBookInput{Title: " ", Author: "x", ISBN: "1"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()

		_, err := svc.CreateBook(context.Background(), admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestUpdateBook(t *testing.T) {
	t.Run("applies partial update", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		title := "Renamed"
		qty := 5
		updated, err := svc.UpdateBook(ctx, admin, created.ID, &UpdateBookInput{Title: &title, Quantity: &qty})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, 5, updated.Quantity)
		assert.Equal(t, "a", updated.Author, "untouched fields must survive")
	})

	t.Run("empty update returns current state", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		got, err := svc.UpdateBook(ctx, admin, created.ID, &UpdateBookInput{})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		qty := -1
		_, err = svc.UpdateBook(ctx, admin, created.ID, &UpdateBookInput{Quantity: &qty})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown book", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()

		title := "x"
		_, err := svc.UpdateBook(context.Background(), admin, 999, &UpdateBookInput{Title: &title})
		assert.ErrorIs(t, err, domain.ErrBookNotFound)
	})
}

func TestDeleteBook(t *testing.T) {
	t.Run("deletes unreferenced book", func(t *testing.T) {
		svc, _, _, admin, _ := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteBook(ctx, admin, created.ID))

		_, err = svc.GetBook(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrBookNotFound)
	})

	t.Run("blocked while open loans reference the book", func(t *testing.T) {
		svc, _, txns, admin, user := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		err = txns.CreateOpenRequest(ctx, &models.Transaction{
			UserID: user.UserID,
			BookID: created.ID,
			Status: string(domain.StatusPending),
		})
		require.NoError(t, err)

		err = svc.DeleteBook(ctx, admin, created.ID)
		assert.ErrorIs(t, err, domain.ErrBookHasOpenLoans)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		svc, _, _, admin, user := newBookFixture()
		ctx := context.Background()

		created, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t", Author: "a", ISBN: "1", Quantity: 1})
		require.NoError(t, err)

		err = svc.DeleteBook(ctx, user, created.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestListBooks(t *testing.T) {
	svc, _, _, admin, _ := newBookFixture()
	ctx := context.Background()

	for _, isbn := range []string{"1", "2", "3"} {
		_, err := svc.CreateBook(ctx, admin, &CreateBookInput{Title: "t" + isbn, Author: "a", ISBN: isbn, Quantity: 1})
		require.NoError(t, err)
	}

	result, err := svc.ListBooks(ctx, pagination.Normalize(1, 2))
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Meta.Total)
	assert.Equal(t, 2, result.Meta.TotalPages)
	assert.True(t, result.Meta.HasNext)
	books := result.Data.([]*models.BookResponse)
	assert.Len(t, books, 2)
}
