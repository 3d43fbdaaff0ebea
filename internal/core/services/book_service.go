package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/core/domain"
	"libralend/internal/pkg/pagination"
)

// BookService handles catalog business logic. It never mutates
// quantity on behalf of loans; that belongs to the ledger.
type BookService struct {
	bookRepo repositories.BookRepository
	txRepo   repositories.TransactionRepository
	policy   *domain.AccessPolicy
}

// NewBookService creates a new book service
func NewBookService(
	bookRepo repositories.BookRepository,
	txRepo repositories.TransactionRepository,
	policy *domain.AccessPolicy,
) *BookService {
	return &BookService{
		bookRepo: bookRepo,
		txRepo:   txRepo,
		policy:   policy,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	ImageURL string `json:"image_url,omitempty"`
}

// UpdateBookInput represents a partial book update. Nil fields are
// left untouched. ISBN is immutable once created.
type UpdateBookInput struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Quantity *int    `json:"quantity"`
	ImageURL *string `json:"image_url"`
}

// ListBooks lists books with pagination (public)
func (s *BookService) ListBooks(ctx context.Context, params *pagination.Params) (*pagination.Response, error) {
	books, total, err := s.bookRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, b.ToResponse())
	}
	return pagination.NewResponse(out, params, total), nil
}

// GetBook returns one book by ID (public)
func (s *BookService) GetBook(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// CreateBook adds a new book to the catalog (admin only)
func (s *BookService) CreateBook(ctx context.Context, actor domain.Identity, input *CreateBookInput) (*models.BookResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Author) == "" || strings.TrimSpace(input.ISBN) == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	exists, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateISBN
	}

	book := &models.Book{
		Title:    input.Title,
		Author:   input.Author,
		ISBN:     input.ISBN,
		Quantity: input.Quantity,
		ImageURL: input.ImageURL,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("📚 Book created: %s (ISBN %s)", book.Title, book.ISBN)

	return book.ToResponse(), nil
}

// UpdateBook applies a partial update to a book (admin only)
func (s *BookService) UpdateBook(ctx context.Context, actor domain.Identity, id uint, input *UpdateBookInput) (*models.BookResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Author != nil {
		updates["author"] = *input.Author
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		updates["quantity"] = *input.Quantity
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}

	if len(updates) == 0 {
		return s.GetBook(ctx, id)
	}

	book, err := s.bookRepo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// DeleteBook removes a book from the catalog (admin only). Deletion is
// blocked while any open (Pending/Borrowed) transaction references the
// book, so the ledger never points at a missing title mid-loan.
func (s *BookService) DeleteBook(ctx context.Context, actor domain.Identity, id uint) error {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.bookRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}

	open, err := s.txRepo.CountOpenByBook(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.ErrBookHasOpenLoans
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("🗑️ Book deleted: id=%d", id)
	return nil
}
