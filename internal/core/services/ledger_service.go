package services

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/core/domain"
	"libralend/internal/pkg/pagination"
)

// LedgerService owns the borrow/return state machine. It is the sole
// authority for mutating book quantity, and only ever does so through
// the repository's atomic transitions.
type LedgerService struct {
	txRepo   repositories.TransactionRepository
	bookRepo repositories.BookRepository
	userRepo repositories.UserRepository
	policy   *domain.AccessPolicy
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	txRepo repositories.TransactionRepository,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
	policy *domain.AccessPolicy,
) *LedgerService {
	return &LedgerService{
		txRepo:   txRepo,
		bookRepo: bookRepo,
		userRepo: userRepo,
		policy:   policy,
	}
}

// BorrowInput represents a borrow request
type BorrowInput struct {
	UserID uint `json:"user_id" validate:"required"`
	BookID uint `json:"book_id" validate:"required"`
}

// ReturnInput represents a return request
type ReturnInput struct {
	UserID uint `json:"user_id" validate:"required"`
	BookID uint `json:"book_id" validate:"required"`
}

// RequestBorrow creates a Pending transaction. Quantity is not touched
// here; it drops only when an admin approves the request.
func (s *LedgerService) RequestBorrow(ctx context.Context, actor domain.Identity, input *BorrowInput) (*models.TransactionResponse, error) {
	if err := s.policy.CanActForUser(actor, input.UserID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	if book.Quantity < 1 {
		return nil, domain.ErrOutOfStock
	}

	txn := &models.Transaction{
		UserID: input.UserID,
		BookID: input.BookID,
		Status: string(domain.StatusPending),
	}

	// The duplicate-request guard lives inside CreateOpenRequest,
	// atomically with the insert.
	if err := s.txRepo.CreateOpenRequest(ctx, txn); err != nil {
		return nil, err
	}

	log.Printf("📖 Borrow requested: user=%d book=%d tx=%d", input.UserID, input.BookID, txn.ID)

	return txn.ToResponse(), nil
}

// RequestReturn flips the caller's active loan to PendingReturn.
// Quantity is untouched until an admin approves the return.
func (s *LedgerService) RequestReturn(ctx context.Context, actor domain.Identity, input *ReturnInput) (*models.TransactionResponse, error) {
	if err := s.policy.CanActForUser(actor, input.UserID); err != nil {
		return nil, err
	}

	txn, err := s.txRepo.RequestReturn(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, err
	}

	log.Printf("📖 Return requested: user=%d book=%d tx=%d", input.UserID, input.BookID, txn.ID)

	return txn.ToResponse(), nil
}

// ApproveBorrow moves a Pending transaction to Borrowed and takes one
// copy out of stock (admin only). Stock is re-checked at approval time
// because other approvals may have drained it since the request.
func (s *LedgerService) ApproveBorrow(ctx context.Context, actor domain.Identity, txID uint) (*models.TransactionResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	txn, err := s.txRepo.ApproveBorrow(ctx, txID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Borrow approved by %s: tx=%d book=%d", actor.Username, txn.ID, txn.BookID)

	return txn.ToResponse(), nil
}

// ApproveReturn moves a PendingReturn transaction to Returned, stamps
// return_date and puts the copy back in stock (admin only).
func (s *LedgerService) ApproveReturn(ctx context.Context, actor domain.Identity, txID uint) (*models.TransactionResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	txn, err := s.txRepo.ApproveReturn(ctx, txID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Return approved by %s: tx=%d book=%d", actor.Username, txn.ID, txn.BookID)

	return txn.ToResponse(), nil
}

// UserHistory returns a user's full borrow/return history. Users see
// only their own; admins see anyone's.
func (s *LedgerService) UserHistory(ctx context.Context, actor domain.Identity, userID uint) ([]*models.TransactionResponse, error) {
	if err := s.policy.CanViewHistory(actor, userID); err != nil {
		return nil, err
	}

	txns, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.ToResponse())
	}
	return out, nil
}

// ListTransactions lists all transactions (admin only)
func (s *LedgerService) ListTransactions(ctx context.Context, actor domain.Identity, params *pagination.Params) (*pagination.Response, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	txns, total, err := s.txRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.ToResponse())
	}
	return pagination.NewResponse(out, params, total), nil
}

// GetTransaction returns one transaction by ID (admin only)
func (s *LedgerService) GetTransaction(ctx context.Context, actor domain.Identity, txID uint) (*models.TransactionResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	txn, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return txn.ToResponse(), nil
}

// Stats represents the admin statistics payload
type Stats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalAdmins       int64 `json:"total_admins"`
	TotalRegularUsers int64 `json:"total_regular_users"`
	TotalBooks        int64 `json:"total_books"`
	TotalTransactions int64 `json:"total_transactions"`
	ActiveBorrows     int64 `json:"active_borrows"`
	ReturnedBooks     int64 `json:"returned_books"`
}

// GetStats computes system statistics (admin only)
func (s *LedgerService) GetStats(ctx context.Context, actor domain.Identity) (*Stats, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalAdmins, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	totalBooks, err := s.bookRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalTx, err := s.txRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeBorrows, err := s.txRepo.CountByStatus(ctx, domain.StatusBorrowed)
	if err != nil {
		return nil, err
	}
	returned, err := s.txRepo.CountByStatus(ctx, domain.StatusReturned)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalUsers:        totalUsers,
		TotalAdmins:       totalAdmins,
		TotalRegularUsers: totalUsers - totalAdmins,
		TotalBooks:        totalBooks,
		TotalTransactions: totalTx,
		ActiveBorrows:     activeBorrows,
		ReturnedBooks:     returned,
	}, nil
}
