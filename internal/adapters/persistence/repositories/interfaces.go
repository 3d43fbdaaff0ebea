package repositories

import (
	"context"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// BookRepository defines book repository interface. Quantity is never
// written here; only the ledger's approved transitions touch it.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Book, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository owns transaction rows and the atomic state
// transitions. Every transition method executes as one database
// transaction: read under row lock, validate the guard, write. A
// failed guard rolls the whole unit back, so a transaction row and
// the book quantity can never diverge.
type TransactionRepository interface {
	// CreateOpenRequest inserts a new Pending transaction unless an
	// open (Pending or Borrowed) one already exists for the same
	// (user, book) pair; the existence check and the insert are one
	// atomic unit. Returns domain.ErrDuplicateRequest on conflict.
	CreateOpenRequest(ctx context.Context, txn *models.Transaction) error

	// RequestReturn flips the caller's Borrowed transaction for
	// (user, book) to PendingReturn. Returns domain.ErrNoActiveBorrow
	// when no Borrowed transaction exists.
	RequestReturn(ctx context.Context, userID, bookID uint) (*models.Transaction, error)

	// ApproveBorrow moves a Pending transaction to Borrowed and
	// decrements the book quantity, re-checking stock under the same
	// lock. Returns domain.ErrTransactionNotFound,
	// *domain.StateTransitionError, domain.ErrBookNotFound or
	// domain.ErrOutOfStock.
	ApproveBorrow(ctx context.Context, id uint) (*models.Transaction, error)

	// ApproveReturn moves a PendingReturn transaction to Returned,
	// sets return_date and increments the book quantity.
	ApproveReturn(ctx context.Context, id uint) (*models.Transaction, error)

	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Transaction, error)
	List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
	CountOpenByBook(ctx context.Context, bookID uint) (int64, error)
	CountOpenByUser(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.Status) (int64, error)
}
