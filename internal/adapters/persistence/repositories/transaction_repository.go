package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/domain"
)

// transactionRepository implements TransactionRepository interface.
// All state transitions run inside a single database transaction with
// row locks, so no other writer can interleave between the guard read
// and the status/quantity write.
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// CreateOpenRequest inserts a new Pending transaction. The open-request
// existence check and the insert share one transaction, with the
// matching rows locked FOR UPDATE, closing the race where two
// concurrent requests both observe "no open request".
func (r *transactionRepository) CreateOpenRequest(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Transaction{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND book_id = ? AND status IN ?",
				txn.UserID, txn.BookID,
				[]string{string(domain.StatusPending), string(domain.StatusBorrowed)}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateRequest
		}

		return tx.Create(txn).Error
	})
}

// RequestReturn flips the Borrowed transaction for (user, book) to
// PendingReturn via a compare-and-swap on the status column.
func (r *transactionRepository) RequestReturn(ctx context.Context, userID, bookID uint) (*models.Transaction, error) {
	var txn models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND book_id = ? AND status = ?",
				userID, bookID, string(domain.StatusBorrowed)).
			First(&txn).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoActiveBorrow
			}
			return err
		}

		txn.Status = string(domain.StatusPendingReturn)
		return tx.Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Update("status", txn.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ApproveBorrow moves a Pending transaction to Borrowed and decrements
// the book quantity. Stock is re-checked inside the same transaction
// via a conditional update (quantity >= 1), so the counter can never
// go negative and a failed guard leaves both rows untouched.
func (r *transactionRepository) ApproveBorrow(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &txn); err != nil {
			return err
		}
		if txn.Status != string(domain.StatusPending) {
			return domain.NewStateTransitionError(domain.StatusPending, domain.Status(txn.Status))
		}

		res := tx.Model(&models.Book{}).
			Where("id = ? AND quantity >= ?", txn.BookID, 1).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Book{}).Where("id = ?", txn.BookID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrBookNotFound
			}
			return domain.ErrOutOfStock
		}

		txn.Status = string(domain.StatusBorrowed)
		return tx.Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Update("status", txn.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ApproveReturn moves a PendingReturn transaction to Returned, stamps
// return_date and puts the copy back in stock, all in one unit.
func (r *transactionRepository) ApproveReturn(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &txn); err != nil {
			return err
		}
		if txn.Status != string(domain.StatusPendingReturn) {
			return domain.NewStateTransitionError(domain.StatusPendingReturn, domain.Status(txn.Status))
		}

		now := time.Now().UTC()
		txn.Status = string(domain.StatusReturned)
		txn.ReturnDate = &now
		err := tx.Model(&models.Transaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]interface{}{
				"status":      txn.Status,
				"return_date": now,
			}).Error
		if err != nil {
			return err
		}

		// The book may have been deleted while the loan was out;
		// tolerate that instead of stranding the transaction.
		return tx.Model(&models.Book{}).
			Where("id = ?", txn.BookID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// lockTransaction loads a transaction row FOR UPDATE
func lockTransaction(tx *gorm.DB, id uint, dst *models.Transaction) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrTransactionNotFound
	}
	return err
}

// GetByID gets a transaction by ID
func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListByUser returns a user's full borrow/return history
func (r *transactionRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("borrow_date DESC").
		Find(&txns).Error
	return txns, err
}

// List lists transactions with pagination
func (r *transactionRepository) List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	var txns []*models.Transaction
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Offset(offset).Limit(limit).
		Order("borrow_date DESC").
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// CountOpenByBook counts open (Pending/Borrowed) transactions for a book
func (r *transactionRepository) CountOpenByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("book_id = ? AND status IN ?", bookID,
			[]string{string(domain.StatusPending), string(domain.StatusBorrowed)}).
		Count(&count).Error
	return count, err
}

// CountOpenByUser counts open (Pending/Borrowed) transactions for a user
func (r *transactionRepository) CountOpenByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND status IN ?", userID,
			[]string{string(domain.StatusPending), string(domain.StatusBorrowed)}).
		Count(&count).Error
	return count, err
}

// Count counts all transactions
func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error
	return count, err
}

// CountByStatus counts transactions in a given status
func (r *transactionRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}
