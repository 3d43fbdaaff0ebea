package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/domain"
)

// In-memory repository fakes. The transaction fake holds one mutex
// across every state transition so it honors the same atomicity
// contract as the real implementation: guard check and write are one
// unit, and quantity moves in the same unit as the status.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.User, 0, len(r.users))
	for id := uint(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			cp := *u
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == string(role) {
			n++
		}
	}
	return n, nil
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{nextID: 1, tokens: map[uint]*models.RefreshToken{}}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = r.nextID
	r.nextID++
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

type fakeBookRepo struct {
	mu     sync.Mutex
	nextID uint
	books  map[uint]*models.Book
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{nextID: 1, books: map[uint]*models.Book{}}
}

func (r *fakeBookRepo) Create(_ context.Context, book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	book.ID = r.nextID
	r.nextID++
	cp := *book
	r.books[book.ID] = &cp
	return nil
}

func (r *fakeBookRepo) GetByID(_ context.Context, id uint) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) Update(_ context.Context, id uint, updates map[string]interface{}) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if v, ok := updates["title"].(string); ok {
		b.Title = v
	}
	if v, ok := updates["author"].(string); ok {
		b.Author = v
	}
	if v, ok := updates["quantity"].(int); ok {
		b.Quantity = v
	}
	if v, ok := updates["image_url"].(string); ok {
		b.ImageURL = v
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) List(_ context.Context, offset, limit int) ([]*models.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Book, 0, len(r.books))
	for id := uint(1); id < r.nextID; id++ {
		if b, ok := r.books[id]; ok {
			cp := *b
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeBookRepo) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.books)), nil
}

// setQuantity is a test helper for stock adjustments outside the ledger
func (r *fakeBookRepo) setQuantity(id uint, quantity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		b.Quantity = quantity
	}
}

func (r *fakeBookRepo) quantity(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		return b.Quantity
	}
	return -1
}

type fakeTransactionRepo struct {
	mu     sync.Mutex
	nextID uint
	txns   map[uint]*models.Transaction
	books  *fakeBookRepo
}

func newFakeTransactionRepo(books *fakeBookRepo) *fakeTransactionRepo {
	return &fakeTransactionRepo{nextID: 1, txns: map[uint]*models.Transaction{}, books: books}
}

func (r *fakeTransactionRepo) CreateOpenRequest(_ context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.UserID == txn.UserID && t.BookID == txn.BookID && domain.Status(t.Status).IsOpen() {
			return domain.ErrDuplicateRequest
		}
	}
	txn.ID = r.nextID
	txn.BorrowDate = time.Now()
	r.nextID++
	cp := *txn
	r.txns[txn.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) RequestReturn(_ context.Context, userID, bookID uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.UserID == userID && t.BookID == bookID && t.Status == string(domain.StatusBorrowed) {
			t.Status = string(domain.StatusPendingReturn)
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNoActiveBorrow
}

func (r *fakeTransactionRepo) ApproveBorrow(_ context.Context, id uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	if t.Status != string(domain.StatusPending) {
		return nil, domain.NewStateTransitionError(domain.StatusPending, domain.Status(t.Status))
	}

	r.books.mu.Lock()
	book, ok := r.books.books[t.BookID]
	if !ok {
		r.books.mu.Unlock()
		return nil, domain.ErrBookNotFound
	}
	if book.Quantity < 1 {
		r.books.mu.Unlock()
		return nil, domain.ErrOutOfStock
	}
	book.Quantity--
	r.books.mu.Unlock()

	t.Status = string(domain.StatusBorrowed)
	cp := *t
	return &cp, nil
}

func (r *fakeTransactionRepo) ApproveReturn(_ context.Context, id uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	if t.Status != string(domain.StatusPendingReturn) {
		return nil, domain.NewStateTransitionError(domain.StatusPendingReturn, domain.Status(t.Status))
	}

	r.books.mu.Lock()
	if book, ok := r.books.books[t.BookID]; ok {
		book.Quantity++
	}
	r.books.mu.Unlock()

	now := time.Now()
	t.Status = string(domain.StatusReturned)
	t.ReturnDate = &now
	cp := *t
	return &cp, nil
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTransactionRepo) ListByUser(_ context.Context, userID uint) ([]*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Transaction
	for id := uint(1); id < r.nextID; id++ {
		if t, ok := r.txns[id]; ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) List(_ context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.Transaction, 0, len(r.txns))
	for id := uint(1); id < r.nextID; id++ {
		if t, ok := r.txns[id]; ok {
			cp := *t
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeTransactionRepo) CountOpenByBook(_ context.Context, bookID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.txns {
		if t.BookID == bookID && domain.Status(t.Status).IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) CountOpenByUser(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.txns {
		if t.UserID == userID && domain.Status(t.Status).IsOpen() {
			n++
		}
	}
	return n, nil
}

func (r *fakeTransactionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.txns)), nil
}

func (r *fakeTransactionRepo) CountByStatus(_ context.Context, status domain.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.txns {
		if t.Status == string(status) {
			n++
		}
	}
	return n, nil
}
