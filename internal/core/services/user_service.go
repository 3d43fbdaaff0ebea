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

// UserService handles admin-side user management
type UserService struct {
	userRepo repositories.UserRepository
	txRepo   repositories.TransactionRepository
	policy   *domain.AccessPolicy
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	txRepo repositories.TransactionRepository,
	policy *domain.AccessPolicy,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		txRepo:   txRepo,
		policy:   policy,
	}
}

// ListUsers lists users with pagination (admin only)
func (s *UserService) ListUsers(ctx context.Context, actor domain.Identity, params *pagination.Params) (*pagination.Response, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return pagination.NewResponse(out, params, total), nil
}

// GetUser returns one user by ID (admin only)
func (s *UserService) GetUser(ctx context.Context, actor domain.Identity, id uint) (*models.UserResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateRoleInput represents a role change request
type UpdateRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// UpdateUserRole changes a user's role (admin only). Self-demotion is
// allowed; the original system permits it and locking it down would
// break the single-admin bootstrap flow.
func (s *UserService) UpdateUserRole(ctx context.Context, actor domain.Identity, id uint, input *UpdateRoleInput) (*models.UserResponse, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.Role = input.Role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("👤 Role changed: user=%s role=%s (by %s)", user.Username, user.Role, actor.Username)

	return user.ToResponse(), nil
}

// DeleteUser removes a user (admin only). An admin cannot delete their
// own account, and deletion is blocked while the user has open
// (Pending/Borrowed) transactions.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Identity, id uint) error {
	if err := s.policy.CanDeleteUser(actor, id); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	open, err := s.txRepo.CountOpenByUser(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.ErrUserHasOpenLoans
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("🗑️ User deleted: id=%d (by %s)", id, actor.Username)
	return nil
}
