package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"libralend/internal/adapters/http/middleware"
	"libralend/internal/core/domain"
	"libralend/internal/core/services"
	"libralend/internal/pkg/pagination"
	"libralend/internal/pkg/response"
)

// AdminHandler handles admin-only endpoints: user management, the
// transaction ledger and system statistics
type AdminHandler struct {
	userService   *services.UserService
	ledgerService *services.LedgerService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userService *services.UserService, ledgerService *services.LedgerService) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		ledgerService: ledgerService,
	}
}

// ListUsers lists all users
// @Summary List users
// @Description List all users with pagination (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	actor := middleware.IdentityFromCtx(c)

	result, err := h.userService.ListUsers(c.Context(), actor, params)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Forbidden(c, "Admin access required")
		}
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// GetUser returns one user
// @Summary Get user
// @Description Get one user by ID (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor := middleware.IdentityFromCtx(c)

	user, err := h.userService.GetUser(c.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Admin access required")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to get user")
		}
	}

	return response.Success(c, "User retrieved successfully", user)
}

// UpdateUserRole changes a user's role
// @Summary Update user role
// @Description Change a user's role to user or admin (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateRoleInput true "New role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.IdentityFromCtx(c)

	user, err := h.userService.UpdateUserRole(c.Context(), actor, id, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Admin access required")
		case errors.Is(err, domain.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role. Must be 'user' or 'admin'")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to update user role")
		}
	}

	return response.Success(c, "User role updated successfully", user)
}

// DeleteUser removes a user
// @Summary Delete user
// @Description Delete a user account (admin only). Admins cannot delete themselves, and users with open loans cannot be deleted.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor := middleware.IdentityFromCtx(c)

	if err := h.userService.DeleteUser(c.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Admin access required")
		case errors.Is(err, domain.ErrCannotDeleteSelf):
			return response.BadRequest(c, "You cannot delete your own account")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrUserHasOpenLoans):
			return response.BadRequest(c, "User has open borrow transactions and cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete user")
		}
	}

	return response.Success(c, "User deleted successfully", nil)
}

// ListTransactions lists all transactions
// @Summary List transactions
// @Description List all borrow/return transactions with pagination (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/transactions [get]
func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	actor := middleware.IdentityFromCtx(c)

	result, err := h.ledgerService.ListTransactions(c.Context(), actor, params)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Forbidden(c, "Admin access required")
		}
		return response.InternalServerError(c, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", result)
}

// GetTransaction returns one transaction
// @Summary Get transaction
// @Description Get one transaction by ID (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/transactions/{id} [get]
func (h *AdminHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	actor := middleware.IdentityFromCtx(c)

	txn, err := h.ledgerService.GetTransaction(c.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Admin access required")
		case errors.Is(err, domain.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		default:
			return response.InternalServerError(c, "Failed to get transaction")
		}
	}

	return response.Success(c, "Transaction retrieved successfully", txn)
}

// ApproveBorrow approves a pending borrow request
// @Summary Approve borrow
// @Description Move a Pending transaction to Borrowed and decrement book stock (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/transactions/{id}/approve-borrow [post]
func (h *AdminHandler) ApproveBorrow(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	actor := middleware.IdentityFromCtx(c)

	txn, err := h.ledgerService.ApproveBorrow(c.Context(), actor, id)
	if err != nil {
		return h.mapApprovalError(c, err)
	}

	return response.Success(c, "Borrow approved", txn)
}

// ApproveReturn approves a pending return
// @Summary Approve return
// @Description Move a PendingReturn transaction to Returned and increment book stock (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/transactions/{id}/approve-return [post]
func (h *AdminHandler) ApproveReturn(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	actor := middleware.IdentityFromCtx(c)

	txn, err := h.ledgerService.ApproveReturn(c.Context(), actor, id)
	if err != nil {
		return h.mapApprovalError(c, err)
	}

	return response.Success(c, "Return approved", txn)
}

// Stats returns system statistics
// @Summary Get system statistics
// @Description Aggregate counts over users, books and transactions (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	actor := middleware.IdentityFromCtx(c)

	stats, err := h.ledgerService.GetStats(c.Context(), actor)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Forbidden(c, "Admin access required")
		}
		return response.InternalServerError(c, "Failed to compute statistics")
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}

// mapApprovalError maps ledger approval failures to HTTP responses
func (h *AdminHandler) mapApprovalError(c *fiber.Ctx, err error) error {
	var stateErr *domain.StateTransitionError

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "Admin access required")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return response.NotFound(c, "Transaction not found")
	case errors.Is(err, domain.ErrBookNotFound):
		return response.NotFound(c, "Book not found")
	case errors.Is(err, domain.ErrOutOfStock):
		return response.BadRequest(c, "Book out of stock")
	case errors.As(err, &stateErr):
		return response.BadRequest(c, stateErr.Error())
	default:
		return response.InternalServerError(c, "Failed to process approval")
	}
}
