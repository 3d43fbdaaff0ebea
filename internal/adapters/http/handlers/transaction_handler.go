package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"libralend/internal/adapters/http/middleware"
	"libralend/internal/core/domain"
	"libralend/internal/core/services"
	"libralend/internal/pkg/response"
)

// TransactionHandler handles borrow/return endpoints
type TransactionHandler struct {
	ledgerService *services.LedgerService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledgerService *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// Borrow creates a borrow request
// @Summary Request a borrow
// @Description Create a Pending borrow request for a book. Users may only request for themselves.
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BorrowInput true "Borrow request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/borrow [post]
func (h *TransactionHandler) Borrow(c *fiber.Ctx) error {
	var input services.BorrowInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.IdentityFromCtx(c)
	if input.UserID == 0 {
		input.UserID = actor.UserID
	}
	if input.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	txn, err := h.ledgerService.RequestBorrow(c.Context(), actor, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You can only borrow books for yourself")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrOutOfStock):
			return response.BadRequest(c, "Book out of stock")
		case errors.Is(err, domain.ErrDuplicateRequest):
			return response.BadRequest(c, "You already have a pending or active borrow request for this book")
		default:
			return response.InternalServerError(c, "Failed to create borrow request")
		}
	}

	return response.Created(c, "Borrow request created", txn)
}

// Return requests a return for an active loan
// @Summary Request a return
// @Description Flip the caller's Borrowed transaction for a book to PendingReturn
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ReturnInput true "Return request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/return [post]
func (h *TransactionHandler) Return(c *fiber.Ctx) error {
	var input services.ReturnInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.IdentityFromCtx(c)
	if input.UserID == 0 {
		input.UserID = actor.UserID
	}
	if input.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	txn, err := h.ledgerService.RequestReturn(c.Context(), actor, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You can only return your own books")
		case errors.Is(err, domain.ErrNoActiveBorrow):
			return response.NotFound(c, "No active borrow transaction found for this book")
		default:
			return response.InternalServerError(c, "Failed to create return request")
		}
	}

	return response.Success(c, "Return request created", txn)
}

// History returns a user's borrow history
// @Summary Get user transaction history
// @Description List all transactions of a user. Users see only their own history.
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions/user/{id} [get]
func (h *TransactionHandler) History(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor := middleware.IdentityFromCtx(c)

	txns, err := h.ledgerService.UserHistory(c.Context(), actor, id)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Forbidden(c, "You can only view your own history")
		}
		return response.InternalServerError(c, "Failed to get transaction history")
	}

	return response.Success(c, "Transaction history retrieved successfully", txns)
}
