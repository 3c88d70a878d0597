package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/api/service"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/user"
	"github.com/terangapay-ledger/internal/validation"
)

// AccountHandler handles HTTP requests for onboarding and account lookups
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create onboards a user together with their account
func (h *AccountHandler) Create(c *gin.Context) {
	var req OnboardUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			RespondBadRequest(c, "Invalid initial balance")
			return
		}
	}

	ceiling, err := decimal.NewFromString(req.Ceiling)
	if err != nil {
		RespondBadRequest(c, "Invalid ceiling")
		return
	}

	u, acc, err := h.accountService.OnboardUser(c.Request.Context(), req.Name, req.PhoneNumber, req.Email, req.Role, initialBalance, ceiling, req.Currency)
	if err != nil {
		var validationErr validation.ValidationError
		switch {
		case errors.As(err, &validationErr):
			RespondBadRequest(c, validationErr.Error())
		case errors.Is(err, user.ErrDuplicatePhoneNumber{}):
			h.logger.Warn("Attempt to onboard duplicate phone number", "phone_number", req.PhoneNumber)
			RespondConflict(c, "A user with this phone number already exists")
		case errors.Is(err, user.ErrEmptyName),
			errors.Is(err, user.ErrUnknownRole),
			errors.Is(err, account.ErrInvalidAmount),
			errors.Is(err, account.ErrInvalidCeiling),
			errors.Is(err, account.ErrCeilingExceeded),
			errors.Is(err, account.ErrInvalidCurrencyFormat):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to onboard user", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, OnboardUserResponse{
		UserID:      u.ID.String(),
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Role:        string(u.Role),
		Account:     mapAccountToResponse(acc),
	})
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		UserID:    acc.UserID.String(),
		Balance:   acc.Balance.String(),
		Ceiling:   acc.Ceiling.String(),
		Currency:  acc.Currency,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}
