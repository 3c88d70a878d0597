package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/api/middleware"
	"github.com/terangapay-ledger/internal/api/service"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/engine"
	"github.com/terangapay-ledger/internal/ledger"
	"github.com/terangapay-ledger/internal/transfer"
	"github.com/terangapay-ledger/internal/validation"
)

// TransactionHandler handles HTTP requests for money movements
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Deposit credits the receiver's account, funded by the sender
func (h *TransactionHandler) Deposit(c *gin.Context) {
	h.handleMovement(c, h.transactionService.Deposit)
}

// Withdraw debits the sender's account and credits the receiver
func (h *TransactionHandler) Withdraw(c *gin.Context) {
	h.handleMovement(c, h.transactionService.Withdraw)
}

type movementFunc func(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error)

func (h *TransactionHandler) handleMovement(c *gin.Context, apply movementFunc) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	tx, err := apply(c.Request.Context(), req.SenderPhoneNumber, req.ReceiverPhoneNumber, amount, req.Currency, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondMovementError(c, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// Purchase debits the sender for credit purchased on behalf of an off-ledger
// contact
func (h *TransactionHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	fee := decimal.Zero
	if req.FeeAmount != "" {
		fee, err = decimal.NewFromString(req.FeeAmount)
		if err != nil {
			RespondBadRequest(c, "Invalid fee amount")
			return
		}
	}

	contact := validation.PurchaseContact{
		Name:        req.ReceiverName,
		PhoneNumber: req.ReceiverPhoneNumber,
		Email:       req.ReceiverEmail,
	}

	tx, err := h.transactionService.Purchase(c.Request.Context(), req.SenderPhoneNumber, amount, fee, req.Currency, contact, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondMovementError(c, err)
		return
	}

	RespondCreated(c, mapTransactionToResponse(tx))
}

// Transfer moves money between two accounts as a SEND/RECEIVE pair
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	result, err := h.transactionService.Transfer(c.Request.Context(), req.SenderPhoneNumber, req.ReceiverPhoneNumber, amount, req.Currency, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondMovementError(c, err)
		return
	}

	RespondCreated(c, TransferResponse{
		TransferID: result.TransferID.String(),
		Send:       mapTransactionToResponse(result.Send),
		Receive:    mapTransactionToResponse(result.Receive),
	})
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	tx, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			RespondNotFound(c, "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransactionToResponse(tx))
}

// List retrieves paginated transactions, optionally filtered by time frame
// and by the user appearing on either side
func (h *TransactionHandler) List(c *gin.Context) {
	var params ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	timeFrame := transaction.TimeFrameNone
	if params.TimeFrame != "" {
		var err error
		timeFrame, err = transaction.ParseTimeFrame(params.TimeFrame)
		if err != nil {
			RespondBadRequest(c, "Invalid time frame")
			return
		}
	}

	var userID *uuid.UUID
	if params.UserID != "" {
		id, err := uuid.Parse(params.UserID)
		if err != nil {
			RespondBadRequest(c, "Invalid user ID")
			return
		}
		userID = &id
	}

	items, total, err := h.transactionService.ListTransactions(c.Request.Context(), params.Page, params.Limit, timeFrame, userID)
	if err != nil {
		h.logger.Error("Failed to list transactions", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(items))
	for _, tx := range items {
		responses = append(responses, mapTransactionToResponse(tx))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.Limit, int(total))
}

// respondMovementError maps the movement error taxonomy onto HTTP statuses.
// Partial-failure states carry the committed work in the response body so an
// operator can reconcile.
func (h *TransactionHandler) respondMovementError(c *gin.Context, err error) {
	var validationErr validation.ValidationError
	var roleErr engine.ErrRoleIneligible
	var statusErr *engine.StatusUpdateFailedError
	var partialErr *transfer.PartialTransferFailure

	switch {
	case errors.As(err, &validationErr):
		RespondBadRequest(c, validationErr.Error())

	case errors.Is(err, ledger.ErrParticipantNotFound{}),
		errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", err.Error())

	case errors.Is(err, account.ErrCeilingExceeded):
		RespondUnprocessable(c, "CEILING_EXCEEDED", err.Error())

	case errors.As(err, &roleErr):
		RespondUnprocessable(c, "ROLE_INELIGIBLE", roleErr.Error())

	case errors.Is(err, account.ErrInvalidAmount):
		RespondBadRequest(c, err.Error())

	case errors.As(err, &statusErr):
		h.logger.Error("Movement left in PENDING, reconciliation required",
			"transaction_id", statusErr.Transaction.ID.String(),
			"error", err,
		)
		response := NewErrorResponse("STATUS_UPDATE_FAILED", "Balances were updated but the transaction was not finalized; do not retry")
		response.Data = mapTransactionToResponse(statusErr.Transaction)
		response.CorrelationID = middleware.GetCorrelationID(c)
		c.JSON(http.StatusInternalServerError, response)

	case errors.As(err, &partialErr):
		h.logger.Error("Transfer partially completed, reconciliation required",
			"transfer_id", partialErr.TransferID.String(),
			"send_transaction_id", partialErr.Send.ID.String(),
			"error", err,
		)
		response := NewErrorResponse("PARTIAL_TRANSFER_FAILURE", "The SEND leg committed but the RECEIVE leg failed; do not retry")
		response.Data = mapTransactionToResponse(partialErr.Send)
		response.CorrelationID = middleware.GetCorrelationID(c)
		c.JSON(http.StatusInternalServerError, response)

	case errors.Is(err, ledger.ErrLedgerUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "The ledger store is unavailable, try again later")

	default:
		h.logger.Error("Movement failed", "error", err)
		RespondInternalError(c)
	}
}

// mapTransactionToResponse maps a transaction entity to its response DTO
func mapTransactionToResponse(tx *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:        tx.ID.String(),
		Amount:    tx.Amount.String(),
		FeeAmount: tx.FeeAmount.String(),
		Currency:  tx.Currency,
		Type:      string(tx.Type),
		Status:    string(tx.Status),
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt: tx.UpdatedAt.Format(time.RFC3339),
	}

	if tx.TransferID != nil {
		response.TransferID = tx.TransferID.String()
	}
	if tx.SenderID != nil {
		response.SenderID = tx.SenderID.String()
	}
	if tx.ReceiverID != nil {
		response.ReceiverID = tx.ReceiverID.String()
	}
	if tx.Purchase != nil {
		response.Purchase = &PurchaseDetailsResponse{
			ReceiverName:        tx.Purchase.ReceiverName,
			ReceiverPhoneNumber: tx.Purchase.ReceiverPhoneNumber,
			ReceiverEmail:       tx.Purchase.ReceiverEmail,
		}
	}

	return response
}
