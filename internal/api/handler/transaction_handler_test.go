package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/terangapay-ledger/internal/domain/account"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/engine"
	"github.com/terangapay-ledger/internal/ledger"
	"github.com/terangapay-ledger/internal/transfer"
	"github.com/terangapay-ledger/internal/validation"
)

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Deposit(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, senderPhone, receiverPhone, amount, currency, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Withdraw(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, senderPhone, receiverPhone, amount, currency, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Purchase(ctx context.Context, senderPhone string, amount, fee decimal.Decimal, currency string, contact validation.PurchaseContact, correlationID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, senderPhone, amount, fee, currency, contact, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Transfer(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transfer.Result, error) {
	args := m.Called(ctx, senderPhone, receiverPhone, amount, currency, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Result), args.Error(1)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, page, limit int, timeFrame transaction.TimeFrame, userID *uuid.UUID) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, page, limit, timeFrame, userID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

func newTransactionRouter(mockService *MockTransactionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	handler := NewTransactionHandler(logger, mockService)

	router := gin.New()
	router.POST("/transactions/transfer", handler.Transfer)
	router.POST("/transactions/deposit", handler.Deposit)
	router.POST("/transactions/withdraw", handler.Withdraw)
	router.POST("/transactions/purchase", handler.Purchase)
	router.GET("/transactions/:id", handler.GetByID)
	router.GET("/transactions", handler.List)
	return router
}

func completedTransaction(txType transaction.Type) *transaction.Transaction {
	senderID := uuid.New()
	receiverID := uuid.New()
	now := time.Now()
	return &transaction.Transaction{
		ID:         uuid.New(),
		SenderID:   &senderID,
		ReceiverID: &receiverID,
		Amount:     decimal.NewFromInt(95),
		FeeAmount:  decimal.NewFromInt(5),
		Currency:   "FCFA",
		Type:       txType,
		Status:     transaction.StatusCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestTransactionHandler_Deposit(t *testing.T) {
	validBody := MovementRequest{
		SenderPhoneNumber:   "+221771111111",
		ReceiverPhoneNumber: "+221762222222",
		Amount:              "200",
		Currency:            "FCFA",
	}

	t.Run("success", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		expected := completedTransaction(transaction.TypeDeposit)
		mockService.On("Deposit", mock.Anything, "+221771111111", "+221762222222",
			mock.MatchedBy(func(amount decimal.Decimal) bool { return amount.Equal(decimal.NewFromInt(200)) }),
			"FCFA", mock.Anything).Return(expected, nil)

		rr := postJSON(t, router, "/transactions/deposit", validBody)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data := response.Data.(map[string]interface{})
		assert.Equal(t, expected.ID.String(), data["id"])
		assert.Equal(t, "COMPLETED", data["status"])
		mockService.AssertExpectations(t)
	})

	t.Run("missing receiver is a 400", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		rr := postJSON(t, router, "/transactions/deposit", map[string]string{
			"sender_phone_number": "+221771111111",
			"amount":              "200",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-numeric amount is a 400", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		body := validBody
		body.Amount = "lots"
		rr := postJSON(t, router, "/transactions/deposit", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation failure is a 400", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, validation.ValidationError{Field: "amount", Message: "must be at least 5"})

		rr := postJSON(t, router, "/transactions/deposit", validBody)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTransactionHandler_Withdraw(t *testing.T) {
	validBody := MovementRequest{
		SenderPhoneNumber:   "+221771111111",
		ReceiverPhoneNumber: "+221762222222",
		Amount:              "100",
		Currency:            "FCFA",
	}

	t.Run("insufficient funds is a 422", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, account.ErrInsufficientFunds)

		rr := postJSON(t, router, "/transactions/withdraw", validBody)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "INSUFFICIENT_FUNDS", response.Error.Code)
	})

	t.Run("unknown participant is a 404", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, ledger.ErrParticipantNotFound{Side: "sender", PhoneNumber: "+221771111111"})

		rr := postJSON(t, router, "/transactions/withdraw", validBody)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("ineligible role is a 422", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, engine.ErrRoleIneligible{Role: "AGENT", Operation: transaction.TypeWithdraw, Side: "sender"})

		rr := postJSON(t, router, "/transactions/withdraw", validBody)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "ROLE_INELIGIBLE", response.Error.Code)
	})

	t.Run("stale record carries the transaction back", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		stale := completedTransaction(transaction.TypeWithdraw)
		stale.Status = transaction.StatusPending
		mockService.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &engine.StatusUpdateFailedError{Transaction: stale, Err: errors.New("connection reset")})

		rr := postJSON(t, router, "/transactions/withdraw", validBody)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "STATUS_UPDATE_FAILED", response.Error.Code)
		data := response.Data.(map[string]interface{})
		assert.Equal(t, stale.ID.String(), data["id"])
		assert.Equal(t, "PENDING", data["status"])
	})

	t.Run("ledger outage is a 503", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Withdraw", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, ledger.ErrLedgerUnavailable)

		rr := postJSON(t, router, "/transactions/withdraw", validBody)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestTransactionHandler_Transfer(t *testing.T) {
	validBody := TransferRequest{
		SenderPhoneNumber:   "+221771111111",
		ReceiverPhoneNumber: "+221762222222",
		Amount:              "100",
		Currency:            "FCFA",
	}

	t.Run("returns both legs", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		transferID := uuid.New()
		send := completedTransaction(transaction.TypeSend)
		send.TransferID = &transferID
		receive := completedTransaction(transaction.TypeReceive)
		receive.TransferID = &transferID

		mockService.On("Transfer", mock.Anything, "+221771111111", "+221762222222",
			mock.MatchedBy(func(amount decimal.Decimal) bool { return amount.Equal(decimal.NewFromInt(100)) }),
			"FCFA", mock.Anything).
			Return(&transfer.Result{TransferID: transferID, Send: send, Receive: receive}, nil)

		rr := postJSON(t, router, "/transactions/transfer", validBody)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data := response.Data.(map[string]interface{})
		assert.Equal(t, transferID.String(), data["transfer_id"])
		sendLeg := data["send"].(map[string]interface{})
		receiveLeg := data["receive"].(map[string]interface{})
		assert.Equal(t, "SEND", sendLeg["type"])
		assert.Equal(t, "RECEIVE", receiveLeg["type"])
		assert.Equal(t, transferID.String(), sendLeg["transfer_id"])
		mockService.AssertExpectations(t)
	})

	t.Run("partial failure carries the committed leg", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		transferID := uuid.New()
		send := completedTransaction(transaction.TypeSend)
		send.TransferID = &transferID
		mockService.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &transfer.PartialTransferFailure{TransferID: transferID, Send: send, Err: account.ErrCeilingExceeded})

		rr := postJSON(t, router, "/transactions/transfer", validBody)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "PARTIAL_TRANSFER_FAILURE", response.Error.Code)
		data := response.Data.(map[string]interface{})
		assert.Equal(t, send.ID.String(), data["id"])
	})

	t.Run("vendor receiver is a 422", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		mockService.On("Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, engine.ErrRoleIneligible{Role: "VENDOR", Operation: "TRANSFER", Side: "receiver"})

		rr := postJSON(t, router, "/transactions/transfer", validBody)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestTransactionHandler_Purchase(t *testing.T) {
	t.Run("passes the contact through", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		expected := completedTransaction(transaction.TypePurchase)
		expected.ReceiverID = nil
		expected.Purchase = &transaction.CreditPurchaseDetails{
			TransactionID:       expected.ID,
			ReceiverName:        "Fatou Sall",
			ReceiverPhoneNumber: "+221781234567",
		}

		wantContact := validation.PurchaseContact{Name: "Fatou Sall", PhoneNumber: "+221781234567"}
		mockService.On("Purchase", mock.Anything, "+221771111111",
			mock.MatchedBy(func(amount decimal.Decimal) bool { return amount.Equal(decimal.NewFromInt(1000)) }),
			mock.MatchedBy(func(fee decimal.Decimal) bool { return fee.Equal(decimal.NewFromInt(50)) }),
			"FCFA", wantContact, mock.Anything).Return(expected, nil)

		rr := postJSON(t, router, "/transactions/purchase", PurchaseRequest{
			SenderPhoneNumber:   "+221771111111",
			Amount:              "1000",
			FeeAmount:           "50",
			Currency:            "FCFA",
			ReceiverName:        "Fatou Sall",
			ReceiverPhoneNumber: "+221781234567",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data := response.Data.(map[string]interface{})
		purchase := data["purchase"].(map[string]interface{})
		assert.Equal(t, "Fatou Sall", purchase["receiver_name"])
		mockService.AssertExpectations(t)
	})

	t.Run("omitted fee defaults to zero", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		expected := completedTransaction(transaction.TypePurchase)
		mockService.On("Purchase", mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(fee decimal.Decimal) bool { return fee.IsZero() }),
			mock.Anything, mock.Anything, mock.Anything).Return(expected, nil)

		rr := postJSON(t, router, "/transactions/purchase", PurchaseRequest{
			SenderPhoneNumber: "+221771111111",
			Amount:            "1000",
			ReceiverName:      "Fatou Sall",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestTransactionHandler_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		expected := completedTransaction(transaction.TypeSend)
		mockService.On("GetTransaction", mock.Anything, expected.ID).Return(expected, nil)

		req, _ := http.NewRequest(http.MethodGet, "/transactions/"+expected.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		data := response.Data.(map[string]interface{})
		assert.Equal(t, expected.ID.String(), data["id"])
	})

	t.Run("not found", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		id := uuid.New()
		mockService.On("GetTransaction", mock.Anything, id).Return(nil, transaction.ErrTransactionNotFound{TransactionID: id})

		req, _ := http.NewRequest(http.MethodGet, "/transactions/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		req, _ := http.NewRequest(http.MethodGet, "/transactions/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything)
	})
}

func TestTransactionHandler_List(t *testing.T) {
	t.Run("defaults and pagination meta", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		items := []*transaction.Transaction{completedTransaction(transaction.TypeSend)}
		mockService.On("ListTransactions", mock.Anything, 1, 10, transaction.TimeFrameNone, (*uuid.UUID)(nil)).
			Return(items, int64(23), nil)

		req, _ := http.NewRequest(http.MethodGet, "/transactions", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Meta)
		assert.Equal(t, 1, response.Meta.Page)
		assert.Equal(t, 10, response.Meta.PerPage)
		assert.Equal(t, 23, response.Meta.TotalItems)
		assert.Equal(t, 3, response.Meta.TotalPages)
	})

	t.Run("time frame and user filter are forwarded", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		userID := uuid.New()
		mockService.On("ListTransactions", mock.Anything, 2, 25, transaction.TimeFrameWeek,
			mock.MatchedBy(func(id *uuid.UUID) bool { return id != nil && *id == userID })).
			Return([]*transaction.Transaction{}, int64(0), nil)

		req, _ := http.NewRequest(http.MethodGet, "/transactions?page=2&limit=25&time_frame=week&user_id="+userID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unknown time frame is a 400", func(t *testing.T) {
		mockService := new(MockTransactionService)
		router := newTransactionRouter(mockService)

		req, _ := http.NewRequest(http.MethodGet, "/transactions?time_frame=year", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "ListTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
