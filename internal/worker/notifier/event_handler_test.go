package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/terangapay-ledger/internal/domain/shared"
	"github.com/terangapay-ledger/internal/domain/transaction"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ProcessEvent(ctx context.Context, event *shared.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockDLQPublisher struct {
	mock.Mock
}

func (m *MockDLQPublisher) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDLQPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func marshaledEvent(t *testing.T) (uuid.UUID, []byte) {
	t.Helper()
	senderID := uuid.New()
	event := &shared.TransactionEvent{
		TransactionID: uuid.New(),
		SenderID:      &senderID,
		Type:          string(transaction.TypeSend),
		Status:        string(transaction.StatusCompleted),
		Amount:        decimal.NewFromInt(95),
		FeeAmount:     decimal.NewFromInt(5),
		Currency:      "FCFA",
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return event.TransactionID, value
}

func TestEventHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("processes a well-formed event", func(t *testing.T) {
		service := &MockNotificationService{}
		dlq := &MockDLQPublisher{}
		handler := NewEventHandler(logger, service, dlq)

		txnID, value := marshaledEvent(t)
		service.On("ProcessEvent", mock.Anything, mock.MatchedBy(func(event *shared.TransactionEvent) bool {
			return event.TransactionID == txnID
		})).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte(txnID.String()), value)
		assert.NoError(t, err)
		service.AssertExpectations(t)
		dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("routes a poison message to the DLQ and commits", func(t *testing.T) {
		service := &MockNotificationService{}
		dlq := &MockDLQPublisher{}
		handler := NewEventHandler(logger, service, dlq)

		poison := []byte(`{"transaction_id":`)
		dlq.On("PublishToDLQ", mock.Anything, "key-1", poison, mock.AnythingOfType("string")).Return(nil).Once()

		err := handler.HandleMessage(ctx, []byte("key-1"), poison)
		assert.NoError(t, err, "a DLQ-routed message must commit its offset")
		dlq.AssertExpectations(t)
		service.AssertNotCalled(t, "ProcessEvent", mock.Anything, mock.Anything)
	})

	t.Run("keeps a poison message uncommitted when the DLQ write fails", func(t *testing.T) {
		service := &MockNotificationService{}
		dlq := &MockDLQPublisher{}
		handler := NewEventHandler(logger, service, dlq)

		poison := []byte("not json")
		dlq.On("PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("dlq unavailable")).Once()

		err := handler.HandleMessage(ctx, []byte("key-1"), poison)
		assert.Error(t, err)
	})

	t.Run("keeps a poison message uncommitted without a DLQ", func(t *testing.T) {
		service := &MockNotificationService{}
		handler := NewEventHandler(logger, service, nil)

		err := handler.HandleMessage(ctx, []byte("key-1"), []byte("not json"))
		assert.Error(t, err)
	})

	t.Run("propagates a processing failure for redelivery", func(t *testing.T) {
		service := &MockNotificationService{}
		handler := NewEventHandler(logger, service, nil)

		txnID, value := marshaledEvent(t)
		service.On("ProcessEvent", mock.Anything, mock.Anything).Return(errors.New("mongo down")).Once()

		err := handler.HandleMessage(ctx, []byte(txnID.String()), value)
		assert.Error(t, err)
		service.AssertExpectations(t)
	})
}

func TestWorkerPoolNotificationService(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("returns the per-event result from the pool", func(t *testing.T) {
		service := &MockNotificationService{}
		pool, err := NewWorkerPoolNotificationService(service, WorkerPoolConfig{Size: 2}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		senderID := uuid.New()
		event := &shared.TransactionEvent{
			TransactionID: uuid.New(),
			SenderID:      &senderID,
			Type:          string(transaction.TypeSend),
			Amount:        decimal.NewFromInt(95),
		}
		service.On("ProcessEvent", mock.Anything, mock.MatchedBy(func(e *shared.TransactionEvent) bool {
			return e.TransactionID == event.TransactionID
		})).Return(nil).Once()

		assert.NoError(t, pool.ProcessEvent(ctx, event))
		service.AssertExpectations(t)
	})

	t.Run("surfaces a worker failure to the caller", func(t *testing.T) {
		service := &MockNotificationService{}
		pool, err := NewWorkerPoolNotificationService(service, WorkerPoolConfig{Size: 2}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		event := &shared.TransactionEvent{TransactionID: uuid.New(), Amount: decimal.NewFromInt(95)}
		processErr := errors.New("store failure")
		service.On("ProcessEvent", mock.Anything, mock.Anything).Return(processErr).Once()

		assert.ErrorIs(t, pool.ProcessEvent(ctx, event), processErr)
	})

	t.Run("reports its capacity", func(t *testing.T) {
		service := &MockNotificationService{}
		pool, err := NewWorkerPoolNotificationService(service, WorkerPoolConfig{Size: 4}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		assert.Equal(t, 4, pool.Capacity())
	})
}
