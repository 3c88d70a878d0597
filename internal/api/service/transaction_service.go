package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/engine"
	"github.com/terangapay-ledger/internal/transfer"
	"github.com/terangapay-ledger/internal/validation"
)

// TransactionServiceImpl implements the TransactionService interface. It
// validates inputs and delegates execution to the engine and the transfer
// orchestrator.
type TransactionServiceImpl struct {
	engine       *engine.Engine
	orchestrator *transfer.Orchestrator
	rules        validation.Rules
}

// NewTransactionService creates a new transaction service
func NewTransactionService(eng *engine.Engine, orchestrator *transfer.Orchestrator) TransactionService {
	fees := eng.Fees()
	return &TransactionServiceImpl{
		engine:       eng,
		orchestrator: orchestrator,
		rules: validation.Rules{
			MinAmount: fees.MinAmount,
			FeeCap:    fees.Cap,
		},
	}
}

// Deposit credits the receiver with the amount; the sender covers it plus fee.
// Deposits carry no fee in the current policy.
func (s *TransactionServiceImpl) Deposit(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error) {
	return s.applyStandard(ctx, transaction.TypeDeposit, senderPhone, receiverPhone, amount, currency, correlationID)
}

// Withdraw debits the sender the amount plus fee and credits the receiver
func (s *TransactionServiceImpl) Withdraw(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error) {
	return s.applyStandard(ctx, transaction.TypeWithdraw, senderPhone, receiverPhone, amount, currency, correlationID)
}

func (s *TransactionServiceImpl) applyStandard(ctx context.Context, txType transaction.Type, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transaction.Transaction, error) {
	fee := decimal.Zero
	if err := s.rules.StandardTransaction(txType, senderPhone, receiverPhone, amount, fee); err != nil {
		return nil, err
	}

	return s.engine.Apply(ctx, engine.Command{
		Type:          txType,
		SenderPhone:   senderPhone,
		ReceiverPhone: receiverPhone,
		Amount:        amount,
		Fee:           fee,
		Currency:      s.currencyOrDefault(currency),
		CorrelationID: correlationID,
	})
}

// Purchase debits the sender for a credit purchase addressed to an off-ledger
// contact, of which at least one channel must be supplied
func (s *TransactionServiceImpl) Purchase(ctx context.Context, senderPhone string, amount, fee decimal.Decimal, currency string, contact validation.PurchaseContact, correlationID string) (*transaction.Transaction, error) {
	if err := s.rules.Purchase(senderPhone, amount, fee, contact); err != nil {
		return nil, err
	}

	details := transaction.CreditPurchaseDetails{
		ReceiverName:        contact.Name,
		ReceiverPhoneNumber: contact.PhoneNumber,
		ReceiverEmail:       contact.Email,
	}
	return s.engine.ApplyPurchase(ctx, senderPhone, amount, fee, s.currencyOrDefault(currency), details, correlationID)
}

// Transfer moves amount from sender to receiver as a SEND/RECEIVE pair, with
// the fee computed by the engine's fee policy
func (s *TransactionServiceImpl) Transfer(ctx context.Context, senderPhone, receiverPhone string, amount decimal.Decimal, currency, correlationID string) (*transfer.Result, error) {
	fee := s.engine.Fees().TransferFee(amount)
	if err := s.rules.StandardTransaction(transaction.TypeSend, senderPhone, receiverPhone, amount, fee); err != nil {
		return nil, err
	}

	return s.orchestrator.Transfer(ctx, senderPhone, receiverPhone, amount, s.currencyOrDefault(currency), correlationID)
}

// GetTransaction retrieves a transaction by its ID
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.engine.GetTransaction(ctx, id)
}

// ListTransactions returns one page of transactions plus the total count
func (s *TransactionServiceImpl) ListTransactions(ctx context.Context, page, limit int, timeFrame transaction.TimeFrame, userID *uuid.UUID) ([]*transaction.Transaction, int64, error) {
	return s.engine.ListTransactions(ctx, page, limit, timeFrame, userID)
}

func (s *TransactionServiceImpl) currencyOrDefault(currency string) string {
	if currency == "" {
		return s.engine.Fees().DefaultCurrency
	}
	return currency
}
