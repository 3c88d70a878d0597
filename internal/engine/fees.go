package engine

import (
	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/config"
)

// FeePolicy computes and bounds the fees retained by the system
type FeePolicy struct {
	TransferFloor   decimal.Decimal // flat minimum charged per transfer
	TransferRate    decimal.Decimal // proportional part, e.g. 0.01 for 1%
	Cap             decimal.Decimal // maximum fee any transaction may carry
	MinAmount       decimal.Decimal // minimum operation amount
	DefaultCurrency string
}

// NewFeePolicy builds a FeePolicy from configuration
func NewFeePolicy(cfg *config.FeesConfig) FeePolicy {
	return FeePolicy{
		TransferFloor:   cfg.TransferFeeFloor,
		TransferRate:    cfg.TransferFeeRate,
		Cap:             cfg.Cap,
		MinAmount:       cfg.MinAmount,
		DefaultCurrency: cfg.DefaultCurrency,
	}
}

// TransferFee computes the fee for a peer transfer:
// max(floor, rate × amount). With the default policy, fee(100) = 5 and
// fee(1000) = 10.
func (p FeePolicy) TransferFee(amount decimal.Decimal) decimal.Decimal {
	proportional := amount.Mul(p.TransferRate)
	if proportional.GreaterThan(p.TransferFloor) {
		return proportional
	}
	return p.TransferFloor
}
