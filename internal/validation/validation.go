// Package validation holds the pure input checks applied before the
// transaction engine runs. Nothing here performs I/O or mutates state; a
// failure is always a ValidationError naming the offending field.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/terangapay-ledger/internal/domain/transaction"
)

// ValidationError carries a field-level message for bad input. Recoverable
// by the caller correcting the input, never by retrying.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is matches any ValidationError when the target carries no field
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	if t.Field == "" {
		return true
	}
	return e.Field == t.Field
}

// Senegalese mobile numbers: +221 followed by an operator prefix and 7 digits
var phoneNumberPattern = regexp.MustCompile(`^\+221(77|76|75|78|70)\d{7}$`)

// Rules bounds amounts and fees. Zero values reject everything, so callers
// always construct Rules from configuration.
type Rules struct {
	MinAmount decimal.Decimal
	FeeCap    decimal.Decimal
}

// PhoneNumber validates one phone number under the given field name
func PhoneNumber(field, number string) error {
	if !phoneNumberPattern.MatchString(number) {
		return ValidationError{Field: field, Message: "must be a valid Senegalese mobile number"}
	}
	return nil
}

// Amount enforces positivity and the configured minimum
func (r Rules) Amount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount.LessThan(r.MinAmount) {
		return ValidationError{Field: "amount", Message: "must be at least " + r.MinAmount.String()}
	}
	return nil
}

// Fee enforces non-negativity and the configured cap
func (r Rules) Fee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return ValidationError{Field: "fee_amount", Message: "must not be negative"}
	}
	if fee.GreaterThan(r.FeeCap) {
		return ValidationError{Field: "fee_amount", Message: "exceeds the allowed limit"}
	}
	return nil
}

// StandardTransaction validates the inputs of a DEPOSIT, WITHDRAW, SEND or
// RECEIVE movement. The sender and receiver must differ for every type
// except PURCHASE, which goes through Purchase instead.
func (r Rules) StandardTransaction(txType transaction.Type, senderPhone, receiverPhone string, amount, fee decimal.Decimal) error {
	if err := r.Amount(amount); err != nil {
		return err
	}
	if err := r.Fee(fee); err != nil {
		return err
	}
	if err := PhoneNumber("sender_phone_number", senderPhone); err != nil {
		return err
	}
	if err := PhoneNumber("receiver_phone_number", receiverPhone); err != nil {
		return err
	}
	if txType != transaction.TypePurchase && senderPhone == receiverPhone {
		return ValidationError{Field: "receiver_phone_number", Message: "sender and receiver must differ"}
	}
	return nil
}

// PurchaseContact is the off-ledger receiver of a credit purchase
type PurchaseContact struct {
	Name        string
	PhoneNumber string
	Email       string
}

// Purchase validates a PURCHASE movement. The receiver is off-ledger, so
// instead of a receiver account the caller supplies contact details, of
// which at least one channel is required.
func (r Rules) Purchase(senderPhone string, amount, fee decimal.Decimal, contact PurchaseContact) error {
	if err := r.Amount(amount); err != nil {
		return err
	}
	if err := r.Fee(fee); err != nil {
		return err
	}
	if err := PhoneNumber("sender_phone_number", senderPhone); err != nil {
		return err
	}

	name := strings.TrimSpace(contact.Name)
	if contact.Name != "" && len(name) < 2 {
		return ValidationError{Field: "receiver_name", Message: "must contain at least 2 characters"}
	}
	if contact.PhoneNumber != "" {
		if err := PhoneNumber("receiver_phone_number", contact.PhoneNumber); err != nil {
			return err
		}
	}
	if contact.Email != "" {
		if _, err := mail.ParseAddress(contact.Email); err != nil {
			return ValidationError{Field: "receiver_email", Message: "must be a valid email address"}
		}
	}
	if name == "" && contact.PhoneNumber == "" && contact.Email == "" {
		return ValidationError{Field: "receiver", Message: "at least one contact channel (name, phone or email) is required"}
	}
	return nil
}
