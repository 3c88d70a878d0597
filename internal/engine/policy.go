package engine

import (
	"github.com/terangapay-ledger/internal/domain/transaction"
	"github.com/terangapay-ledger/internal/domain/user"
)

// ErrRoleIneligible indicates a participant whose role is not allowed to
// take part in the requested money movement
type ErrRoleIneligible struct {
	Role      user.Role
	Operation transaction.Type
	Side      string // "sender" or "receiver"
}

func (e ErrRoleIneligible) Error() string {
	return "role " + string(e.Role) + " may not act as " + e.Side + " in " + string(e.Operation) + " transactions"
}

// Is matches any ErrRoleIneligible when the target carries no role
func (e ErrRoleIneligible) Is(target error) bool {
	t, ok := target.(ErrRoleIneligible)
	if !ok {
		return false
	}
	if t.Role == "" {
		return true
	}
	return e.Role == t.Role && e.Operation == t.Operation && e.Side == t.Side
}

// movementPolicy is the single eligibility table consulted by the engine:
// {operation type × role} → allowed. ADMIN and AGENT accounts hold no
// spendable balance and are blocked on both sides of every movement. The
// additional no-VENDOR-as-transfer-target rule lives in the transfer
// orchestrator, which owns transfer semantics.
var movementPolicy = map[transaction.Type]map[user.Role]bool{
	transaction.TypeDeposit:  {user.RoleClient: true, user.RoleVendor: true},
	transaction.TypeWithdraw: {user.RoleClient: true, user.RoleVendor: true},
	transaction.TypeSend:     {user.RoleClient: true, user.RoleVendor: true},
	transaction.TypeReceive:  {user.RoleClient: true, user.RoleVendor: true},
	transaction.TypePurchase: {user.RoleClient: true, user.RoleVendor: true},
}

// roleAllowed consults the policy table for one participant
func roleAllowed(op transaction.Type, role user.Role) bool {
	allowed, ok := movementPolicy[op]
	if !ok {
		return false
	}
	return allowed[role]
}

// checkPolicy validates one participant against the policy table
func checkPolicy(op transaction.Type, role user.Role, side string) error {
	if !roleAllowed(op, role) {
		return ErrRoleIneligible{Role: role, Operation: op, Side: side}
	}
	return nil
}
