package engine

import (
	"fmt"

	"github.com/meghna/ringsight/internal/domain"
)

// ValidationError is a terminal input failure. It names the offending
// record so the caller can correct the snapshot; nothing in the engine is
// retryable.
type ValidationError struct {
	Record string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Record, e.Reason)
}

func invalid(recordFormat string, recordArgs []any, reason string) error {
	return &ValidationError{
		Record: fmt.Sprintf(recordFormat, recordArgs...),
		Reason: reason,
	}
}

// ValidateSnapshot enforces referential integrity before any graph is
// built: every assignment and transaction must reference known accounts,
// transactions must move a positive amount between two distinct accounts,
// and IDs must be unique. A snapshot with zero accounts is valid.
func ValidateSnapshot(snap domain.Snapshot) error {
	accounts := make(map[string]struct{}, len(snap.Accounts))
	for i, acc := range snap.Accounts {
		if acc.ID == "" {
			return invalid("account[%d]", []any{i}, "missing account_id")
		}
		if _, dup := accounts[acc.ID]; dup {
			return invalid("account %s", []any{acc.ID}, "duplicate account_id")
		}
		accounts[acc.ID] = struct{}{}
	}

	for i, assignment := range snap.Identifiers {
		if assignment.Value == "" {
			return invalid("identifier assignment[%d]", []any{i}, "missing identifier_value")
		}
		if _, ok := accounts[assignment.AccountID]; !ok {
			return invalid("identifier assignment %s=%s", []any{string(assignment.Type), assignment.Value},
				fmt.Sprintf("references unknown account %q", assignment.AccountID))
		}
	}

	for i, visit := range snap.Touchpoints {
		if visit.TouchpointID == "" {
			return invalid("touchpoint assignment[%d]", []any{i}, "missing touchpoint_id")
		}
		if _, ok := accounts[visit.AccountID]; !ok {
			return invalid("touchpoint assignment %s", []any{visit.TouchpointID},
				fmt.Sprintf("references unknown account %q", visit.AccountID))
		}
	}

	txnIDs := make(map[string]struct{}, len(snap.Transactions))
	for i, tx := range snap.Transactions {
		if tx.ID == "" {
			return invalid("transaction[%d]", []any{i}, "missing txn_id")
		}
		if _, dup := txnIDs[tx.ID]; dup {
			return invalid("transaction %s", []any{tx.ID}, "duplicate txn_id")
		}
		txnIDs[tx.ID] = struct{}{}
		if _, ok := accounts[tx.Sender]; !ok {
			return invalid("transaction %s", []any{tx.ID}, fmt.Sprintf("references unknown sender %q", tx.Sender))
		}
		if _, ok := accounts[tx.Receiver]; !ok {
			return invalid("transaction %s", []any{tx.ID}, fmt.Sprintf("references unknown receiver %q", tx.Receiver))
		}
		if tx.Sender == tx.Receiver {
			return invalid("transaction %s", []any{tx.ID}, "sender equals receiver")
		}
		if tx.Amount <= 0 {
			return invalid("transaction %s", []any{tx.ID}, fmt.Sprintf("non-positive amount %v", tx.Amount))
		}
	}

	return nil
}
