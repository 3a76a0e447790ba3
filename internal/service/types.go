package service

import (
	"fmt"

	"github.com/meghna/ringsight/internal/domain"
)

// AccountInput is the wire shape of one account record.
type AccountInput struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Holder    string `json:"holder"`
	Ring      string `json:"ring,omitempty"`
}

// IdentifierAssignmentInput is the wire shape of one identifier observation.
type IdentifierAssignmentInput struct {
	AccountID       string `json:"account_id"`
	IdentifierType  string `json:"identifier_type"`
	IdentifierValue string `json:"identifier_value"`
}

// TouchpointAssignmentInput is the wire shape of one touchpoint visit.
type TouchpointAssignmentInput struct {
	AccountID    string `json:"account_id"`
	TouchpointID string `json:"touchpoint_id"`
}

// TransactionInput is the wire shape of one money movement.
type TransactionInput struct {
	TxnID     string  `json:"txn_id"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
}

// SnapshotInput is the complete payload submitted for scoring.
type SnapshotInput struct {
	Accounts     []AccountInput              `json:"accounts"`
	Identifiers  []IdentifierAssignmentInput `json:"identifiers"`
	Touchpoints  []TouchpointAssignmentInput `json:"touchpoints"`
	Transactions []TransactionInput          `json:"transactions"`
}

// ToSnapshot normalizes and converts the wire payload into a domain
// snapshot. Enum labels are parsed here so the engine only ever sees
// canonical values; referential integrity is the engine's concern.
func (in SnapshotInput) ToSnapshot() (domain.Snapshot, error) {
	snap := domain.Snapshot{}

	for i, acc := range in.Accounts {
		accountType, err := domain.ParseAccountType(acc.Type)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("account[%d] %s: %w", i, acc.AccountID, err)
		}
		snap.Accounts = append(snap.Accounts, domain.Account{
			ID:     sanitizeString(acc.AccountID),
			Type:   accountType,
			Holder: sanitizeString(acc.Holder),
			Ring:   sanitizeString(acc.Ring),
		})
	}

	for i, assignment := range in.Identifiers {
		identifierType, err := domain.ParseIdentifierType(assignment.IdentifierType)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("identifier assignment[%d]: %w", i, err)
		}
		snap.Identifiers = append(snap.Identifiers, domain.IdentifierAssignment{
			AccountID: sanitizeString(assignment.AccountID),
			Type:      identifierType,
			Value:     sanitizeString(assignment.IdentifierValue),
		})
	}

	for _, visit := range in.Touchpoints {
		snap.Touchpoints = append(snap.Touchpoints, domain.TouchpointAssignment{
			AccountID:    sanitizeString(visit.AccountID),
			TouchpointID: sanitizeString(visit.TouchpointID),
		})
	}

	for _, tx := range in.Transactions {
		snap.Transactions = append(snap.Transactions, domain.Transaction{
			ID:        sanitizeString(tx.TxnID),
			Sender:    sanitizeString(tx.Sender),
			Receiver:  sanitizeString(tx.Receiver),
			Amount:    tx.Amount,
			Timestamp: tx.Timestamp,
		})
	}

	return snap, nil
}
