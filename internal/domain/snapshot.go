package domain

import (
	"fmt"
	"strings"
)

// IdentifierType distinguishes the physical/device fingerprints observed on
// accounts. IPs produce shared_ip edges; MACs and IMEIs produce shared_device
// edges.
type IdentifierType string

const (
	IdentifierTypeIP   IdentifierType = "IP"
	IdentifierTypeMAC  IdentifierType = "DEVICE_MAC"
	IdentifierTypeIMEI IdentifierType = "IMEI"
)

// ParseIdentifierType maps free-form input labels onto the canonical enum.
func ParseIdentifierType(value string) (IdentifierType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "IP", "IP ADDRESS":
		return IdentifierTypeIP, nil
	case "DEVICE_MAC", "DEVICE MAC", "MAC":
		return IdentifierTypeMAC, nil
	case "IMEI":
		return IdentifierTypeIMEI, nil
	default:
		return "", fmt.Errorf("unknown identifier type %q", value)
	}
}

// IsDevice reports whether the identifier counts as a device fingerprint
// for shared_device edge purposes.
func (t IdentifierType) IsDevice() bool {
	return t == IdentifierTypeMAC || t == IdentifierTypeIMEI
}

// IdentifierAssignment records that an identifier value was observed on an
// account. Identifiers are not owned; the same value may appear on many
// accounts.
type IdentifierAssignment struct {
	AccountID string
	Type      IdentifierType
	Value     string
}

// TouchpointAssignment records that an account visited a physical or online
// access point (ATM, portal).
type TouchpointAssignment struct {
	AccountID    string
	TouchpointID string
}

// Transaction is a directed money movement between two accounts. Immutable
// historical fact.
type Transaction struct {
	ID       string
	Sender   string
	Receiver string
	Amount   float64
	// Timestamp is a monotonic ordering key; the engine only compares it.
	Timestamp int64
}

// Snapshot is the complete static input the engine scores. All scores are
// recomputed from scratch for every snapshot; there is no incremental path.
type Snapshot struct {
	Accounts     []Account
	Identifiers  []IdentifierAssignment
	Touchpoints  []TouchpointAssignment
	Transactions []Transaction
}
