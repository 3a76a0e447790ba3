package domain

import (
	"fmt"
	"strings"
)

// AccountType categorises the financial instrument behind an account.
type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeUPI     AccountType = "UPI"
	AccountTypeWallet  AccountType = "WALLET"
)

// ParseAccountType maps free-form input labels onto the canonical enum.
func ParseAccountType(value string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "SAVINGS", "SAVINGS ACCOUNT":
		return AccountTypeSavings, nil
	case "UPI", "UPI ID":
		return AccountTypeUPI, nil
	case "WALLET", "DIGITAL WALLET":
		return AccountTypeWallet, nil
	default:
		return "", fmt.Errorf("unknown account type %q", value)
	}
}

// Account is the identity under evaluation. Immutable during scoring.
type Account struct {
	ID     string
	Type   AccountType
	Holder string
	// Ring is an informational grouping label carried through from test
	// datasets. The scoring engine never reads it.
	Ring string
}
