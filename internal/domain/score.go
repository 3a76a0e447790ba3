package domain

// Tier is the ordered risk classification derived from an account's final
// score. Boundaries are closed: 30.0 is still CLEAN, 90.0 still SUSPICIOUS.
type Tier string

const (
	TierClean      Tier = "CLEAN"
	TierWatch      Tier = "WATCH"
	TierSuspicious Tier = "SUSPICIOUS"
	TierBlock      Tier = "BLOCK"
)

// Tiers lists all tiers from lowest to highest risk.
var Tiers = []Tier{TierClean, TierWatch, TierSuspicious, TierBlock}

// Flag is a named structural/behavioural risk signal. A flag fires at most
// once per account regardless of how many edges justify it.
type Flag struct {
	Name   string
	Weight int
	// Description is a human-readable audit note, e.g. the transaction
	// count backing the flag. It never influences the score.
	Description string
}

// Score is the complete scoring verdict for a single account.
type Score struct {
	AccountID     string
	OwnScore      int
	Contamination float64
	FinalScore    float64
	Tier          Tier
	Flags         []Flag
	InLoop        bool
}

// Summary aggregates a full score table for reporting.
type Summary struct {
	TierCounts map[Tier]int
	MaxScore   float64
	AvgScore   float64
	Accounts   int
}
