package engine

import "github.com/meghna/ringsight/internal/domain"

// Tier boundaries. Intervals are closed, so a final score sitting exactly
// on an upper bound stays in the lower tier: 30.0 is CLEAN, 30.1 is WATCH,
// 90.0 is SUSPICIOUS, 90.1 is BLOCK.
const (
	cleanUpper      = 30.0
	watchUpper      = 60.0
	suspiciousUpper = 90.0
)

// ClassifyTier maps a final score onto exactly one risk tier. Anything
// above the SUSPICIOUS ceiling is BLOCK; the top tier has no upper bound.
func ClassifyTier(finalScore float64) domain.Tier {
	switch {
	case finalScore <= cleanUpper:
		return domain.TierClean
	case finalScore <= watchUpper:
		return domain.TierWatch
	case finalScore <= suspiciousUpper:
		return domain.TierSuspicious
	default:
		return domain.TierBlock
	}
}
