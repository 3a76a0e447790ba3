package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meghna/ringsight/internal/domain"
)

func TestClassifyTier_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.Tier
	}{
		{0, domain.TierClean},
		{12.5, domain.TierClean},
		{30, domain.TierClean},
		{30.1, domain.TierWatch},
		{31, domain.TierWatch},
		{60, domain.TierWatch},
		{60.1, domain.TierSuspicious},
		{61, domain.TierSuspicious},
		{84.5, domain.TierSuspicious},
		{90, domain.TierSuspicious},
		{90.1, domain.TierBlock},
		{91, domain.TierBlock},
		{137.3, domain.TierBlock},
		{100000, domain.TierBlock},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifyTier(tc.score), "score %v", tc.score)
	}
}
