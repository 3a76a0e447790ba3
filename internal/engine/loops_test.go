package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghna/ringsight/internal/domain"
)

func transfers(pairs ...[2]string) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(pairs))
	for i, pair := range pairs {
		txs = append(txs, domain.Transaction{
			ID:        "TXN_" + string(rune('A'+i)),
			Sender:    pair[0],
			Receiver:  pair[1],
			Amount:    1000,
			Timestamp: int64(i + 1),
		})
	}
	return txs
}

func TestDetectLoops_TwoPartyBackAndForthIsNotALoop(t *testing.T) {
	snap := snapshotWithAccounts("ACC_A", "ACC_B")
	snap.Transactions = transfers([2]string{"ACC_A", "ACC_B"}, [2]string{"ACC_B", "ACC_A"})

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	assert.Empty(t, loops.Cycles)
	assert.False(t, loops.InLoop("ACC_A"))
	assert.False(t, loops.InLoop("ACC_B"))
	assert.False(t, loops.Truncated)
}

func TestDetectLoops_ThreePartyCycleFlagsEveryMember(t *testing.T) {
	snap := snapshotWithAccounts("ACC_A", "ACC_B", "ACC_C")
	snap.Transactions = transfers(
		[2]string{"ACC_A", "ACC_B"},
		[2]string{"ACC_B", "ACC_C"},
		[2]string{"ACC_C", "ACC_A"},
	)

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	require.Len(t, loops.Cycles, 1)
	assert.Equal(t, []string{"ACC_A", "ACC_B", "ACC_C"}, loops.Cycles[0])
	for _, id := range []string{"ACC_A", "ACC_B", "ACC_C"} {
		assert.True(t, loops.InLoop(id), "%s must be loop-flagged", id)
	}
}

func TestDetectLoops_FourPartyCycle(t *testing.T) {
	snap := snapshotWithAccounts("ACC_A", "ACC_B", "ACC_C", "ACC_D")
	snap.Transactions = transfers(
		[2]string{"ACC_A", "ACC_B"},
		[2]string{"ACC_B", "ACC_C"},
		[2]string{"ACC_C", "ACC_D"},
		[2]string{"ACC_D", "ACC_A"},
	)

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	require.Len(t, loops.Cycles, 1)
	assert.Len(t, loops.Members, 4)
}

func TestDetectLoops_BidirectionalChainWithoutClosingEdge(t *testing.T) {
	// G1<->G2 and G2<->G3 without G3->G1: plenty of 2-cycles, no loop.
	snap := snapshotWithAccounts("ACC_G1", "ACC_G2", "ACC_G3")
	snap.Transactions = transfers(
		[2]string{"ACC_G1", "ACC_G2"},
		[2]string{"ACC_G2", "ACC_G1"},
		[2]string{"ACC_G2", "ACC_G3"},
		[2]string{"ACC_G3", "ACC_G2"},
	)

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	assert.Empty(t, loops.Cycles)
	assert.Empty(t, loops.Members)
}

func TestDetectLoops_SharedEdgesDoNotFormLoops(t *testing.T) {
	// Shared identifiers produce symmetric account pairs; the money-flow
	// subgraph must ignore them entirely.
	snap := snapshotWithAccounts("ACC_A", "ACC_B", "ACC_C")
	for _, id := range []string{"ACC_A", "ACC_B", "ACC_C"} {
		snap.Identifiers = append(snap.Identifiers, domain.IdentifierAssignment{
			AccountID: id, Type: domain.IdentifierTypeIP, Value: "10.0.0.1",
		})
	}

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	assert.Empty(t, loops.Cycles)
}

func TestDetectLoops_CycleBudgetTruncates(t *testing.T) {
	// Two disjoint 3-cycles but a budget of one: the result must be marked
	// truncated instead of hanging or erroring.
	snap := snapshotWithAccounts("ACC_A", "ACC_B", "ACC_C", "ACC_D", "ACC_E", "ACC_F")
	snap.Transactions = transfers(
		[2]string{"ACC_A", "ACC_B"},
		[2]string{"ACC_B", "ACC_C"},
		[2]string{"ACC_C", "ACC_A"},
		[2]string{"ACC_D", "ACC_E"},
		[2]string{"ACC_E", "ACC_F"},
		[2]string{"ACC_F", "ACC_D"},
	)

	loops := DetectLoops(BuildGraph(snap), 1, time.Time{})

	assert.True(t, loops.Truncated)
	assert.Len(t, loops.Cycles, 1)
}

func TestDetectLoops_OverlappingCycles(t *testing.T) {
	// Two simple cycles share the A->B edge: A->B->C->A and A->B->D->C->A.
	snap := snapshotWithAccounts("ACC_A", "ACC_B", "ACC_C", "ACC_D")
	snap.Transactions = transfers(
		[2]string{"ACC_A", "ACC_B"},
		[2]string{"ACC_B", "ACC_C"},
		[2]string{"ACC_C", "ACC_A"},
		[2]string{"ACC_B", "ACC_D"},
		[2]string{"ACC_D", "ACC_C"},
	)

	loops := DetectLoops(BuildGraph(snap), DefaultMaxCycles, time.Time{})

	require.Len(t, loops.Cycles, 2)
	assert.Equal(t, []string{"ACC_A", "ACC_B", "ACC_C"}, loops.Cycles[0])
	assert.Equal(t, []string{"ACC_A", "ACC_B", "ACC_D", "ACC_C"}, loops.Cycles[1])
	assert.Len(t, loops.Members, 4)
}
