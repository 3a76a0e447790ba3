package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghna/ringsight/internal/domain"
)

func snapshotWithAccounts(ids ...string) domain.Snapshot {
	snap := domain.Snapshot{}
	for _, id := range ids {
		snap.Accounts = append(snap.Accounts, domain.Account{
			ID:     id,
			Type:   domain.AccountTypeSavings,
			Holder: "Holder " + id,
		})
	}
	return snap
}

func TestBuildGraph_NodesPerRelation(t *testing.T) {
	snap := snapshotWithAccounts("ACC_1", "ACC_2")
	snap.Identifiers = []domain.IdentifierAssignment{
		{AccountID: "ACC_1", Type: domain.IdentifierTypeIP, Value: "10.0.0.1"},
		{AccountID: "ACC_2", Type: domain.IdentifierTypeIP, Value: "10.0.0.1"},
		{AccountID: "ACC_2", Type: domain.IdentifierTypeIMEI, Value: "IMEI-1"},
	}
	snap.Touchpoints = []domain.TouchpointAssignment{
		{AccountID: "ACC_1", TouchpointID: "ATM_X"},
	}

	g := BuildGraph(snap)

	require.Equal(t, 5, g.NumNodes(), "2 accounts + 2 identifiers + 1 touchpoint")

	node, ok := g.Node("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, domain.NodeTypeIdentifier, node.Type)
	assert.Equal(t, domain.IdentifierTypeIP, node.IdentifierType)

	node, ok = g.Node("ATM_X")
	require.True(t, ok)
	assert.Equal(t, domain.NodeTypeTouchpoint, node.Type)

	require.True(t, g.IsAccount("ACC_1"))
	assert.False(t, g.IsAccount("ATM_X"))
}

func TestBuildGraph_PairwiseExpansion(t *testing.T) {
	// Three accounts on the same IP must be linked pairwise, not chained:
	// 3 unordered pairs, each as a symmetric edge pair.
	snap := snapshotWithAccounts("ACC_1", "ACC_2", "ACC_3")
	for _, id := range []string{"ACC_1", "ACC_2", "ACC_3"} {
		snap.Identifiers = append(snap.Identifiers, domain.IdentifierAssignment{
			AccountID: id, Type: domain.IdentifierTypeIP, Value: "192.0.2.7",
		})
	}

	g := BuildGraph(snap)

	edges := g.Edges()
	require.Len(t, edges, 6)
	for _, edge := range edges {
		assert.Equal(t, domain.EdgeTypeSharedIP, edge.Type)
	}
}

func TestBuildGraph_SharedEdgesAreReciprocated(t *testing.T) {
	snap := snapshotWithAccounts("ACC_1", "ACC_2", "ACC_3", "ACC_4")
	snap.Identifiers = []domain.IdentifierAssignment{
		{AccountID: "ACC_1", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_2", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_3", Type: domain.IdentifierTypeMAC, Value: "MAC:AA:01"},
		{AccountID: "ACC_4", Type: domain.IdentifierTypeMAC, Value: "MAC:AA:01"},
	}
	snap.Touchpoints = []domain.TouchpointAssignment{
		{AccountID: "ACC_1", TouchpointID: "ATM_X"},
		{AccountID: "ACC_3", TouchpointID: "ATM_X"},
	}

	g := BuildGraph(snap)

	type key struct {
		src, dst string
		kind     domain.EdgeType
	}
	seen := make(map[key]int)
	for _, edge := range g.Edges() {
		seen[key{edge.Source, edge.Target, edge.Type}]++
	}
	for k, count := range seen {
		reverse := seen[key{k.dst, k.src, k.kind}]
		assert.Equal(t, count, reverse, "edge %v must be reciprocated", k)
	}
}

func TestBuildGraph_MoneyFlowDirectedOncePerTransaction(t *testing.T) {
	snap := snapshotWithAccounts("ACC_1", "ACC_2")
	snap.Transactions = []domain.Transaction{
		{ID: "TXN_1", Sender: "ACC_1", Receiver: "ACC_2", Amount: 500, Timestamp: 1},
		{ID: "TXN_2", Sender: "ACC_1", Receiver: "ACC_2", Amount: 250, Timestamp: 2},
	}

	g := BuildGraph(snap)

	out := g.OutEdges("ACC_1")
	require.Len(t, out, 2, "parallel money_flow edges are kept")
	assert.Empty(t, g.OutEdges("ACC_2"), "money_flow is never symmetrised")

	assert.Equal(t, "TXN_1", out[0].TransactionID)
	assert.Equal(t, 500.0, out[0].Amount)
	assert.Equal(t, int64(1), out[0].Timestamp)
}

func TestBuildGraph_EdgeSetIndependentOfInputOrder(t *testing.T) {
	base := snapshotWithAccounts("ACC_1", "ACC_2", "ACC_3")
	base.Identifiers = []domain.IdentifierAssignment{
		{AccountID: "ACC_1", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_2", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_3", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
	}

	shuffled := base
	shuffled.Identifiers = []domain.IdentifierAssignment{
		base.Identifiers[2], base.Identifiers[0], base.Identifiers[1],
	}

	first := BuildGraph(base)
	second := BuildGraph(shuffled)

	assert.Equal(t, first.Edges(), second.Edges())
}

func TestBuildGraph_DuplicateAssignmentsCollapse(t *testing.T) {
	// The same account listed twice on one identifier must not pair with
	// itself or double the expansion.
	snap := snapshotWithAccounts("ACC_1", "ACC_2")
	snap.Identifiers = []domain.IdentifierAssignment{
		{AccountID: "ACC_1", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_1", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
		{AccountID: "ACC_2", Type: domain.IdentifierTypeIP, Value: "10.0.0.9"},
	}

	g := BuildGraph(snap)

	require.Len(t, g.Edges(), 2)
	for _, edge := range g.Edges() {
		assert.NotEqual(t, edge.Source, edge.Target)
	}
}
