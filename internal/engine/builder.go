package engine

import (
	"sort"

	"github.com/meghna/ringsight/internal/domain"
)

// Graph is the typed multigraph the scoring stages operate on. Parallel
// edges between the same ordered pair are permitted; an account can both
// share an IP with and send money to the same counterpart.
type Graph struct {
	nodes map[string]domain.Node
	order []string
	edges []domain.Edge
	out   map[string][]int
	in    map[string][]int
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]domain.Node),
		out:   make(map[string][]int),
		in:    make(map[string][]int),
	}
}

func (g *Graph) addNode(node domain.Node) {
	if _, exists := g.nodes[node.ID]; exists {
		return
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
}

func (g *Graph) addEdge(edge domain.Edge) {
	idx := len(g.edges)
	g.edges = append(g.edges, edge)
	g.out[edge.Source] = append(g.out[edge.Source], idx)
	g.in[edge.Target] = append(g.in[edge.Target], idx)
}

// Node returns the node with the given ID, if present.
func (g *Graph) Node(id string) (domain.Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []domain.Node {
	nodes := make([]domain.Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []domain.Edge {
	return append([]domain.Edge(nil), g.edges...)
}

// OutEdges returns the edges originating at the given node.
func (g *Graph) OutEdges(id string) []domain.Edge {
	return g.edgesAt(g.out[id])
}

// InEdges returns the edges terminating at the given node.
func (g *Graph) InEdges(id string) []domain.Edge {
	return g.edgesAt(g.in[id])
}

func (g *Graph) edgesAt(indices []int) []domain.Edge {
	if len(indices) == 0 {
		return nil
	}
	edges := make([]domain.Edge, 0, len(indices))
	for _, idx := range indices {
		edges = append(edges, g.edges[idx])
	}
	return edges
}

// IsAccount reports whether the node exists and is an account node.
func (g *Graph) IsAccount(id string) bool {
	node, ok := g.nodes[id]
	return ok && node.Type == domain.NodeTypeAccount
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.order) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int { return len(g.edges) }

// BuildGraph constructs the attributed multigraph from a validated snapshot:
// one node per account, one per distinct identifier value, one per distinct
// touchpoint ID. Every identifier or touchpoint shared by two or more
// accounts expands into symmetric shared_* edge pairs over all unordered
// account pairs in the group. Each transaction becomes a single directed
// money_flow edge. Construction is pure and, because groups are iterated in
// sorted order, deterministic for equivalent snapshots.
func BuildGraph(snap domain.Snapshot) *Graph {
	g := newGraph()

	for _, acc := range snap.Accounts {
		g.addNode(domain.Node{
			ID:          acc.ID,
			Type:        domain.NodeTypeAccount,
			AccountType: acc.Type,
			Holder:      acc.Holder,
			Ring:        acc.Ring,
		})
	}

	ipGroups := make(map[string][]string)
	deviceGroups := make(map[string][]string)
	identifierTypes := make(map[string]domain.IdentifierType)
	for _, assignment := range snap.Identifiers {
		if _, seen := identifierTypes[assignment.Value]; !seen {
			identifierTypes[assignment.Value] = assignment.Type
		}
		if assignment.Type.IsDevice() {
			deviceGroups[assignment.Value] = append(deviceGroups[assignment.Value], assignment.AccountID)
		} else {
			ipGroups[assignment.Value] = append(ipGroups[assignment.Value], assignment.AccountID)
		}
	}

	for _, value := range sortedKeys(identifierTypes) {
		g.addNode(domain.Node{
			ID:             value,
			Type:           domain.NodeTypeIdentifier,
			IdentifierType: identifierTypes[value],
		})
	}

	expandSharedGroups(g, ipGroups, domain.EdgeTypeSharedIP)
	expandSharedGroups(g, deviceGroups, domain.EdgeTypeSharedDevice)

	touchpointGroups := make(map[string][]string)
	for _, visit := range snap.Touchpoints {
		touchpointGroups[visit.TouchpointID] = append(touchpointGroups[visit.TouchpointID], visit.AccountID)
	}
	for _, id := range sortedKeys(touchpointGroups) {
		g.addNode(domain.Node{ID: id, Type: domain.NodeTypeTouchpoint})
	}
	expandSharedGroups(g, touchpointGroups, domain.EdgeTypeSharedTouchpoint)

	for _, tx := range snap.Transactions {
		g.addEdge(domain.Edge{
			Source:        tx.Sender,
			Target:        tx.Receiver,
			Type:          domain.EdgeTypeMoneyFlow,
			Amount:        tx.Amount,
			Timestamp:     tx.Timestamp,
			TransactionID: tx.ID,
		})
	}

	return g
}

// expandSharedGroups adds a symmetric edge pair for every unordered pair of
// distinct accounts co-occurring on the same shared value. The expansion is
// quadratic in group size on purpose: every member is linked to every other
// member, not chained.
func expandSharedGroups(g *Graph, groups map[string][]string, edgeType domain.EdgeType) {
	for _, key := range sortedKeys(groups) {
		members := dedupeSorted(groups[key])
		if len(members) < 2 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				g.addEdge(domain.Edge{Source: members[i], Target: members[j], Type: edgeType})
				g.addEdge(domain.Edge{Source: members[j], Target: members[i], Type: edgeType})
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
