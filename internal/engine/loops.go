package engine

import (
	"sort"
	"time"

	"github.com/meghna/ringsight/internal/domain"
)

// minLoopLength is the smallest cycle treated as a laundering loop. A
// two-party back-and-forth (A→B, B→A) is common legitimate behaviour
// (refunds, repayments) and is captured by the independent sent/received
// flags instead.
const minLoopLength = 3

// LoopDetection is the outcome of money-flow cycle enumeration.
type LoopDetection struct {
	// Cycles holds each detected simple cycle of minLoopLength or more
	// distinct accounts, rooted at its lexicographically smallest member.
	Cycles [][]string
	// Members maps every account participating in at least one cycle.
	Members map[string]bool
	// Truncated is set when the cycle budget or deadline was exhausted
	// before enumeration completed. Loop membership is then a lower bound,
	// a degraded result rather than an error.
	Truncated bool
}

// InLoop reports loop membership for an account.
func (d LoopDetection) InLoop(accountID string) bool {
	return d.Members[accountID]
}

type loopBudget struct {
	maxCycles int
	deadline  time.Time
	steps     int
}

func (b *loopBudget) exhausted(found int) bool {
	if b.maxCycles > 0 && found >= b.maxCycles {
		return true
	}
	// Checking the clock on every DFS step is wasteful; sample it.
	b.steps++
	if !b.deadline.IsZero() && b.steps%256 == 0 && time.Now().After(b.deadline) {
		return true
	}
	return false
}

// DetectLoops enumerates simple directed cycles in the account-only
// money-flow subgraph and marks every account on a cycle of three or more
// distinct nodes. Identifier and touchpoint nodes, and all shared_* edges,
// are excluded from this subgraph.
//
// Enumeration is worst-case exponential, so it runs under an explicit
// budget: at most maxCycles recorded cycles and an optional wall deadline.
// Each cycle is discovered exactly once by rooting the search at the
// cycle's smallest account in sort order and only descending to accounts
// ranked at or above the root.
func DetectLoops(g *Graph, maxCycles int, deadline time.Time) LoopDetection {
	succ := make(map[string]map[string]struct{})
	for _, edge := range g.Edges() {
		if edge.Type != domain.EdgeTypeMoneyFlow {
			continue
		}
		if !g.IsAccount(edge.Source) || !g.IsAccount(edge.Target) {
			continue
		}
		if succ[edge.Source] == nil {
			succ[edge.Source] = make(map[string]struct{})
		}
		succ[edge.Source][edge.Target] = struct{}{}
	}

	accounts := sortedKeys(succ)
	rank := make(map[string]int, len(accounts))
	for i, id := range accounts {
		rank[id] = i
	}
	adjacency := make(map[string][]string, len(succ))
	for id, targets := range succ {
		adjacency[id] = sortedKeys(targets)
	}

	detection := LoopDetection{Members: make(map[string]bool)}
	budget := &loopBudget{maxCycles: maxCycles, deadline: deadline}

	for _, root := range accounts {
		if detection.Truncated {
			break
		}
		path := []string{root}
		onPath := map[string]bool{root: true}
		dfsCycles(adjacency, rank, root, path, onPath, budget, &detection)
	}

	sortCycles(detection.Cycles)
	return detection
}

func dfsCycles(
	adjacency map[string][]string,
	rank map[string]int,
	root string,
	path []string,
	onPath map[string]bool,
	budget *loopBudget,
	detection *LoopDetection,
) {
	current := path[len(path)-1]
	for _, next := range adjacency[current] {
		if detection.Truncated {
			return
		}
		if budget.exhausted(len(detection.Cycles)) {
			detection.Truncated = true
			return
		}
		if next == root {
			if len(path) >= minLoopLength {
				cycle := append([]string(nil), path...)
				detection.Cycles = append(detection.Cycles, cycle)
				for _, member := range cycle {
					detection.Members[member] = true
				}
			}
			continue
		}
		// Cycles are rooted at their smallest member; never descend below it.
		if rank[next] < rank[root] || onPath[next] {
			continue
		}
		onPath[next] = true
		dfsCycles(adjacency, rank, root, append(path, next), onPath, budget, detection)
		onPath[next] = false
	}
}

// sortCycles orders detected cycles for deterministic reporting.
func sortCycles(cycles [][]string) {
	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
