package engine

import (
	"fmt"

	"github.com/meghna/ringsight/internal/domain"
)

// Flag weights. An account's own score is always the exact sum of the
// weights of its fired flags; each flag fires at most once no matter how
// many edges justify it.
const (
	WeightSharedDevice     = 30
	WeightSharedIP         = 25
	WeightTransactionLoop  = 40
	WeightMoneyReceived    = 20
	WeightMoneySent        = 20
	WeightSharedTouchpoint = 15
	WeightHighVelocity     = 20
)

// highVelocityThreshold is the outgoing transaction count at which an
// account counts as a high-velocity sender. Absolute count, not rate.
const highVelocityThreshold = 3

// AccountFlags is the own-score verdict for one account before
// contamination is applied.
type AccountFlags struct {
	OwnScore int
	Flags    []domain.Flag
	InLoop   bool
}

// ScoreFlags computes every account's own score from the edges incident to
// it plus the loop membership computed by DetectLoops. Flags are evaluated
// in a fixed order so reported flag lists are stable.
func ScoreFlags(g *Graph, loops LoopDetection) map[string]AccountFlags {
	results := make(map[string]AccountFlags)
	for _, node := range g.Nodes() {
		if node.Type != domain.NodeTypeAccount {
			continue
		}
		results[node.ID] = scoreAccount(g, node.ID, loops)
	}
	return results
}

func scoreAccount(g *Graph, accountID string, loops LoopDetection) AccountFlags {
	var sharedIP, sharedDevice, sharedTouchpoint int
	var received, sent int

	for _, edge := range g.OutEdges(accountID) {
		switch edge.Type {
		case domain.EdgeTypeSharedIP:
			sharedIP++
		case domain.EdgeTypeSharedDevice:
			sharedDevice++
		case domain.EdgeTypeSharedTouchpoint:
			sharedTouchpoint++
		case domain.EdgeTypeMoneyFlow:
			sent++
		}
	}
	for _, edge := range g.InEdges(accountID) {
		switch edge.Type {
		case domain.EdgeTypeSharedIP:
			sharedIP++
		case domain.EdgeTypeSharedDevice:
			sharedDevice++
		case domain.EdgeTypeSharedTouchpoint:
			sharedTouchpoint++
		case domain.EdgeTypeMoneyFlow:
			received++
		}
	}

	result := AccountFlags{InLoop: loops.InLoop(accountID)}
	fire := func(name string, weight int, description string) {
		result.OwnScore += weight
		result.Flags = append(result.Flags, domain.Flag{
			Name:        name,
			Weight:      weight,
			Description: description,
		})
	}

	if sharedIP > 0 {
		fire("Shared IP Address", WeightSharedIP, fmt.Sprintf("%d shared_ip edge(s)", sharedIP))
	}
	if sharedDevice > 0 {
		fire("Shared Device / IMEI", WeightSharedDevice, fmt.Sprintf("%d shared_device edge(s)", sharedDevice))
	}
	if sharedTouchpoint > 0 {
		fire("Shared ATM / Portal", WeightSharedTouchpoint, fmt.Sprintf("%d shared_touchpoint edge(s)", sharedTouchpoint))
	}
	if received > 0 {
		fire("Received money", WeightMoneyReceived, fmt.Sprintf("%d txn", received))
	}
	if sent > 0 {
		fire("Sent money", WeightMoneySent, fmt.Sprintf("%d txn", sent))
	}
	if result.InLoop {
		fire("Transaction Loop Detected", WeightTransactionLoop, "member of a 3+ account money-flow cycle")
	}
	if sent >= highVelocityThreshold {
		fire("High Velocity Sending", WeightHighVelocity, fmt.Sprintf("%d outgoing txn", sent))
	}

	return result
}
