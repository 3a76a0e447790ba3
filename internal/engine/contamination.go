package engine

import "math"

// ContaminationWeight damps how strongly an account's direct neighbours
// bleed into its final score.
const ContaminationWeight = 0.30

// Contaminate computes each account's contamination: the damped average of
// its direct account neighbours' own scores. Neighbours are the union of
// successors and predecessors over edges of any type, restricted to
// account nodes; identifier and touchpoint nodes never count. This is a
// single fixed-point pass over pre-propagation own scores, never an
// iteration over final scores, so there is no feedback between accounts.
func Contaminate(g *Graph, own map[string]AccountFlags) map[string]float64 {
	contamination := make(map[string]float64, len(own))
	for accountID := range own {
		neighbours := accountNeighbours(g, accountID)
		if len(neighbours) == 0 {
			contamination[accountID] = 0.0
			continue
		}
		sum := 0
		for _, neighbour := range neighbours {
			sum += own[neighbour].OwnScore
		}
		contamination[accountID] = ContaminationWeight * (float64(sum) / float64(len(neighbours)))
	}
	return contamination
}

// FinalScore blends an account's own score with its contamination, rounded
// to one decimal place.
func FinalScore(ownScore int, contamination float64) float64 {
	return math.Round((float64(ownScore)+contamination)*10) / 10
}

func accountNeighbours(g *Graph, accountID string) []string {
	seen := make(map[string]struct{})
	for _, edge := range g.OutEdges(accountID) {
		if g.IsAccount(edge.Target) {
			seen[edge.Target] = struct{}{}
		}
	}
	for _, edge := range g.InEdges(accountID) {
		if g.IsAccount(edge.Source) {
			seen[edge.Source] = struct{}{}
		}
	}
	delete(seen, accountID)
	return sortedKeys(seen)
}
