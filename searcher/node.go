package searcher

import (
	"math"

	"github.com/avatarneil/knucklebones/game"
)

// node is one vertex of an analysis tree. Nodes are owned exclusively by
// their parent; the root is owned by the Analyze call that built it.
type node struct {
	parent   *node
	column   int         // move that led here, -1 at the root
	player   game.Player // player who made that move
	children []*node
	untried  []int
	visits   int
	total    float64
}

// selectChild picks the child maximizing UCB1 over mean value and visit
// count. Unvisited children score infinite and are taken first.
func (n *node) selectChild(cSquared float64) *node {
	normalizer := cSquared * math.Log(float64(n.visits))
	var best *node
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		score := ucb1(child.total, child.visits, normalizer)
		if score == math.Inf(1) {
			return child
		}
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}
