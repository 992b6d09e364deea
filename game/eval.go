package game

import "math"

// EvalWeights tunes the positional terms of Evaluate. With Advanced off the
// evaluation is just the raw score margin.
type EvalWeights struct {
	Offense  float64
	Defense  float64
	Advanced bool
}

var DefaultWeights = EvalWeights{Offense: 1, Defense: 1}

// Evaluate scores the position from p's perspective. The base term is p's
// grid score minus the opponent's. Advanced evaluation adds positional terms
// (built-up pairs, exposure to forced clears, locked columns, expected gain
// next turn), each scaled by the offense/defense weights and a game-progress
// factor that shifts weight from position early to raw score late.
func Evaluate(gs GameState, p Player, w EvalWeights) float64 {
	own := gs.PlayerGrid(p)
	other := gs.PlayerGrid(p.Opponent())
	margin := float64(own.Score() - other.Score())

	if gs.Phase == Ended {
		switch {
		case gs.Winner == WinnerDraw:
			return 0
		case gs.Winner == winnerFor(p):
			return WinValue + margin
		default:
			return -WinValue + margin
		}
	}

	if !w.Advanced {
		return margin
	}

	maxDice := float64(2 * NumColumns * ColumnSize)
	progress := float64(own.DiceCount()+other.DiceCount()) / maxDice
	positional := 1 - progress

	score := margin
	score += w.Offense * positional * (comboPotential(own) - comboPotential(other))
	score -= w.Defense * positional * (vulnerability(own) - vulnerability(other))
	score += w.Defense * positional * (columnControl(own) - columnControl(other))
	score += w.Offense * positional * (attackPotential(own) - attackPotential(other))
	return score
}

func winnerFor(p Player) Winner {
	if p == Player1 {
		return WinnerPlayer1
	}
	return WinnerPlayer2
}

// comboPotential rewards pairs with an open slot: multiplier value already
// built up, one placement away from being locked or lost.
func comboPotential(g Grid) float64 {
	total := 0.0
	for _, c := range g {
		if v, ok := openPair(c); ok {
			total += float64(v)
		}
	}
	return total
}

// vulnerability measures pair score exposed to a forced triple clear: the
// pair's worth discounted by the odds of rolling the matching value.
func vulnerability(g Grid) float64 {
	total := 0.0
	for _, c := range g {
		if v, ok := openPair(c); ok {
			total += float64(4*int(v)) / MaxDie
		}
	}
	return total
}

// columnControl counts score held in full columns, which no future placement
// can remove.
func columnControl(g Grid) float64 {
	total := 0.0
	for _, c := range g {
		if c.IsFull() {
			total += float64(c.Score())
		}
	}
	return total
}

// attackPotential is the expected best immediate score gain on the grid
// owner's next placement, averaged over the six equally likely die values.
func attackPotential(g Grid) float64 {
	total := 0.0
	for d := DieValue(1); d <= MaxDie; d++ {
		best := math.Inf(-1)
		for _, c := range g {
			if c.IsFull() {
				continue
			}
			if delta := placementDelta(c, d); delta > best {
				best = delta
			}
		}
		if !math.IsInf(best, -1) {
			total += best
		}
	}
	return total / MaxDie
}

// openPair reports a column holding exactly two equal dice and an empty slot.
func openPair(c Column) (DieValue, bool) {
	if c.IsFull() {
		return 0, false
	}
	if c[0] != 0 && c[0] == c[1] {
		return c[0], true
	}
	return 0, false
}

func placementDelta(c Column, die DieValue) float64 {
	slot := c.firstEmpty()
	if slot < 0 {
		return math.Inf(-1)
	}
	before := c.Score()
	c[slot] = die
	if c.isTriple() {
		return float64(-before)
	}
	return float64(c.Score() - before)
}

func countOf(c Column, die DieValue) int {
	count := 0
	for _, v := range c {
		if v == die {
			count++
		}
	}
	return count
}

// EvaluateMoveQuick is a cheap, non-recursive estimate of one placement's
// immediate effect: score delta, triple completion, and exposure change. It
// exists to order candidate moves before full search, not to replace
// Evaluate. Unplayable columns score negative infinity.
func EvaluateMoveQuick(gs GameState, col int, die DieValue, p Player) float64 {
	if col < 0 || col >= NumColumns {
		return math.Inf(-1)
	}
	column := gs.PlayerGrid(p)[col]
	slot := column.firstEmpty()
	if slot < 0 {
		return math.Inf(-1)
	}
	before := column.Score()
	column[slot] = die
	if column.isTriple() {
		// The whole column is wiped.
		return float64(-before)
	}
	score := float64(column.Score() - before)
	if countOf(column, die) == 2 {
		// New pair: one matching roll away from elimination.
		score -= float64(die) / 2
	}
	if slot == ColumnSize-1 {
		// Column locked in; its score can no longer be lost.
		score += float64(column.Score()) / 10
	}
	return score
}
