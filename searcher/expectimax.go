package searcher

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/avatarneil/knucklebones/experiments/metrics"
	"github.com/avatarneil/knucklebones/game"
)

const (
	DefaultNodeBudget = 500_000
	DefaultYieldEvery = 1024
)

// Expectimax searches the game tree with MAX, MIN, and CHANCE nodes: the
// searching player maximizes, the opponent minimizes (or follows a weighted
// opponent model on non-adversarial tiers), and a roll averages all six die
// outcomes. Depth counts placements; transposition lookups, best-first move
// ordering, certain-win cutoffs, and a node budget keep it bounded.
//
// An Expectimax is not safe for concurrent use. Run one instance per
// goroutine, each with its own Table.
type Expectimax struct {
	cfg   Config
	table *Table
	rng   *rand.Rand

	perspective     game.Player
	lastPerspective game.Player
	ctx             context.Context
	progressive     bool
	nodes           int
	deadline        time.Time
	sinceYield      int
	lastYield       time.Time
	aborted         bool
	metric          metrics.SearchMetric
}

type Option func(*Expectimax)

// WithTable installs a shared transposition table, e.g. to keep results
// across moves of the same game.
func WithTable(t *Table) Option {
	return func(e *Expectimax) {
		if t != nil {
			e.table = t
		}
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Expectimax) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func NewExpectimax(cfg Config, options ...Option) *Expectimax {
	if cfg.NodeBudget <= 0 {
		cfg.NodeBudget = DefaultNodeBudget
	}
	if cfg.YieldEvery <= 0 {
		cfg.YieldEvery = DefaultYieldEvery
	}
	e := &Expectimax{
		cfg:   cfg,
		table: NewTable(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Table exposes the searcher's transposition table.
func (e *Expectimax) Table() *Table {
	return e.table
}

// Metric reports statistics from the most recent search.
func (e *Expectimax) Metric() metrics.SearchMetric {
	return e.metric
}

// FindBestMove returns the best column for a placing state, or false when no
// legal move exists. A single legal move is returned without searching, and a
// zero search depth plays the best quick evaluation outright.
func (e *Expectimax) FindBestMove(gs game.GameState) (int, bool) {
	return e.findBestMove(context.Background(), gs, false)
}

// FindBestMoveProgressive is FindBestMove with cooperative execution: at
// chunk boundaries the search yields to the scheduler and observes ctx, and
// on cancellation it unwinds with static evaluations instead of completing
// the tree. Uncancelled, it returns exactly what FindBestMove would.
func (e *Expectimax) FindBestMoveProgressive(ctx context.Context, gs game.GameState) (int, bool) {
	return e.findBestMove(ctx, gs, true)
}

func (e *Expectimax) findBestMove(ctx context.Context, gs game.GameState, progressive bool) (int, bool) {
	start := time.Now()
	hitsBefore, lookupsBefore := e.table.Stats()
	e.metric = metrics.SearchMetric{Depth: e.cfg.SearchDepth}
	e.nodes = 0
	defer func() {
		hits, lookups := e.table.Stats()
		e.metric.Nodes = e.nodes
		e.metric.CacheHits = hits - hitsBefore
		e.metric.CacheLookups = lookups - lookupsBefore
		e.metric.Duration = time.Since(start)
	}()

	if gs.Phase != game.Placing {
		return -1, false
	}
	moves := gs.LegalMoves()
	if len(moves) == 0 {
		return -1, false
	}
	if len(moves) == 1 {
		return moves[0], true
	}

	// Weak tiers sometimes just play a random legal column.
	if e.cfg.RandomMoveProb > 0 && e.rng.Float64() < e.cfg.RandomMoveProb {
		e.metric.RandomMove = true
		return moves[e.rng.Intn(len(moves))], true
	}

	ordered := orderMoves(gs, moves, gs.CurrentDie, gs.CurrentPlayer)
	if e.cfg.SearchDepth <= 0 {
		return ordered[0], true
	}

	e.perspective = gs.CurrentPlayer
	// Stored values are signed by the searching player, which the position
	// key does not encode. A seat change invalidates the whole table.
	if e.lastPerspective != game.NoPlayer && e.lastPerspective != gs.CurrentPlayer {
		e.table.Clear()
	}
	e.lastPerspective = gs.CurrentPlayer
	e.ctx = ctx
	e.progressive = progressive
	e.aborted = false
	e.sinceYield = 0
	e.lastYield = start
	e.deadline = time.Time{}
	if e.cfg.TimeBudget > 0 {
		e.deadline = start.Add(e.cfg.TimeBudget)
	}
	if deadline, ok := ctx.Deadline(); ok && (e.deadline.IsZero() || deadline.Before(e.deadline)) {
		e.deadline = deadline
	}

	best := ordered[0]
	bestValue := math.Inf(-1)
	for _, col := range ordered {
		child, _, err := gs.Apply(col)
		if err != nil {
			continue
		}
		value := e.search(child, e.cfg.SearchDepth-1)
		if value > bestValue {
			bestValue = value
			best = col
		}
		if bestValue >= game.WinValue {
			break
		}
	}
	return best, true
}

func (e *Expectimax) search(gs game.GameState, depth int) float64 {
	if e.stopped() {
		return e.evaluate(gs)
	}
	e.nodes++
	if gs.Phase == game.Ended || depth <= 0 {
		return e.evaluate(gs)
	}

	if gs.Phase == game.Rolling {
		// Chance node: all six die values are equally likely.
		sum := 0.0
		for d := game.DieValue(1); d <= game.MaxDie; d++ {
			child, err := gs.RollExact(d)
			if err != nil {
				return e.evaluate(gs)
			}
			sum += e.search(child, depth)
		}
		return sum / game.MaxDie
	}

	key := gs.Key()
	if value, ok := e.table.Lookup(key, depth); ok {
		return value
	}

	moves := gs.LegalMoves()
	if len(moves) == 0 {
		return e.evaluate(gs)
	}
	ordered := orderMoves(gs, moves, gs.CurrentDie, gs.CurrentPlayer)

	var value float64
	switch {
	case gs.CurrentPlayer == e.perspective:
		value = math.Inf(-1)
		for _, col := range ordered {
			child, _, err := gs.Apply(col)
			if err != nil {
				continue
			}
			if v := e.search(child, depth-1); v > value {
				value = v
			}
			if value >= game.WinValue {
				break
			}
		}
	case e.cfg.Adversarial:
		value = math.Inf(1)
		for _, col := range ordered {
			child, _, err := gs.Apply(col)
			if err != nil {
				continue
			}
			if v := e.search(child, depth-1); v < value {
				value = v
			}
			if value <= -game.WinValue {
				break
			}
		}
	default:
		value = e.modeledReply(gs, ordered, depth)
	}

	// An aborted subtree carries truncated values; keep those out of the table.
	if !e.aborted {
		e.table.Store(key, depth, value)
	}
	return value
}

// modeledReply values an opponent node on non-adversarial tiers: instead of
// worst-case minimization, replies are averaged weighted by the opponent's
// own quick preference for them.
func (e *Expectimax) modeledReply(gs game.GameState, ordered []int, depth int) float64 {
	quick := make([]float64, len(ordered))
	lowest := math.Inf(1)
	for i, col := range ordered {
		quick[i] = game.EvaluateMoveQuick(gs, col, gs.CurrentDie, gs.CurrentPlayer)
		if quick[i] < lowest {
			lowest = quick[i]
		}
	}
	weighted, totalWeight := 0.0, 0.0
	for i, col := range ordered {
		child, _, err := gs.Apply(col)
		if err != nil {
			continue
		}
		weight := quick[i] - lowest + 1
		weighted += weight * e.search(child, depth-1)
		totalWeight += weight
	}
	if totalWeight == 0 {
		return e.evaluate(gs)
	}
	return weighted / totalWeight
}

func (e *Expectimax) evaluate(gs game.GameState) float64 {
	return game.Evaluate(gs, e.perspective, e.cfg.evalWeights())
}

// stopped checks the abort conditions at node entry. Time and cancellation
// are only inspected at chunk boundaries to keep the per-node cost flat; the
// progressive form additionally hands control back to the scheduler there.
func (e *Expectimax) stopped() bool {
	if e.aborted {
		return true
	}
	if e.nodes >= e.cfg.NodeBudget {
		e.aborted = true
		return true
	}
	e.sinceYield++
	boundary := e.sinceYield >= e.cfg.YieldEvery
	if !boundary && e.cfg.YieldInterval > 0 && e.sinceYield%256 == 0 {
		boundary = time.Since(e.lastYield) >= e.cfg.YieldInterval
	}
	if !boundary {
		return false
	}
	e.sinceYield = 0
	now := time.Now()
	e.lastYield = now
	if !e.deadline.IsZero() && now.After(e.deadline) {
		e.aborted = true
		return true
	}
	if e.progressive {
		if e.ctx.Err() != nil {
			e.aborted = true
			e.metric.Cancelled = true
			return true
		}
		runtime.Gosched()
	}
	return false
}

// orderMoves sorts candidate columns by quick evaluation, best first, keeping
// the lowest column index on ties.
func orderMoves(gs game.GameState, moves []int, die game.DieValue, p game.Player) []int {
	ordered := make([]int, len(moves))
	copy(ordered, moves)
	var scores [game.NumColumns]float64
	for _, col := range moves {
		scores[col] = game.EvaluateMoveQuick(gs, col, die, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return scores[ordered[i]] > scores[ordered[j]]
	})
	return ordered
}
