package game

import (
	"errors"
	"fmt"
	"math/rand"
)

// Board dimensions and die range. The position encoding packs 3 bits per
// slot, so MaxDie must stay below 8 (see Key).
const (
	NumColumns = 3
	ColumnSize = 3
	MaxDie     = 6
)

// MaxGridScore is the largest score a single grid could theoretically hold:
// three columns of three sixes, before triple elimination resolves. Search
// cutoffs are derived from this bound rather than hard-coded.
const MaxGridScore = NumColumns * MaxDie * ColumnSize * ColumnSize

// WinValue dominates every heuristic term so that terminal outcomes always
// rank above non-terminal evaluations.
const WinValue = 10 * MaxGridScore

// DieValue is a rolled die face in [1,6]. Zero means empty/no die.
type DieValue uint8

type Player uint8

const (
	NoPlayer Player = iota
	Player1
	Player2
)

func (p Player) String() string {
	switch p {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "none"
	}
}

func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Phase is the per-game state machine: a die is rolled, then placed, until
// one grid fills up.
type Phase uint8

const (
	Rolling Phase = iota
	Placing
	Ended
)

func (ph Phase) String() string {
	switch ph {
	case Rolling:
		return "rolling"
	case Placing:
		return "placing"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

type Winner uint8

const (
	WinnerNone Winner = iota
	WinnerPlayer1
	WinnerPlayer2
	WinnerDraw
)

func (w Winner) String() string {
	switch w {
	case WinnerPlayer1:
		return Player1.String()
	case WinnerPlayer2:
		return Player2.String()
	case WinnerDraw:
		return "draw"
	default:
		return "none"
	}
}

// Column holds up to three dice. Slots fill front to back and never reorder;
// the only way dice leave a column is a full clear on a triple match.
type Column [ColumnSize]DieValue

// Grid is one player's board of three columns.
type Grid [NumColumns]Column

// Removal reports dice cleared by a triple elimination, as a side-channel
// result of Apply rather than a state field.
type Removal struct {
	Value  DieValue
	Count  int
	Column int
}

// MoveRecord is one applied placement. Records are append-only and carry a
// snapshot of both grids after the move resolved, for replay and analysis.
type MoveRecord struct {
	Turn   int
	Player Player
	Die    DieValue
	Column int
	Grids  [2]Grid
}

// GameState is an immutable value: every mutator returns a new state and
// never aliases grid storage with its predecessor. Grids and columns are
// fixed-size arrays, so plain assignment copies them; History is cloned on
// append.
type GameState struct {
	Grids         [2]Grid
	CurrentPlayer Player
	CurrentDie    DieValue
	Phase         Phase
	Winner        Winner
	Turn          int
	History       []MoveRecord
}

var (
	ErrWrongPhase    = errors.New("operation not allowed in current phase")
	ErrInvalidColumn = errors.New("column index out of range")
	ErrColumnFull    = errors.New("column is full")
	ErrInvalidDie    = errors.New("die value out of range")
)

// NewGameState returns a fresh game: empty grids, player 1 to roll, turn 1.
func NewGameState() GameState {
	return GameState{
		CurrentPlayer: Player1,
		Phase:         Rolling,
		Turn:          1,
	}
}

func gridIndex(p Player) int {
	return int(p) - 1
}

func (c Column) firstEmpty() int {
	for i, v := range c {
		if v == 0 {
			return i
		}
	}
	return -1
}

func (c Column) IsFull() bool {
	return c[ColumnSize-1] != 0
}

func (c Column) isTriple() bool {
	return c[0] != 0 && c[0] == c[1] && c[1] == c[2]
}

// Score tallies v*count(v)^2 over the distinct die values in the column:
// a lone 3 scores 3, two 2s score 8, three 5s score 45.
func (c Column) Score() int {
	var counts [MaxDie + 1]int
	for _, v := range c {
		counts[v]++
	}
	score := 0
	for v := 1; v <= MaxDie; v++ {
		score += v * counts[v] * counts[v]
	}
	return score
}

func (g Grid) Score() int {
	total := 0
	for _, c := range g {
		total += c.Score()
	}
	return total
}

func (g Grid) IsFull() bool {
	for _, c := range g {
		if !c.IsFull() {
			return false
		}
	}
	return true
}

// DiceCount returns the number of occupied slots in the grid.
func (g Grid) DiceCount() int {
	count := 0
	for _, c := range g {
		for _, v := range c {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

// PlayerGrid returns p's grid.
func (gs GameState) PlayerGrid(p Player) Grid {
	return gs.Grids[gridIndex(p)]
}

// Roll rolls a die for the current player and moves the game to the placing
// phase. Callers that generate their own die values (replay, an authoritative
// server) should use RollExact instead.
func (gs GameState) Roll(rng *rand.Rand) (GameState, error) {
	var v DieValue
	if rng != nil {
		v = DieValue(rng.Intn(MaxDie) + 1)
	} else {
		v = DieValue(rand.Intn(MaxDie) + 1)
	}
	return gs.RollExact(v)
}

// RollExact injects a caller-generated die value, so the same sequence of
// calls always produces the same states.
func (gs GameState) RollExact(v DieValue) (GameState, error) {
	if gs.Phase != Rolling {
		return GameState{}, fmt.Errorf("%w: cannot roll in %s phase", ErrWrongPhase, gs.Phase)
	}
	if v < 1 || v > MaxDie {
		return GameState{}, fmt.Errorf("%w: %d", ErrInvalidDie, v)
	}
	next := gs
	next.CurrentDie = v
	next.Phase = Placing
	return next, nil
}

// LegalMoves returns the columns the current player may place into: every
// non-full column of their grid. Empty only when that grid is full.
func (gs GameState) LegalMoves() []int {
	if gs.Phase == Ended {
		return nil
	}
	grid := gs.Grids[gridIndex(gs.CurrentPlayer)]
	moves := make([]int, 0, NumColumns)
	for col := 0; col < NumColumns; col++ {
		if !grid[col].IsFull() {
			moves = append(moves, col)
		}
	}
	return moves
}

// Apply places the current die into the first empty slot of col. A column
// that ends up with three equal values is cleared immediately and the removed
// dice are reported alongside the new state. When the mover's grid fills up
// the game ends and the winner is whoever holds the higher grid score.
func (gs GameState) Apply(col int) (GameState, *Removal, error) {
	if gs.Phase != Placing {
		return GameState{}, nil, fmt.Errorf("%w: cannot place in %s phase", ErrWrongPhase, gs.Phase)
	}
	if col < 0 || col >= NumColumns {
		return GameState{}, nil, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	gi := gridIndex(gs.CurrentPlayer)
	slot := gs.Grids[gi][col].firstEmpty()
	if slot < 0 {
		return GameState{}, nil, fmt.Errorf("%w: column %d", ErrColumnFull, col)
	}

	next := gs
	next.Grids[gi][col][slot] = gs.CurrentDie

	var removal *Removal
	if next.Grids[gi][col].isTriple() {
		removal = &Removal{Value: gs.CurrentDie, Count: ColumnSize, Column: col}
		next.Grids[gi][col] = Column{}
	}

	// Clone-on-append keeps sibling states from sharing history storage.
	history := make([]MoveRecord, len(gs.History), len(gs.History)+1)
	copy(history, gs.History)
	next.History = append(history, MoveRecord{
		Turn:   gs.Turn,
		Player: gs.CurrentPlayer,
		Die:    gs.CurrentDie,
		Column: col,
		Grids:  next.Grids,
	})

	next.CurrentDie = 0
	if next.Grids[gi].IsFull() {
		next.Phase = Ended
		next.Winner = decideWinner(next.Grids[0].Score(), next.Grids[1].Score())
	} else {
		next.CurrentPlayer = gs.CurrentPlayer.Opponent()
		next.Phase = Rolling
		next.Turn = gs.Turn + 1
	}
	return next, removal, nil
}

func decideWinner(score1, score2 int) Winner {
	switch {
	case score1 > score2:
		return WinnerPlayer1
	case score2 > score1:
		return WinnerPlayer2
	default:
		return WinnerDraw
	}
}

// Key packs the position into a fixed-width integer: 3 bits per slot over
// both grids (54 bits), 3 bits for the current die, and 1 bit for the player
// to move. Equal keys mean equal positions, so the encoding doubles as the
// transposition key without any allocation.
func (gs GameState) Key() uint64 {
	var key uint64
	for _, grid := range gs.Grids {
		for _, column := range grid {
			for _, v := range column {
				key = key<<3 | uint64(v)
			}
		}
	}
	key = key<<3 | uint64(gs.CurrentDie)
	key = key << 1
	if gs.CurrentPlayer == Player2 {
		key |= 1
	}
	return key
}
