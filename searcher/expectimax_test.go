package searcher

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avatarneil/knucklebones/game"
)

func placingState(grids [2]game.Grid, p game.Player, die game.DieValue) game.GameState {
	return game.GameState{
		Grids:         grids,
		CurrentPlayer: p,
		CurrentDie:    die,
		Phase:         game.Placing,
		Turn:          1,
	}
}

func requireLegal(t *testing.T, gs game.GameState, column int) {
	t.Helper()
	require.Contains(t, gs.LegalMoves(), column, "Returned column must be a legal move")
}

func TestFindBestMove(t *testing.T) {
	t.Run("refuses non-placing states", func(t *testing.T) {
		e := NewExpectimax(Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1})

		_, ok := e.FindBestMove(game.NewGameState())

		require.False(t, ok)
	})

	t.Run("reports no move on a full grid", func(t *testing.T) {
		grids := [2]game.Grid{}
		for col := 0; col < game.NumColumns; col++ {
			grids[0][col] = game.Column{1, 2, 3}
		}
		gs := placingState(grids, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1})

		_, ok := e.FindBestMove(gs)

		require.False(t, ok)
	})

	t.Run("plays the only legal move without searching", func(t *testing.T) {
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{1, 2, 3}
		grids[0][2] = game.Column{4, 5, 6}
		gs := placingState(grids, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 6, OffenseWeight: 1, DefenseWeight: 1})

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		require.Equal(t, 1, column)
		require.Zero(t, e.Metric().Nodes, "A forced move should not expand any nodes")
	})

	t.Run("zero depth plays the best quick evaluation", func(t *testing.T) {
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{5, 0, 0}
		gs := placingState(grids, game.Player1, 5)
		e := NewExpectimax(Config{SearchDepth: 0, OffenseWeight: 1, DefenseWeight: 1})

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		require.Equal(t, 0, column, "Stacking onto the 5 outscores an empty column")
	})

	t.Run("zero depth breaks ties toward the lowest column", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 0, OffenseWeight: 1, DefenseWeight: 1})

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		require.Equal(t, 0, column)
	})

	t.Run("random move probability short-circuits the search", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(
			Config{SearchDepth: 4, RandomMoveProb: 1, OffenseWeight: 1, DefenseWeight: 1},
			WithRand(rand.New(rand.NewSource(7))),
		)

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		requireLegal(t, gs, column)
		require.True(t, e.Metric().RandomMove)
		require.Zero(t, e.Metric().Nodes)
	})

	t.Run("always returns a legal move over a full game", func(t *testing.T) {
		cfg := Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1, Advanced: true}
		// One searcher per seat; a table must not serve two perspectives.
		seats := [2]*Expectimax{NewExpectimax(cfg), NewExpectimax(cfg)}
		rng := rand.New(rand.NewSource(11))
		gs := game.NewGameState()

		for turns := 0; gs.Phase != game.Ended; turns++ {
			require.Less(t, turns, 200, "Game should terminate")
			rolled, err := gs.RollExact(game.DieValue(rng.Intn(game.MaxDie) + 1))
			require.NoError(t, err)

			column, ok := seats[int(rolled.CurrentPlayer)-1].FindBestMove(rolled)
			require.True(t, ok)
			requireLegal(t, rolled, column)

			gs, _, err = rolled.Apply(column)
			require.NoError(t, err)
		}
		require.NotEqual(t, game.WinnerNone, gs.Winner)
	})

	t.Run("node budget bounds the search", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 6, OffenseWeight: 1, DefenseWeight: 1, NodeBudget: 10})

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		requireLegal(t, gs, column)
		require.LessOrEqual(t, e.Metric().Nodes, 10)
	})

	t.Run("adversarial depth-4 search finds the forced winning column", func(t *testing.T) {
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{6, 6, 2}
		grids[0][1] = game.Column{6, 6, 0}
		grids[0][2] = game.Column{5, 5, 0}
		grids[1][0] = game.Column{1, 1, 2}
		grids[1][1] = game.Column{1, 2, 1}
		grids[1][2] = game.Column{1, 2, 0}
		gs := placingState(grids, game.Player1, 6)
		e := NewExpectimax(Config{
			SearchDepth:   4,
			OffenseWeight: 1, DefenseWeight: 1,
			Advanced: true, Adversarial: true,
		})

		column, ok := e.FindBestMove(gs)

		require.True(t, ok)
		require.Equal(t, 2, column,
			"Locking the 5s keeps a decisive lead in every continuation; the 6 column triples away 24 points")
	})

	t.Run("adversarial opponent nodes take the worst reply", func(t *testing.T) {
		// Player 2 to place a 6: stacking it scores 30 for them, tripling
		// their own 6s wipes 24. The worst case for player 1 is the stack.
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{3, 0, 0}
		grids[1][0] = game.Column{6, 6, 0}
		gs := placingState(grids, game.Player2, 6)

		adversarial := NewExpectimax(Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1, Adversarial: true})
		adversarial.perspective = game.Player1
		worst := adversarial.search(gs, 1)
		require.Equal(t, -27.0, worst, "MIN should assume the 30-point stack, margin 3-30")

		modeled := NewExpectimax(Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1})
		modeled.perspective = game.Player1
		require.Greater(t, modeled.search(gs, 1), worst,
			"The fallible opponent model averages in the self-destructive replies")
	})

	t.Run("changing seats resets the table", func(t *testing.T) {
		e := NewExpectimax(Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1})
		_, ok := e.FindBestMove(placingState([2]game.Grid{}, game.Player1, 4))
		require.True(t, ok)
		require.Positive(t, e.Table().Len())

		// A sentinel entry; its key matches no reachable position.
		e.Table().Store(12345, 9, 1.0)
		_, ok = e.FindBestMove(placingState([2]game.Grid{}, game.Player2, 4))
		require.True(t, ok)
		_, found := e.Table().Lookup(12345, 9)
		require.False(t, found, "Values signed for one seat must not survive a seat change")

		e.Table().Store(54321, 9, 1.0)
		_, ok = e.FindBestMove(placingState([2]game.Grid{}, game.Player2, 4))
		require.True(t, ok)
		_, found = e.Table().Lookup(54321, 9)
		require.True(t, found, "The table persists while the seat stays the same")
	})

	t.Run("a shared table is reused across searches", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 3, OffenseWeight: 1, DefenseWeight: 1})

		first, ok := e.FindBestMove(gs)
		require.True(t, ok)
		require.Zero(t, e.Metric().CacheHits, "A cold table cannot hit")

		second, ok := e.FindBestMove(gs)
		require.True(t, ok)
		require.Equal(t, first, second)
		require.Positive(t, e.Metric().CacheHits, "Repeating the search should hit the table")
	})
}

func TestFindBestMoveProgressive(t *testing.T) {
	t.Run("matches the plain search when never cancelled", func(t *testing.T) {
		cfg := Config{SearchDepth: 3, OffenseWeight: 1, DefenseWeight: 1, Advanced: true}
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{3, 0, 0}
		grids[1][1] = game.Column{6, 6, 0}
		gs := placingState(grids, game.Player1, 3)

		plain := NewExpectimax(cfg)
		progressive := NewExpectimax(cfg)

		wantColumn, wantOK := plain.FindBestMove(gs)
		gotColumn, gotOK := progressive.FindBestMoveProgressive(context.Background(), gs)

		require.Equal(t, wantOK, gotOK)
		require.Equal(t, wantColumn, gotColumn)
		require.Equal(t, plain.Metric().Nodes, progressive.Metric().Nodes,
			"Uncancelled progressive search should expand the identical tree")
		require.False(t, progressive.Metric().Cancelled)
	})

	t.Run("cancellation degrades to a legal move", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 4, OffenseWeight: 1, DefenseWeight: 1, YieldEvery: 1})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		column, ok := e.FindBestMoveProgressive(ctx, gs)

		require.True(t, ok, "A cancelled search still answers")
		requireLegal(t, gs, column)
		require.True(t, e.Metric().Cancelled)
	})

	t.Run("a cancelled search leaves no truncated table entries", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)
		e := NewExpectimax(Config{SearchDepth: 4, OffenseWeight: 1, DefenseWeight: 1, YieldEvery: 1})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _ = e.FindBestMoveProgressive(ctx, gs)

		require.Zero(t, e.Table().Len(), "Aborted subtree values must not be cached")
	})
}

func TestOrderMoves(t *testing.T) {
	t.Run("best quick evaluation first", func(t *testing.T) {
		grids := [2]game.Grid{}
		grids[0][1] = game.Column{5, 0, 0}
		gs := placingState(grids, game.Player1, 5)

		ordered := orderMoves(gs, gs.LegalMoves(), 5, game.Player1)

		require.Equal(t, 1, ordered[0], "Stacking the pair should order first")
	})

	t.Run("ties keep the lowest column first", func(t *testing.T) {
		gs := placingState([2]game.Grid{}, game.Player1, 4)

		ordered := orderMoves(gs, gs.LegalMoves(), 4, game.Player1)

		require.Equal(t, []int{0, 1, 2}, ordered)
	})

	t.Run("a triple completion orders last", func(t *testing.T) {
		grids := [2]game.Grid{}
		grids[0][0] = game.Column{6, 6, 0}
		gs := placingState(grids, game.Player1, 6)

		ordered := orderMoves(gs, gs.LegalMoves(), 6, game.Player1)

		require.Equal(t, 0, ordered[len(ordered)-1],
			"Wiping the built-up pair should order behind the empty columns")
	})
}
