package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarneil/knucklebones/game"
)

func TestOffloadFindBestMove(t *testing.T) {
	cfg := Config{SearchDepth: 2, OffenseWeight: 1, DefenseWeight: 1}

	t.Run("agrees with a direct search", func(t *testing.T) {
		o := NewOffload(cfg)
		defer o.Close()
		grids := [2]game.Grid{}
		grids[0][1] = game.Column{4, 0, 0}
		gs := placingState(grids, game.Player1, 4)

		wantColumn, wantOK := NewExpectimax(cfg).FindBestMove(gs)
		gotColumn, gotOK := o.FindBestMove(gs)

		require.Equal(t, wantOK, gotOK)
		require.Equal(t, wantColumn, gotColumn)
	})

	t.Run("busy worker falls back to the inline search", func(t *testing.T) {
		// No worker goroutine: the unbuffered request channel always refuses.
		o := &Offload{
			requests:  make(chan searchRequest),
			responses: make(chan searchResponse, 1),
			inline:    NewExpectimax(cfg),
			timeout:   time.Second,
		}
		gs := placingState([2]game.Grid{}, game.Player1, 4)

		column, ok := o.FindBestMove(gs)

		require.True(t, ok)
		requireLegal(t, gs, column)
	})

	t.Run("timeout falls back to the inline search", func(t *testing.T) {
		// The buffered request channel accepts the request, but nothing serves it.
		o := &Offload{
			requests:  make(chan searchRequest, 1),
			responses: make(chan searchResponse, 1),
			inline:    NewExpectimax(cfg),
			timeout:   10 * time.Millisecond,
		}
		gs := placingState([2]game.Grid{}, game.Player1, 4)

		start := time.Now()
		column, ok := o.FindBestMove(gs)

		require.True(t, ok)
		requireLegal(t, gs, column)
		require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("stale replies are skipped by id", func(t *testing.T) {
		o := &Offload{
			requests:  make(chan searchRequest, 1),
			responses: make(chan searchResponse, 2),
			inline:    NewExpectimax(cfg),
			timeout:   time.Second,
		}
		// A leftover reply from a timed-out request, then the real one. The
		// first caller-generated id is 1.
		o.responses <- searchResponse{id: 99, column: 0, ok: true}
		o.responses <- searchResponse{id: 1, column: 2, ok: true}
		gs := placingState([2]game.Grid{}, game.Player1, 4)

		column, ok := o.FindBestMove(gs)

		require.True(t, ok)
		require.Equal(t, 2, column, "The stale reply must not be returned")
	})

	t.Run("keeps answering after Close", func(t *testing.T) {
		o := NewOffload(cfg)
		o.Close()
		gs := placingState([2]game.Grid{}, game.Player1, 4)

		column, ok := o.FindBestMove(gs)

		require.True(t, ok)
		requireLegal(t, gs, column)
	})

	t.Run("option overrides the timeout", func(t *testing.T) {
		o := NewOffload(cfg, WithOffloadTimeout(time.Minute))
		defer o.Close()

		require.Equal(t, time.Minute, o.timeout)
	})
}
