package searcher

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avatarneil/knucklebones/game"
)

// ErrNotReady signals that an accelerated engine cannot serve yet. Callers
// treat it as an instruction to use the reference search, never as a
// user-visible failure.
var ErrNotReady = errors.New("accelerated engine not ready")

// Engine is the substitution seam for an accelerated move finder (a native
// or neural-weighted search). Implementations report readiness and may
// return ErrNotReady at any point.
type Engine interface {
	Ready() bool
	FindBestMove(gs game.GameState) (column int, ok bool, err error)
}

// Fallback prefers an accelerated engine and silently degrades to the
// reference expectimax search when the engine is absent, not ready, or
// failing. It never blocks waiting for the accelerated engine to come up.
type Fallback struct {
	Accelerated Engine
	Reference   *Expectimax
}

func (f Fallback) FindBestMove(gs game.GameState) (int, bool) {
	if f.Accelerated != nil && f.Accelerated.Ready() {
		column, ok, err := f.Accelerated.FindBestMove(gs)
		if err == nil {
			return column, ok
		}
		if !errors.Is(err, ErrNotReady) {
			log.Warn().Err(err).Msg("accelerated engine failed, using reference search")
		}
	}
	return f.Reference.FindBestMove(gs)
}
