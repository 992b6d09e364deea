package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedState is returned by Unmarshal for input that does not decode
// to a valid game state. Malformed input is never silently coerced.
var ErrMalformedState = errors.New("malformed game state")

type stateJSON struct {
	Grids         [2]Grid    `json:"grids"`
	CurrentPlayer string     `json:"currentPlayer"`
	CurrentDie    int        `json:"currentDie"`
	Phase         string     `json:"phase"`
	Winner        string     `json:"winner"`
	TurnNumber    int        `json:"turnNumber"`
	MoveHistory   []moveJSON `json:"moveHistory"`
}

type moveJSON struct {
	Turn   int     `json:"turn"`
	Player string  `json:"player"`
	Die    int     `json:"die"`
	Column int     `json:"column"`
	Grids  [2]Grid `json:"grids"`
}

// Marshal encodes the state in the stable JSON schema shared with other
// frontends: grids, currentPlayer, currentDie, phase, winner, turnNumber,
// moveHistory. A currentDie of 0 means no die is held.
func Marshal(gs GameState) ([]byte, error) {
	out := stateJSON{
		Grids:         gs.Grids,
		CurrentPlayer: gs.CurrentPlayer.String(),
		CurrentDie:    int(gs.CurrentDie),
		Phase:         gs.Phase.String(),
		Winner:        gs.Winner.String(),
		TurnNumber:    gs.Turn,
		MoveHistory:   make([]moveJSON, len(gs.History)),
	}
	for i, rec := range gs.History {
		out.MoveHistory[i] = moveJSON{
			Turn:   rec.Turn,
			Player: rec.Player.String(),
			Die:    int(rec.Die),
			Column: rec.Column,
			Grids:  rec.Grids,
		}
	}
	return json.Marshal(out)
}

// Unmarshal decodes and validates a serialized state. It checks value ranges,
// grid shape, and phase consistency, so Marshal(Unmarshal(data)) round-trips
// and corrupt input fails loudly.
func Unmarshal(data []byte) (GameState, error) {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	player, err := parsePlayer(in.CurrentPlayer)
	if err != nil {
		return GameState{}, err
	}
	phase, err := parsePhase(in.Phase)
	if err != nil {
		return GameState{}, err
	}
	winner, err := parseWinner(in.Winner)
	if err != nil {
		return GameState{}, err
	}

	for gi := range in.Grids {
		if err := validateGrid(in.Grids[gi]); err != nil {
			return GameState{}, err
		}
	}
	if in.CurrentDie < 0 || in.CurrentDie > MaxDie {
		return GameState{}, fmt.Errorf("%w: currentDie %d", ErrMalformedState, in.CurrentDie)
	}
	if phase == Placing && in.CurrentDie == 0 {
		return GameState{}, fmt.Errorf("%w: placing phase without a die", ErrMalformedState)
	}
	if phase != Placing && in.CurrentDie != 0 {
		return GameState{}, fmt.Errorf("%w: die held outside placing phase", ErrMalformedState)
	}
	if (phase == Ended) != (winner != WinnerNone) {
		return GameState{}, fmt.Errorf("%w: winner/phase mismatch", ErrMalformedState)
	}
	if in.TurnNumber < 1 {
		return GameState{}, fmt.Errorf("%w: turnNumber %d", ErrMalformedState, in.TurnNumber)
	}

	gs := GameState{
		Grids:         in.Grids,
		CurrentPlayer: player,
		CurrentDie:    DieValue(in.CurrentDie),
		Phase:         phase,
		Winner:        winner,
		Turn:          in.TurnNumber,
	}
	if len(in.MoveHistory) > 0 {
		gs.History = make([]MoveRecord, len(in.MoveHistory))
	}
	for i, rec := range in.MoveHistory {
		recPlayer, err := parsePlayer(rec.Player)
		if err != nil {
			return GameState{}, err
		}
		if rec.Die < 1 || rec.Die > MaxDie {
			return GameState{}, fmt.Errorf("%w: history die %d", ErrMalformedState, rec.Die)
		}
		if rec.Column < 0 || rec.Column >= NumColumns {
			return GameState{}, fmt.Errorf("%w: history column %d", ErrMalformedState, rec.Column)
		}
		if rec.Turn < 1 {
			return GameState{}, fmt.Errorf("%w: history turn %d", ErrMalformedState, rec.Turn)
		}
		gs.History[i] = MoveRecord{
			Turn:   rec.Turn,
			Player: recPlayer,
			Die:    DieValue(rec.Die),
			Column: rec.Column,
			Grids:  rec.Grids,
		}
	}
	return gs, nil
}

func validateGrid(g Grid) error {
	for _, c := range g {
		for i, v := range c {
			if v > MaxDie {
				return fmt.Errorf("%w: die value %d", ErrMalformedState, v)
			}
			// Slots fill front to back; a die above an empty slot is corrupt.
			if v != 0 && i > 0 && c[i-1] == 0 {
				return fmt.Errorf("%w: floating die in column", ErrMalformedState)
			}
		}
	}
	return nil
}

func parsePlayer(s string) (Player, error) {
	switch s {
	case Player1.String():
		return Player1, nil
	case Player2.String():
		return Player2, nil
	default:
		return NoPlayer, fmt.Errorf("%w: player %q", ErrMalformedState, s)
	}
}

func parsePhase(s string) (Phase, error) {
	switch s {
	case Rolling.String():
		return Rolling, nil
	case Placing.String():
		return Placing, nil
	case Ended.String():
		return Ended, nil
	default:
		return 0, fmt.Errorf("%w: phase %q", ErrMalformedState, s)
	}
}

func parseWinner(s string) (Winner, error) {
	switch s {
	case "none":
		return WinnerNone, nil
	case Player1.String():
		return WinnerPlayer1, nil
	case Player2.String():
		return WinnerPlayer2, nil
	case "draw":
		return WinnerDraw, nil
	default:
		return WinnerNone, fmt.Errorf("%w: winner %q", ErrMalformedState, s)
	}
}
