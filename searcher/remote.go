package searcher

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avatarneil/knucklebones/game"
)

// DefaultOffloadTimeout is how long a caller waits for the worker before
// giving up and searching inline.
const DefaultOffloadTimeout = 30 * time.Second

type searchRequest struct {
	id    uint64
	state game.GameState
}

type searchResponse struct {
	id     uint64
	column int
	ok     bool
}

// Offload runs searches on a second execution context: a worker goroutine
// fed request/response messages keyed by caller-generated ids. When the
// worker is busy or does not reply within the timeout, the caller falls back
// to an inline search with the same configuration. The worker and the inline
// searcher each own a private transposition table; nothing mutable is shared
// between the two contexts.
type Offload struct {
	requests  chan searchRequest
	responses chan searchResponse
	inline    *Expectimax
	timeout   time.Duration
	nextID    atomic.Uint64
	done      chan struct{}
}

type OffloadOption func(*Offload)

func WithOffloadTimeout(d time.Duration) OffloadOption {
	return func(o *Offload) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func NewOffload(cfg Config, options ...OffloadOption) *Offload {
	o := &Offload{
		requests:  make(chan searchRequest),
		responses: make(chan searchResponse, 1),
		inline:    NewExpectimax(cfg),
		timeout:   DefaultOffloadTimeout,
		done:      make(chan struct{}),
	}
	for _, option := range options {
		option(o)
	}
	go o.serve(cfg)
	return o
}

func (o *Offload) serve(cfg Config) {
	worker := NewExpectimax(cfg)
	for {
		select {
		case <-o.done:
			return
		case req := <-o.requests:
			column, ok := worker.FindBestMove(req.state)
			select {
			case o.responses <- searchResponse{id: req.id, column: column, ok: ok}:
			case <-o.done:
				return
			}
		}
	}
}

// FindBestMove hands the search to the worker and waits for its reply,
// degrading to the inline searcher on a busy worker or a timeout. Replies
// for abandoned requests are discarded by id.
func (o *Offload) FindBestMove(gs game.GameState) (int, bool) {
	id := o.nextID.Add(1)
	select {
	case o.requests <- searchRequest{id: id, state: gs}:
	default:
		log.Warn().Uint64("request", id).Msg("search worker busy, searching inline")
		return o.inline.FindBestMove(gs)
	}

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()
	for {
		select {
		case resp := <-o.responses:
			if resp.id != id {
				// Stale reply from a request that already timed out.
				continue
			}
			return resp.column, resp.ok
		case <-timer.C:
			log.Warn().Uint64("request", id).Dur("timeout", o.timeout).
				Msg("search worker timed out, falling back to inline search")
			return o.inline.FindBestMove(gs)
		}
	}
}

// Close stops the worker goroutine. In-flight requests are abandoned.
func (o *Offload) Close() {
	close(o.done)
}
