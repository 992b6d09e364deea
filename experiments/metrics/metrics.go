package metrics

import "time"

// SearchMetric describes one move search.
type SearchMetric struct {
	Depth        int
	Nodes        int
	CacheHits    int64
	CacheLookups int64
	Duration     time.Duration
	Cancelled    bool // search degraded to best-found-so-far
	RandomMove   bool // move came from the random short-circuit, not search
}

// MoveMetric ties a search to its place in a game.
type MoveMetric struct {
	Step   int
	Player string
	Column int
	SearchMetric
}

// GameMetric summarizes one finished game.
type GameMetric struct {
	Tier1     string
	Tier2     string
	Winner    string
	Moves     int
	Score1    int
	Score2    int
	StartTime time.Time
	Duration  time.Duration
}
