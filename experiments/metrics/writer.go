package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GameRecord is a GameMetric with its ladder game id.
type GameRecord struct {
	ID int
	GameMetric
}

// MoveRecord is a MoveMetric tied to its game.
type MoveRecord struct {
	Game int
	MoveMetric
}

// Writer dumps ladder results as CSV files under a timestamped directory.
type Writer struct {
	baseDir string
}

func NewWriter(dir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(dir, timestamp)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

// Dir returns the directory records are written to.
func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	path := filepath.Join(w.baseDir, "game_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create game records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "tier1", "tier2", "winner", "moves", "score1", "score2", "start_time", "duration"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write game records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.ID),
			record.Tier1,
			record.Tier2,
			record.Winner,
			strconv.Itoa(record.Moves),
			strconv.Itoa(record.Score1),
			strconv.Itoa(record.Score2),
			record.StartTime.Format(time.RFC3339),
			record.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write game record row: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	path := filepath.Join(w.baseDir, "move_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create move records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"game", "step", "player", "column", "depth", "nodes", "cache_hits", "cache_lookups", "duration", "cancelled", "random_move"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write move records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Player,
			strconv.Itoa(record.Column),
			strconv.Itoa(record.Depth),
			strconv.Itoa(record.Nodes),
			strconv.FormatInt(record.CacheHits, 10),
			strconv.FormatInt(record.CacheLookups, 10),
			record.Duration.String(),
			strconv.FormatBool(record.Cancelled),
			strconv.FormatBool(record.RandomMove),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write move record row: %w", err)
		}
	}
	return nil
}
