package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fennwick/cardroom/pkg/entities"
)

const createRoundsTableSQL = `
	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		game_type TEXT NOT NULL,
		outcome TEXT NOT NULL,
		net_profit INTEGER NOT NULL,
		hand_count INTEGER NOT NULL DEFAULT 1,
		player_score INTEGER NOT NULL,
		house_score INTEGER NOT NULL,
		completed_at TIMESTAMP NOT NULL
	)`

const createRoundsIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_rounds_game_type_completed
	ON rounds(game_type, completed_at DESC)`

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(createRoundsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating rounds table: %w", err)
	}
	if _, err := db.Exec(createRoundsIndexSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating rounds index: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveRound persists a settled round
func (r *SQLiteRepository) SaveRound(ctx context.Context, record *entities.RoundRecord) error {
	query := `INSERT INTO rounds
		(id, game_type, outcome, net_profit, hand_count, player_score, house_score, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		string(record.GameType),
		record.Outcome,
		record.NetProfit,
		record.HandCount,
		record.PlayerScore,
		record.HouseScore,
		record.CompletedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("error saving round: %w", err)
	}
	return nil
}

// RecentRounds retrieves the most recent rounds for a game type, newest first
func (r *SQLiteRepository) RecentRounds(ctx context.Context, gameType entities.GameType, limit int) ([]*entities.RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, game_type, outcome, net_profit, hand_count, player_score, house_score, completed_at
		FROM rounds WHERE game_type = ? ORDER BY completed_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, string(gameType), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying rounds: %w", err)
	}
	defer rows.Close()

	var records []*entities.RoundRecord
	for rows.Next() {
		var record entities.RoundRecord
		var completedAt string
		if err := rows.Scan(
			&record.ID,
			&record.GameType,
			&record.Outcome,
			&record.NetProfit,
			&record.HandCount,
			&record.PlayerScore,
			&record.HouseScore,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning round: %w", err)
		}
		record.CompletedAt, err = time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return nil, fmt.Errorf("error parsing timestamp '%s': %w", completedAt, err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Close closes the underlying database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
