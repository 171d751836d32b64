package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardEntry is one player's result for one ended round.
type LeaderboardEntry struct {
	ID         int64
	PlayerName string
	Score      int
	CreatedAt  time.Time
}

type LeaderboardStore struct {
	db *pgxpool.Pool
}

func NewLeaderboardStore(db *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// Record writes one entry. Written once per player per ended round.
func (s *LeaderboardStore) Record(ctx context.Context, playerName string, score int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard (player_name, score) VALUES ($1, $2)
	`, playerName, score)
	return err
}

// Top returns the highest-scoring entries, descending by score.
func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, player_name, score, created_at
		FROM leaderboard
		ORDER BY score DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.Score, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
