package leaderboard

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/stairfall/stairfall/internal/cache"
)

type Entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int64  `json:"rank"`
}

// Service is the fast read path for the leaderboard: a redis sorted set
// keeping each player name's best floor count. The durable record lives in
// postgres (internal/store).
type Service struct {
	rdb *redis.Client
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

// Submit records a score, keeping the best per name.
func (s *Service) Submit(ctx context.Context, name string, score int) error {
	return s.rdb.ZAddGT(ctx, cache.KeyLeaderboard, redis.Z{
		Score:  float64(score),
		Member: name,
	}).Err()
}

// Top returns the highest-scoring entries, descending by score.
func (s *Service) Top(ctx context.Context, count int64) ([]Entry, error) {
	results, err := s.rdb.ZRevRangeWithScores(ctx, cache.KeyLeaderboard, 0, count-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		name, _ := z.Member.(string)
		entries = append(entries, Entry{
			Name:  name,
			Score: int(z.Score),
			Rank:  int64(i + 1),
		})
	}
	return entries, nil
}

// Rank returns a single player's rank and best score, or nil if unranked.
func (s *Service) Rank(ctx context.Context, name string) (*Entry, error) {
	rank, err := s.rdb.ZRevRank(ctx, cache.KeyLeaderboard, name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	score, err := s.rdb.ZScore(ctx, cache.KeyLeaderboard, name).Result()
	if err != nil {
		return nil, err
	}
	return &Entry{Name: name, Score: int(score), Rank: rank + 1}, nil
}
