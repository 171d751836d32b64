package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stairfall/stairfall/internal/config"
	"github.com/stairfall/stairfall/internal/leaderboard"
	"github.com/stairfall/stairfall/internal/store"
)

const leaderboardSize = 10

type Server struct {
	cfg     *config.Config
	db      *pgxpool.Pool
	rdb     *redis.Client
	hub     *Hub
	logger  *slog.Logger
	mux     *http.ServeMux
	boards  *leaderboard.Service
	durable *store.LeaderboardStore
	metrics *Metrics
}

func New(cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client, hub *Hub, metrics *Metrics, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		rdb:     rdb,
		hub:     hub,
		logger:  logger,
		mux:     http.NewServeMux(),
		boards:  leaderboard.NewService(rdb),
		durable: store.NewLeaderboardStore(db),
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.metrics.ServeHTTP)
	s.mux.Handle("GET /ws", s.hub)

	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	// Static files for the web client
	s.mux.Handle("GET /", http.FileServer(http.Dir("web")))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}

	if err := s.db.Ping(ctx); err != nil {
		status["db"] = "down"
		status["status"] = "degraded"
	} else {
		status["db"] = "ok"
	}

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = "down"
		status["status"] = "degraded"
	} else {
		status["redis"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if status["status"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("write json", "err", err)
	}
}

// handleLeaderboard serves the ten highest scores. Redis is the fast path;
// postgres answers when the cache is cold or unavailable.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.boards.Top(r.Context(), leaderboardSize)
	if err == nil && len(entries) > 0 {
		writeJSON(w, entries)
		return
	}
	if err != nil {
		s.logger.Warn("leaderboard cache read", "err", err)
	}

	rows, err := s.durable.Top(r.Context(), leaderboardSize)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]leaderboard.Entry, 0, len(rows))
	for i, e := range rows {
		out = append(out, leaderboard.Entry{
			Name:  e.PlayerName,
			Score: e.Score,
			Rank:  int64(i + 1),
		})
	}
	writeJSON(w, out)
}

func (s *Server) Handler() http.Handler {
	limiter := NewRateLimiter(30, 60)
	return ChainMiddleware(s.mux,
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(limiter, s.logger),
	)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
