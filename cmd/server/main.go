package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stairfall/stairfall/internal/cache"
	"github.com/stairfall/stairfall/internal/config"
	"github.com/stairfall/stairfall/internal/game"
	"github.com/stairfall/stairfall/internal/leaderboard"
	"github.com/stairfall/stairfall/internal/room"
	"github.com/stairfall/stairfall/internal/server"
	"github.com/stairfall/stairfall/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	scores := store.NewLeaderboardStore(db)
	boards := leaderboard.NewService(rdb)
	rooms := room.NewManager()
	metrics := server.NewMetrics()

	// End-of-round persistence. Failures are logged and ignored; the
	// round has already ended in memory.
	onEnd := func(r *room.Room) {
		endCtx, endCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer endCancel()

		for _, res := range r.Results() {
			if err := scores.Record(endCtx, res.Name, res.Floor); err != nil {
				logger.Error("record score", "room", r.ID, "player", res.Name, "err", err)
			}
			if err := boards.Submit(endCtx, res.Name, res.Floor); err != nil {
				logger.Error("submit score", "room", r.ID, "player", res.Name, "err", err)
			}
		}
	}

	// Wire engine and hub (circular dependency resolved via SetHub)
	engine := game.NewEngine(rooms, nil, metrics, logger, onEnd)
	engine.SetRoomTTL(cfg.RoomTTL)
	hub := server.NewHub(engine, metrics, logger)
	hub.SetConnLimits(cfg.WSReadLimit, cfg.WSPingInterval)
	engine.SetHub(hub)

	go engine.Run(ctx)

	srv := server.New(cfg, db, rdb, hub, metrics, logger)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
