package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quietbishop/chess-ledger/internal/adapters/memory"
	pgstore "github.com/quietbishop/chess-ledger/internal/adapters/postgres"
	"github.com/quietbishop/chess-ledger/internal/config"
	"github.com/quietbishop/chess-ledger/internal/logging"
	"github.com/quietbishop/chess-ledger/internal/ports"
	transporthttp "github.com/quietbishop/chess-ledger/internal/transport/http"
	"github.com/quietbishop/chess-ledger/internal/usecase"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	var (
		store ports.Store
		clock ports.BlockClock
	)

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Fatal("pgxpool.New", zap.Error(err))
		}
		defer pool.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		logger.Info("connected to database")

		pg := pgstore.New(pool, cfg.Elo.Default)
		initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pg.InitOwner(initCtx, cfg.Owner)
		initCancel()
		if err != nil {
			logger.Fatal("init owner", zap.Error(err))
		}
		store = pg
		clock = pgstore.NewClock(pool)
	} else {
		logger.Info("no DATABASE_URL, using in-memory store")
		store = memory.New(cfg.Owner, cfg.Elo.Default)
		clock = memory.NewClock(0)
	}

	h := transporthttp.NewHandlers(
		usecase.NewChallenges(store, clock, logger),
		usecase.NewGames(store, clock, cfg.Elo, logger),
		usecase.NewQueries(store),
	)

	e := transporthttp.New(h, logger)
	logger.Info("starting", zap.String("port", cfg.Port))
	logger.Fatal("server stopped", zap.Error(e.Start(":"+cfg.Port)))
}
