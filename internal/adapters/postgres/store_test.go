//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	pgstore "github.com/quietbishop/chess-ledger/internal/adapters/postgres"
	"github.com/quietbishop/chess-ledger/internal/db"
	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

func setupStore(t *testing.T) (*pgstore.Store, *pgstore.Clock) {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	// Run migrations via goose.
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("open sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect(db.Dialect); err != nil {
		t.Fatalf("goose set dialect: %v", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		t.Fatalf("goose up: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("pgxpool: %v", err)
	}
	t.Cleanup(pool.Close)

	store := pgstore.New(pool, 1200)
	if err := store.InitOwner(ctx, "owner"); err != nil {
		t.Fatalf("init owner: %v", err)
	}
	return store, pgstore.NewClock(pool)
}

func strptr(s string) *string { return &s }

func TestOwner(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	// Second init is a no-op.
	if err := store.InitOwner(ctx, "someone-else"); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	owner, err := store.Owner(ctx)
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != "owner" {
		t.Fatalf("owner = %q", owner)
	}
}

func TestClockIsMonotonic(t *testing.T) {
	_, clock := setupStore(t)
	ctx := context.Background()

	prev, err := clock.Height(ctx)
	if err != nil {
		t.Fatalf("height: %v", err)
	}
	for i := 0; i < 5; i++ {
		h, err := clock.Height(ctx)
		if err != nil {
			t.Fatalf("height: %v", err)
		}
		if h <= prev {
			t.Fatalf("clock went backwards: %d after %d", h, prev)
		}
		prev = h
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ch, err := challenge.New("alice", strptr("bob"), nil, nil, 7)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	limit := uint64(20)
	ch.BlockLimit = &limit

	id, err := store.CreateChallenge(ctx, ch)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetChallenge(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CreatedBy != "alice" || got.Opponent == nil || *got.Opponent != "bob" {
		t.Fatalf("challenge = %+v", got)
	}
	if got.BlockLimit == nil || *got.BlockLimit != 20 || got.BlockCreated != 7 {
		t.Fatalf("blocks = %+v", got)
	}

	// Both parties' ratings are materialized at the default.
	r, err := store.GetRating(ctx, "bob")
	if err != nil || r != 1200 {
		t.Fatalf("rating = %d, %v", r, err)
	}

	if err := store.DeleteChallenge(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetChallenge(ctx, id); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestResolveChallengeIsAtomic(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ch, _ := challenge.New("alice", nil, nil, nil, 7)
	chID, err := store.CreateChallenge(ctx, ch)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	g := game.New("alice", "bob", nil, 9)
	gameID, err := store.ResolveChallenge(ctx, chID, g, "bob")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := store.GetChallenge(ctx, chID); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("challenge survived resolution: %v", err)
	}
	stored, err := store.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if stored.Player1 != "alice" || stored.Player2 != "bob" || stored.BlockStart != 9 {
		t.Fatalf("game = %+v", stored)
	}

	// A second resolve of the same challenge fails and creates nothing.
	if _, err := store.ResolveChallenge(ctx, chID, g, "carol"); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("second resolve: %v", err)
	}
	games, err := store.ListGames(ctx, 0, true, 25)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("game count = %d", len(games))
	}
}

func TestUpdateGamePersistsMovesAndRatings(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ch, _ := challenge.New("alice", nil, nil, nil, 7)
	chID, _ := store.CreateChallenge(ctx, ch)
	gameID, err := store.ResolveChallenge(ctx, chID, game.New("alice", "bob", nil, 9), "bob")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	g, _ := store.GetGame(ctx, gameID)
	stale, _ := store.GetGame(ctx, gameID)
	if err := g.Apply("alice", game.MoveAction("e2e4"), 10); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.UpdateGame(ctx, g, nil); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A write based on the pre-move load must lose the race.
	if err := stale.Apply("alice", game.MoveAction("d2d4"), 10); err != nil {
		t.Fatalf("apply stale: %v", err)
	}
	if err := store.UpdateGame(ctx, stale, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("stale update: %v, want ErrVersionConflict", err)
	}

	// The first accepted move survives the rejected stale write.
	g, _ = store.GetGame(ctx, gameID)
	if len(g.Moves) != 1 || g.Moves[0].Action.Move != "e2e4" || g.Moves[0].Height != 10 {
		t.Fatalf("moves = %+v", g.Moves)
	}

	// Terminal transition with rating writes.
	if err := g.Apply("bob", game.Action{Kind: game.ActionResign}, 11); err != nil {
		t.Fatalf("resign: %v", err)
	}
	updates := []ports.RatingUpdate{
		{Player: "alice", Rating: 1216},
		{Player: "bob", Rating: 1184},
	}
	if err := store.UpdateGame(ctx, g, updates); err != nil {
		t.Fatalf("final update: %v", err)
	}

	ratings, err := store.ListRatings(ctx)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	if len(ratings) != 2 || ratings[0].Player != "alice" || ratings[0].Rating != 1216 {
		t.Fatalf("ratings = %v", ratings)
	}

	// The stored game is now immutable.
	g, _ = store.GetGame(ctx, gameID)
	g.FEN = "corrupted"
	g.StateVersion++
	if err := store.UpdateGame(ctx, g, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("update of finished game: %v, want ErrVersionConflict", err)
	}
}

func TestListChallengesByIndex(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	mk := func(creator string, opponent *string) uint64 {
		ch, err := challenge.New(creator, opponent, nil, nil, 1)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		id, err := store.CreateChallenge(ctx, ch)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return id
	}

	open := mk("alice", nil)
	byBob := mk("bob", nil)
	atBob := mk("alice", strptr("bob"))

	got, err := store.ListOpenChallenges(ctx, 0, 25)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(got) != 2 || got[0].ID != open || got[1].ID != byBob {
		t.Fatalf("open = %+v", got)
	}

	got, err = store.ListChallengesByCreator(ctx, "bob", 0, 25)
	if err != nil {
		t.Fatalf("by creator: %v", err)
	}
	if len(got) != 1 || got[0].ID != byBob {
		t.Fatalf("by creator = %+v", got)
	}

	got, err = store.ListChallengesByOpponent(ctx, "bob", 0, 25)
	if err != nil {
		t.Fatalf("by opponent: %v", err)
	}
	if len(got) != 1 || got[0].ID != atBob {
		t.Fatalf("by opponent = %+v", got)
	}

	// Cursor bounds the scan exclusively.
	got, err = store.ListOpenChallenges(ctx, open, 25)
	if err != nil {
		t.Fatalf("open after cursor: %v", err)
	}
	if len(got) != 1 || got[0].ID != byBob {
		t.Fatalf("open after cursor = %+v", got)
	}
}
