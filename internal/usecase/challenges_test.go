package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/quietbishop/chess-ledger/internal/adapters/memory"
	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/domain/rating"
	"github.com/quietbishop/chess-ledger/internal/ports"
	"github.com/quietbishop/chess-ledger/internal/usecase"
)

type fixture struct {
	store      *memory.Store
	clock      *memory.Clock
	challenges *usecase.Challenges
	games      *usecase.Games
	queries    *usecase.Queries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New("owner", rating.DefaultConfig().Default)
	clock := memory.NewClock(100)
	log := zap.NewNop()
	return &fixture{
		store:      store,
		clock:      clock,
		challenges: usecase.NewChallenges(store, clock, log),
		games:      usecase.NewGames(store, clock, rating.DefaultConfig(), log),
		queries:    usecase.NewQueries(store),
	}
}

func strptr(s string) *string    { return &s }
func uint64ptr(v uint64) *uint64 { return &v }
func colorptr(c game.Color) *game.Color {
	return &c
}

func TestCreateChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 1 {
		t.Fatalf("first challenge id = %d, want 1", id)
	}

	ch, err := f.queries.GetChallenge(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ch.CreatedBy != "alice" || !ch.Open() {
		t.Fatalf("challenge = %+v", ch)
	}

	// Creator's rating is materialized lazily at creation.
	ratings, err := f.queries.GetRatings(ctx)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Player != "alice" || ratings[0].Rating != 1200 {
		t.Fatalf("ratings = %v", ratings)
	}
}

func TestCreateChallengeSelfPlay(t *testing.T) {
	f := newFixture(t)
	_, err := f.challenges.Create(context.Background(), "alice", usecase.CreateChallengeRequest{
		Opponent: strptr("alice"),
	})
	if !errors.Is(err, challenge.ErrCannotPlaySelf) {
		t.Fatalf("expected ErrCannotPlaySelf, got %v", err)
	}
}

func TestAcceptChallengeResolvesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{
		BlockLimit: uint64ptr(10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := f.challenges.Accept(ctx, "bob", id)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// The challenge is gone.
	if _, err := f.queries.GetChallenge(ctx, id); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after accept, got %v", err)
	}
	// Accepting again fails.
	if _, err := f.challenges.Accept(ctx, "carol", id); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("second accept: %v", err)
	}

	// Exactly one game with the challenge's parameters.
	g, err := f.queries.GetGame(ctx, res.GameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.BlockLimit == nil || *g.BlockLimit != 10 {
		t.Fatalf("block limit not inherited: %v", g.BlockLimit)
	}
	if len(g.Moves) != 0 {
		t.Fatalf("new game has moves: %d", len(g.Moves))
	}
	if g.Status != nil {
		t.Fatalf("new game already finished: %v", *g.Status)
	}
	if g.FEN != game.StartingFEN {
		t.Fatalf("fen = %q", g.FEN)
	}
	// block_start equals the accept-time clock: create consumed 101,
	// accept consumed 102.
	if g.BlockStart != 102 {
		t.Fatalf("block_start = %d, want 102", g.BlockStart)
	}

	// Both participants now rated.
	ratings, _ := f.queries.GetRatings(ctx)
	if len(ratings) != 2 {
		t.Fatalf("ratings = %v", ratings)
	}
}

func TestAcceptChallengeColorPreference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _ := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{
		PlayAs: colorptr(game.Black),
	})
	res, err := f.challenges.Accept(ctx, "bob", id)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Player1 != "bob" || res.Player2 != "alice" {
		t.Fatalf("creator asked for black but got (%s, %s)", res.Player1, res.Player2)
	}
}

func TestAcceptChallengeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.challenges.Accept(ctx, "bob", 999); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("missing challenge: %v", err)
	}

	open, _ := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{})
	if _, err := f.challenges.Accept(ctx, "alice", open); !errors.Is(err, challenge.ErrCannotPlaySelf) {
		t.Fatalf("self accept: %v", err)
	}

	directed, _ := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{
		Opponent: strptr("bob"),
	})
	if _, err := f.challenges.Accept(ctx, "carol", directed); !errors.Is(err, challenge.ErrNotYourChallenge) {
		t.Fatalf("third-party accept of directed challenge: %v", err)
	}
}

func TestCancelChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _ := f.challenges.Create(ctx, "alice", usecase.CreateChallengeRequest{})

	if err := f.challenges.Cancel(ctx, "bob", id); !errors.Is(err, challenge.ErrNotYourChallenge) {
		t.Fatalf("non-creator cancel: %v", err)
	}
	if err := f.challenges.Cancel(ctx, "alice", id); err != nil {
		t.Fatalf("creator cancel: %v", err)
	}
	if _, err := f.queries.GetChallenge(ctx, id); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("challenge survived cancel: %v", err)
	}
	if err := f.challenges.Cancel(ctx, "alice", id); !errors.Is(err, ports.ErrChallengeNotFound) {
		t.Fatalf("double cancel: %v", err)
	}
}
