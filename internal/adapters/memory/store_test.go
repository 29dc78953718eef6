package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quietbishop/chess-ledger/internal/adapters/memory"
	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

func newStoredGame(t *testing.T, store *memory.Store) uint64 {
	t.Helper()
	ctx := context.Background()
	ch, err := challenge.New("alice", nil, nil, nil, 7)
	if err != nil {
		t.Fatalf("new challenge: %v", err)
	}
	chID, err := store.CreateChallenge(ctx, ch)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gameID, err := store.ResolveChallenge(ctx, chID, game.New("alice", "bob", nil, 8), "bob")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return gameID
}

func TestUpdateGameRejectsStaleWrite(t *testing.T) {
	store := memory.New("owner", 1200)
	ctx := context.Background()
	gameID := newStoredGame(t, store)

	// Two requests load the same state and race to write.
	first, err := store.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := store.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := first.Apply("alice", game.MoveAction("e2e4"), 9); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.UpdateGame(ctx, first, nil); err != nil {
		t.Fatalf("first update: %v", err)
	}

	if err := second.Apply("alice", game.MoveAction("d2d4"), 10); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.UpdateGame(ctx, second, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("stale update: %v, want ErrVersionConflict", err)
	}

	// The first accepted move survives.
	stored, err := store.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Moves) != 1 || stored.Moves[0].Action.Move != "e2e4" {
		t.Fatalf("moves = %+v", stored.Moves)
	}
}

func TestUpdateGameRejectsWriteToFinishedGame(t *testing.T) {
	store := memory.New("owner", 1200)
	ctx := context.Background()
	gameID := newStoredGame(t, store)

	g, _ := store.GetGame(ctx, gameID)
	stale, _ := store.GetGame(ctx, gameID)

	if err := g.Apply("bob", game.Action{Kind: game.ActionResign}, 9); err != nil {
		t.Fatalf("resign: %v", err)
	}
	if err := store.UpdateGame(ctx, g, nil); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := stale.Apply("alice", game.MoveAction("e2e4"), 10); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.UpdateGame(ctx, stale, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("write to finished game: %v, want ErrVersionConflict", err)
	}
}

func TestUpdateGameUnknownID(t *testing.T) {
	store := memory.New("owner", 1200)
	g := game.New("alice", "bob", nil, 8)
	g.ID = 42
	if err := store.UpdateGame(context.Background(), g, nil); !errors.Is(err, ports.ErrGameNotFound) {
		t.Fatalf("unknown game: %v, want ErrGameNotFound", err)
	}
}
