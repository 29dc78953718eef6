package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

// CreateChallengeRequest is the input to Create.
type CreateChallengeRequest struct {
	Opponent   *string
	PlayAs     *game.Color
	BlockLimit *uint64
}

// AcceptResult reports the game created by accepting a challenge, with the
// resolved color assignment.
type AcceptResult struct {
	GameID  uint64
	Player1 string
	Player2 string
}

// Challenges handles the challenge lifecycle: create, accept, cancel.
type Challenges struct {
	store ports.Store
	clock ports.BlockClock
	log   *zap.Logger
}

func NewChallenges(store ports.Store, clock ports.BlockClock, log *zap.Logger) *Challenges {
	return &Challenges{store: store, clock: clock, log: log}
}

// Create validates and persists a new challenge and returns its id.
func (c *Challenges) Create(ctx context.Context, creator string, req CreateChallengeRequest) (uint64, error) {
	height, err := c.clock.Height(ctx)
	if err != nil {
		return 0, err
	}
	ch, err := challenge.New(creator, req.Opponent, req.PlayAs, req.BlockLimit, height)
	if err != nil {
		return 0, err
	}
	id, err := c.store.CreateChallenge(ctx, ch)
	if err != nil {
		return 0, err
	}
	c.log.Info("challenge created",
		zap.Uint64("challenge_id", id),
		zap.String("created_by", creator),
		zap.Bool("open", ch.Open()),
	)
	return id, nil
}

// Accept resolves a challenge into a game. The challenge is deleted and the
// game inserted in one unit of work, so a challenge can resolve at most
// once. Color assignment is deterministic from the challenge and the
// accept-time block height.
func (c *Challenges) Accept(ctx context.Context, acceptor string, challengeID uint64) (AcceptResult, error) {
	height, err := c.clock.Height(ctx)
	if err != nil {
		return AcceptResult{}, err
	}
	ch, err := c.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return AcceptResult{}, err
	}
	if err := ch.AcceptableBy(acceptor); err != nil {
		return AcceptResult{}, err
	}

	player1, player2 := game.PlayerOrder(ch.CreatedBy, acceptor, ch.PlayAs, height)
	g := game.New(player1, player2, ch.BlockLimit, height)

	gameID, err := c.store.ResolveChallenge(ctx, challengeID, g, acceptor)
	if err != nil {
		return AcceptResult{}, err
	}
	c.log.Info("challenge accepted",
		zap.Uint64("challenge_id", challengeID),
		zap.Uint64("game_id", gameID),
		zap.String("player1", player1),
		zap.String("player2", player2),
	)
	return AcceptResult{GameID: gameID, Player1: player1, Player2: player2}, nil
}

// Cancel removes a challenge. Only its creator may cancel.
func (c *Challenges) Cancel(ctx context.Context, caller string, challengeID uint64) error {
	ch, err := c.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if err := ch.CancelableBy(caller); err != nil {
		return err
	}
	if err := c.store.DeleteChallenge(ctx, challengeID); err != nil {
		return err
	}
	c.log.Info("challenge cancelled", zap.Uint64("challenge_id", challengeID))
	return nil
}
