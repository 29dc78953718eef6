package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/domain/rating"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

// Games handles turn submission and timeout adjudication, and applies the
// rating update when a game reaches a terminal outcome.
type Games struct {
	store ports.Store
	clock ports.BlockClock
	elo   rating.Config
	log   *zap.Logger
}

func NewGames(store ports.Store, clock ports.BlockClock, elo rating.Config, log *zap.Logger) *Games {
	return &Games{store: store, clock: clock, elo: elo, log: log}
}

// Turn applies one action for player against the game. On a terminal
// transition both players' ratings are recomputed and written in the same
// unit of work as the game.
func (s *Games) Turn(ctx context.Context, player string, gameID uint64, act game.Action) (*game.Game, error) {
	height, err := s.clock.Height(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := g.Apply(player, act, height); err != nil {
		return nil, err
	}

	updates, err := s.ratingUpdates(ctx, g)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateGame(ctx, g, updates); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.Uint64("game_id", gameID),
		zap.String("player", player),
		zap.String("action", string(act.Kind)),
	}
	if g.Status != nil {
		fields = append(fields, zap.String("status", string(*g.Status)))
	}
	s.log.Info("turn", fields...)
	return g, nil
}

// DeclareTimeout adjudicates a timeout. Any caller may declare one; the
// transition is gated only by the block clock and the game's stored state.
func (s *Games) DeclareTimeout(ctx context.Context, gameID uint64) (game.Status, error) {
	height, err := s.clock.Height(ctx)
	if err != nil {
		return "", err
	}
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	status, err := g.CheckTimeout(height)
	if err != nil {
		return "", err
	}

	updates, err := s.ratingUpdates(ctx, g)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateGame(ctx, g, updates); err != nil {
		return "", err
	}
	s.log.Info("timeout declared",
		zap.Uint64("game_id", gameID),
		zap.String("status", string(status)),
	)
	return status, nil
}

// ValidMove reports whether the move would be accepted right now. Any
// internal failure downgrades to false: this is an advisory check for
// callers composing a subsequent Turn.
func (s *Games) ValidMove(ctx context.Context, gameID uint64, player, uci string) bool {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return false
	}
	return g.ValidMove(player, uci)
}

// GetTurn reports whether it is player's turn, false on any error.
func (s *Games) GetTurn(ctx context.Context, gameID uint64, player string) bool {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return false
	}
	return g.TurnToMove(player)
}

// ratingUpdates computes the Elo writes for a game that just reached a
// terminal status, or nil for an ongoing game.
func (s *Games) ratingUpdates(ctx context.Context, g *game.Game) ([]ports.RatingUpdate, error) {
	if g.Status == nil {
		return nil, nil
	}
	r1, err := s.store.GetRating(ctx, g.Player1)
	if err != nil {
		return nil, err
	}
	r2, err := s.store.GetRating(ctx, g.Player2)
	if err != nil {
		return nil, err
	}
	n1, n2 := s.elo.Update(r1, r2, outcomeFor(*g.Status))
	return []ports.RatingUpdate{
		{Player: g.Player1, Rating: n1},
		{Player: g.Player2, Rating: n2},
	}, nil
}

// outcomeFor converts a terminal tag into player1's (White's) result.
func outcomeFor(s game.Status) rating.Outcome {
	winner, ok := s.Winner()
	switch {
	case !ok:
		return rating.Draw
	case winner == game.White:
		return rating.Win
	default:
		return rating.Loss
	}
}
