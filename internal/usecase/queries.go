package usecase

import (
	"context"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/pagination"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

// Queries answers the read-only listing operations. Participant filters are
// answered by merging two secondary-index scans, each bounded by the same
// cursor, instead of keeping a composite index across both roles.
type Queries struct {
	store ports.Store
}

func NewQueries(store ports.Store) *Queries {
	return &Queries{store: store}
}

func (q *Queries) GetChallenge(ctx context.Context, id uint64) (*challenge.Challenge, error) {
	return q.store.GetChallenge(ctx, id)
}

func (q *Queries) GetGame(ctx context.Context, id uint64) (*game.Game, error) {
	return q.store.GetGame(ctx, id)
}

// GetChallenges lists challenges ascending by id, at most one page. With a
// player filter it merges the creator and opponent indexes; without one it
// lists open challenges only.
func (q *Queries) GetChallenges(ctx context.Context, after *uint64, player *string) ([]*challenge.Challenge, error) {
	cursor := cursorValue(after)
	if player == nil {
		return q.store.ListOpenChallenges(ctx, cursor, pagination.PageSize)
	}
	created, err := q.store.ListChallengesByCreator(ctx, *player, cursor, pagination.PageSize)
	if err != nil {
		return nil, err
	}
	directed, err := q.store.ListChallengesByOpponent(ctx, *player, cursor, pagination.PageSize)
	if err != nil {
		return nil, err
	}
	merged := pagination.Merge(created, directed,
		func(c *challenge.Challenge) uint64 { return c.ID },
		pagination.PageSize)
	return merged, nil
}

// GetGames lists game summaries ascending by id, at most one page. Finished
// games are excluded unless gameOver is set. With a player filter it merges
// the player1 and player2 indexes.
func (q *Queries) GetGames(ctx context.Context, after *uint64, gameOver bool, player *string) ([]game.Summary, error) {
	cursor := cursorValue(after)

	var games []*game.Game
	if player == nil {
		var err error
		games, err = q.store.ListGames(ctx, cursor, gameOver, pagination.PageSize)
		if err != nil {
			return nil, err
		}
	} else {
		asWhite, err := q.store.ListGamesByPlayer1(ctx, *player, cursor, gameOver, pagination.PageSize)
		if err != nil {
			return nil, err
		}
		asBlack, err := q.store.ListGamesByPlayer2(ctx, *player, cursor, gameOver, pagination.PageSize)
		if err != nil {
			return nil, err
		}
		games = pagination.Merge(asWhite, asBlack,
			func(g *game.Game) uint64 { return g.ID },
			pagination.PageSize)
	}

	out := make([]game.Summary, len(games))
	for i, g := range games {
		out[i] = game.Summarize(g)
	}
	return out, nil
}

// GetRatings lists every materialized rating, ascending by player identity.
func (q *Queries) GetRatings(ctx context.Context) ([]ports.Rating, error) {
	return q.store.ListRatings(ctx)
}

// Owner returns the identity recorded at ledger initialization.
func (q *Queries) Owner(ctx context.Context) (string, error) {
	return q.store.Owner(ctx)
}

func cursorValue(after *uint64) uint64 {
	if after == nil {
		return 0
	}
	return *after
}
