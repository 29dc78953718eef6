// Package ports declares the collaborator interfaces the core depends on:
// durable keyed storage with ordered secondary-index scans, and the logical
// block clock that supplies the time base for timeout adjudication.
package ports

import (
	"context"
	"errors"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
)

// Sentinel store errors.
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrVersionConflict   = errors.New("version conflict")
)

// Rating is one player's stored rating.
type Rating struct {
	Player string
	Rating int
}

// RatingUpdate is a rating write applied inside the same unit of work as the
// terminal game transition that caused it.
type RatingUpdate struct {
	Player string
	Rating int
}

// Store is the persistence collaborator. Every method is one atomic unit of
// work: either all of its reads and writes commit, or none do. List methods
// scan a single index ascending by id, bounded below by the exclusive
// `after` cursor and truncated to `limit`.
type Store interface {
	// CreateChallenge assigns the next challenge id, persists the
	// challenge, and materializes default ratings for the creator and a
	// directed opponent.
	CreateChallenge(ctx context.Context, ch *challenge.Challenge) (uint64, error)
	GetChallenge(ctx context.Context, id uint64) (*challenge.Challenge, error)
	DeleteChallenge(ctx context.Context, id uint64) error
	ListOpenChallenges(ctx context.Context, after uint64, limit int) ([]*challenge.Challenge, error)
	ListChallengesByCreator(ctx context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error)
	ListChallengesByOpponent(ctx context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error)

	// ResolveChallenge turns an accepted challenge into a game: it deletes
	// the challenge, inserts the game with the next game id, and
	// materializes the acceptor's rating, all in one transaction. The
	// delete is what makes resolution at-most-once.
	ResolveChallenge(ctx context.Context, challengeID uint64, g *game.Game, acceptor string) (uint64, error)
	GetGame(ctx context.Context, id uint64) (*game.Game, error)
	// UpdateGame persists the mutated game together with any rating
	// writes from a terminal transition. The write is a CAS on
	// StateVersion: it commits only when the stored version equals
	// g.StateVersion-1 and the stored status is still nil, and returns
	// ErrVersionConflict otherwise. This is what makes two interleaved
	// load-mutate-write cycles against the same game lose at most one.
	UpdateGame(ctx context.Context, g *game.Game, ratings []RatingUpdate) error
	// ListGames scans the primary index. Finished games are skipped
	// unless gameOver is set; the player-index variants apply the same
	// filter.
	ListGames(ctx context.Context, after uint64, gameOver bool, limit int) ([]*game.Game, error)
	ListGamesByPlayer1(ctx context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error)
	ListGamesByPlayer2(ctx context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error)

	// GetRating returns the stored rating, or the default for players not
	// yet materialized.
	GetRating(ctx context.Context, player string) (int, error)
	ListRatings(ctx context.Context) ([]Rating, error)

	// Owner returns the identity recorded at ledger initialization.
	Owner(ctx context.Context) (string, error)
}

// BlockClock supplies the monotonically non-decreasing logical clock.
type BlockClock interface {
	Height(ctx context.Context) (uint64, error)
}
