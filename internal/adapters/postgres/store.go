package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

const queryInsertChallenge = `
INSERT INTO challenges (created_by, opponent, play_as, block_limit, block_created)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

const queryGetChallenge = `
SELECT id, created_by, opponent, play_as, block_limit, block_created
FROM challenges
WHERE id = $1`

const queryDeleteChallenge = `DELETE FROM challenges WHERE id = $1`

const queryOpenChallenges = `
SELECT id, created_by, opponent, play_as, block_limit, block_created
FROM challenges
WHERE opponent IS NULL AND id > $1
ORDER BY id ASC
LIMIT $2`

const queryChallengesByCreator = `
SELECT id, created_by, opponent, play_as, block_limit, block_created
FROM challenges
WHERE created_by = $1 AND id > $2
ORDER BY id ASC
LIMIT $3`

const queryChallengesByOpponent = `
SELECT id, created_by, opponent, play_as, block_limit, block_created
FROM challenges
WHERE opponent = $1 AND id > $2
ORDER BY id ASC
LIMIT $3`

const queryInsertGame = `
INSERT INTO games (player1, player2, block_limit, block_start, fen, status, draw_offer, state_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

const queryGetGame = `
SELECT id, player1, player2, block_limit, block_start, fen, status, draw_offer, state_version
FROM games
WHERE id = $1`

const queryGameMoves = `
SELECT height, kind, move
FROM game_moves
WHERE game_id = $1
ORDER BY idx ASC`

// CAS write: the status guard keeps a finished game immutable and the
// version match rejects writes based on a stale load.
const queryUpdateGame = `
UPDATE games SET fen = $1, status = $2, draw_offer = $3, state_version = $4
WHERE id = $5 AND status IS NULL AND state_version = $6`

const queryGameExists = `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`

const queryInsertMove = `
INSERT INTO game_moves (game_id, idx, height, kind, move)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (game_id, idx) DO NOTHING`

const queryListGames = `
SELECT id, player1, player2, block_limit, block_start, fen, status, draw_offer, state_version
FROM games
WHERE id > $1 AND ($2 OR status IS NULL)
ORDER BY id ASC
LIMIT $3`

const queryGamesByPlayer1 = `
SELECT id, player1, player2, block_limit, block_start, fen, status, draw_offer, state_version
FROM games
WHERE player1 = $1 AND id > $2 AND ($3 OR status IS NULL)
ORDER BY id ASC
LIMIT $4`

const queryGamesByPlayer2 = `
SELECT id, player1, player2, block_limit, block_start, fen, status, draw_offer, state_version
FROM games
WHERE player2 = $1 AND id > $2 AND ($3 OR status IS NULL)
ORDER BY id ASC
LIMIT $4`

const queryEnsureRating = `
INSERT INTO ratings (player, rating) VALUES ($1, $2)
ON CONFLICT (player) DO NOTHING`

const queryUpsertRating = `
INSERT INTO ratings (player, rating) VALUES ($1, $2)
ON CONFLICT (player) DO UPDATE SET rating = EXCLUDED.rating`

const queryGetRating = `SELECT rating FROM ratings WHERE player = $1`

const queryListRatings = `SELECT player, rating FROM ratings ORDER BY player ASC`

const queryInitOwner = `
INSERT INTO ledger_config (id, owner) VALUES (true, $1)
ON CONFLICT (id) DO NOTHING`

const queryGetOwner = `SELECT owner FROM ledger_config WHERE id = true`

// Store is a PostgreSQL-backed ports.Store. Mutating methods run in a
// transaction so each operation is one atomic unit of work.
type Store struct {
	pool          *pgxpool.Pool
	defaultRating int
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool, defaultRating int) *Store {
	return &Store{pool: pool, defaultRating: defaultRating}
}

// InitOwner records the owner identity once; later calls are no-ops.
func (s *Store) InitOwner(ctx context.Context, owner string) error {
	_, err := s.pool.Exec(ctx, queryInitOwner, owner)
	return err
}

func (s *Store) Owner(ctx context.Context) (string, error) {
	var owner string
	if err := s.pool.QueryRow(ctx, queryGetOwner).Scan(&owner); err != nil {
		return "", err
	}
	return owner, nil
}

func (s *Store) CreateChallenge(ctx context.Context, ch *challenge.Challenge) (uint64, error) {
	var id uint64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var playAs *string
		if ch.PlayAs != nil {
			v := string(*ch.PlayAs)
			playAs = &v
		}
		if err := tx.QueryRow(ctx, queryInsertChallenge,
			ch.CreatedBy, ch.Opponent, playAs, toInt64(ch.BlockLimit), int64(ch.BlockCreated),
		).Scan(&id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, queryEnsureRating, ch.CreatedBy, s.defaultRating); err != nil {
			return err
		}
		if ch.Opponent != nil {
			if _, err := tx.Exec(ctx, queryEnsureRating, *ch.Opponent, s.defaultRating); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (s *Store) GetChallenge(ctx context.Context, id uint64) (*challenge.Challenge, error) {
	ch, err := scanChallenge(s.pool.QueryRow(ctx, queryGetChallenge, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrChallengeNotFound
	}
	return ch, err
}

func (s *Store) DeleteChallenge(ctx context.Context, id uint64) error {
	tag, err := s.pool.Exec(ctx, queryDeleteChallenge, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrChallengeNotFound
	}
	return nil
}

func (s *Store) ListOpenChallenges(ctx context.Context, after uint64, limit int) ([]*challenge.Challenge, error) {
	return s.queryChallenges(ctx, queryOpenChallenges, after, limit)
}

func (s *Store) ListChallengesByCreator(ctx context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error) {
	return s.queryChallenges(ctx, queryChallengesByCreator, player, after, limit)
}

func (s *Store) ListChallengesByOpponent(ctx context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error) {
	return s.queryChallenges(ctx, queryChallengesByOpponent, player, after, limit)
}

func (s *Store) ResolveChallenge(ctx context.Context, challengeID uint64, g *game.Game, acceptor string) (uint64, error) {
	var id uint64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, queryDeleteChallenge, challengeID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ports.ErrChallengeNotFound
		}
		if err := tx.QueryRow(ctx, queryInsertGame,
			g.Player1, g.Player2, toInt64(g.BlockLimit), int64(g.BlockStart),
			g.FEN, statusString(g.Status), colorString(g.DrawOffer), g.StateVersion,
		).Scan(&id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, queryEnsureRating, acceptor, s.defaultRating)
		return err
	})
	return id, err
}

// GetGame reads the game row and its move log inside one transaction, so
// the returned FEN and log always belong to the same state version.
func (s *Store) GetGame(ctx context.Context, id uint64) (*game.Game, error) {
	var g *game.Game
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		g, err = scanGame(tx.QueryRow(ctx, queryGetGame, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrGameNotFound
		}
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, queryGameMoves, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var height int64
			var kind string
			var move *string
			if err := rows.Scan(&height, &kind, &move); err != nil {
				return err
			}
			act := game.Action{Kind: game.ActionKind(kind)}
			if move != nil {
				act.Move = *move
			}
			g.Moves = append(g.Moves, game.Record{Height: uint64(height), Action: act})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) UpdateGame(ctx context.Context, g *game.Game, ratings []ports.RatingUpdate) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, queryUpdateGame,
			g.FEN, statusString(g.Status), colorString(g.DrawOffer),
			g.StateVersion, g.ID, g.StateVersion-1)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, queryGameExists, g.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ports.ErrGameNotFound
			}
			return ports.ErrVersionConflict
		}
		for idx, rec := range g.Moves {
			var move *string
			if rec.Action.Kind == game.ActionMove {
				m := rec.Action.Move
				move = &m
			}
			if _, err := tx.Exec(ctx, queryInsertMove,
				g.ID, idx, int64(rec.Height), string(rec.Action.Kind), move); err != nil {
				return err
			}
		}
		for _, u := range ratings {
			if _, err := tx.Exec(ctx, queryUpsertRating, u.Player, u.Rating); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListGames(ctx context.Context, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	return s.queryGames(ctx, queryListGames, after, gameOver, limit)
}

func (s *Store) ListGamesByPlayer1(ctx context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	return s.queryGames(ctx, queryGamesByPlayer1, player, after, gameOver, limit)
}

func (s *Store) ListGamesByPlayer2(ctx context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	return s.queryGames(ctx, queryGamesByPlayer2, player, after, gameOver, limit)
}

func (s *Store) GetRating(ctx context.Context, player string) (int, error) {
	var r int
	err := s.pool.QueryRow(ctx, queryGetRating, player).Scan(&r)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaultRating, nil
	}
	return r, err
}

func (s *Store) ListRatings(ctx context.Context) ([]ports.Rating, error) {
	rows, err := s.pool.Query(ctx, queryListRatings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.Rating
	for rows.Next() {
		var r ports.Rating
		if err := rows.Scan(&r.Player, &r.Rating); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) queryChallenges(ctx context.Context, query string, args ...any) ([]*challenge.Challenge, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*challenge.Challenge{}
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *Store) queryGames(ctx context.Context, query string, args ...any) ([]*game.Game, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var (
		ch           challenge.Challenge
		id           int64
		playAs       *string
		blockLimit   *int64
		blockCreated int64
	)
	if err := row.Scan(&id, &ch.CreatedBy, &ch.Opponent, &playAs, &blockLimit, &blockCreated); err != nil {
		return nil, err
	}
	ch.ID = uint64(id)
	ch.BlockCreated = uint64(blockCreated)
	ch.BlockLimit = toUint64(blockLimit)
	if playAs != nil {
		if c, ok := game.ParseColor(*playAs); ok {
			ch.PlayAs = &c
		}
	}
	return &ch, nil
}

func scanGame(row pgx.Row) (*game.Game, error) {
	var (
		g          game.Game
		id         int64
		blockLimit *int64
		blockStart int64
		status     *string
		drawOffer  *string
	)
	if err := row.Scan(&id, &g.Player1, &g.Player2, &blockLimit, &blockStart,
		&g.FEN, &status, &drawOffer, &g.StateVersion); err != nil {
		return nil, err
	}
	g.ID = uint64(id)
	g.BlockStart = uint64(blockStart)
	g.BlockLimit = toUint64(blockLimit)
	if status != nil {
		st, ok := game.ParseStatus(*status)
		if !ok {
			return nil, fmt.Errorf("unknown stored game status %q", *status)
		}
		g.Status = &st
	}
	if drawOffer != nil {
		if c, ok := game.ParseColor(*drawOffer); ok {
			g.DrawOffer = &c
		}
	}
	return &g, nil
}

func toInt64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func toUint64(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	n := uint64(*v)
	return &n
}

func statusString(s *game.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func colorString(c *game.Color) *string {
	if c == nil {
		return nil
	}
	v := string(*c)
	return &v
}
