package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

// Store is a thread-safe in-memory ports.Store. Entities are deep-copied on
// the way in and out so a caller mutating a loaded game cannot touch stored
// state until UpdateGame commits it.
type Store struct {
	mu sync.Mutex

	owner         string
	defaultRating int

	nextChallengeID uint64
	nextGameID      uint64

	challenges map[uint64]*challenge.Challenge
	games      map[uint64]*game.Game
	ratings    map[string]int
}

// New creates an empty Store with the given owner identity and default
// player rating.
func New(owner string, defaultRating int) *Store {
	return &Store{
		owner:         owner,
		defaultRating: defaultRating,
		challenges:    make(map[uint64]*challenge.Challenge),
		games:         make(map[uint64]*game.Game),
		ratings:       make(map[string]int),
	}
}

func (s *Store) CreateChallenge(_ context.Context, ch *challenge.Challenge) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextChallengeID++
	stored := cloneChallenge(ch)
	stored.ID = s.nextChallengeID
	s.challenges[stored.ID] = stored

	s.ensureRating(ch.CreatedBy)
	if ch.Opponent != nil {
		s.ensureRating(*ch.Opponent)
	}
	return stored.ID, nil
}

func (s *Store) GetChallenge(_ context.Context, id uint64) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[id]
	if !ok {
		return nil, ports.ErrChallengeNotFound
	}
	return cloneChallenge(ch), nil
}

func (s *Store) DeleteChallenge(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[id]; !ok {
		return ports.ErrChallengeNotFound
	}
	delete(s.challenges, id)
	return nil
}

func (s *Store) ListOpenChallenges(_ context.Context, after uint64, limit int) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanChallenges(after, limit, func(c *challenge.Challenge) bool {
		return c.Opponent == nil
	}), nil
}

func (s *Store) ListChallengesByCreator(_ context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanChallenges(after, limit, func(c *challenge.Challenge) bool {
		return c.CreatedBy == player
	}), nil
}

func (s *Store) ListChallengesByOpponent(_ context.Context, player string, after uint64, limit int) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanChallenges(after, limit, func(c *challenge.Challenge) bool {
		return c.Opponent != nil && *c.Opponent == player
	}), nil
}

func (s *Store) ResolveChallenge(_ context.Context, challengeID uint64, g *game.Game, acceptor string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[challengeID]; !ok {
		return 0, ports.ErrChallengeNotFound
	}
	delete(s.challenges, challengeID)

	s.nextGameID++
	stored := cloneGame(g)
	stored.ID = s.nextGameID
	s.games[stored.ID] = stored

	s.ensureRating(acceptor)
	return stored.ID, nil
}

func (s *Store) GetGame(_ context.Context, id uint64) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ports.ErrGameNotFound
	}
	return cloneGame(g), nil
}

func (s *Store) UpdateGame(_ context.Context, g *game.Game, ratings []ports.RatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.games[g.ID]
	if !ok {
		return ports.ErrGameNotFound
	}
	// CAS: the write must be based on the current stored state. A terminal
	// game never matches because nothing bumps its version again.
	if cur.Status != nil || cur.StateVersion != g.StateVersion-1 {
		return ports.ErrVersionConflict
	}
	s.games[g.ID] = cloneGame(g)

	for _, u := range ratings {
		s.ratings[u.Player] = u.Rating
	}
	return nil
}

func (s *Store) ListGames(_ context.Context, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanGames(after, limit, func(g *game.Game) bool {
		return gameOver || g.Status == nil
	}), nil
}

func (s *Store) ListGamesByPlayer1(_ context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanGames(after, limit, func(g *game.Game) bool {
		return g.Player1 == player && (gameOver || g.Status == nil)
	}), nil
}

func (s *Store) ListGamesByPlayer2(_ context.Context, player string, after uint64, gameOver bool, limit int) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanGames(after, limit, func(g *game.Game) bool {
		return g.Player2 == player && (gameOver || g.Status == nil)
	}), nil
}

func (s *Store) GetRating(_ context.Context, player string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ratings[player]; ok {
		return r, nil
	}
	return s.defaultRating, nil
}

func (s *Store) ListRatings(_ context.Context) ([]ports.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]string, 0, len(s.ratings))
	for p := range s.ratings {
		players = append(players, p)
	}
	sort.Strings(players)

	out := make([]ports.Rating, len(players))
	for i, p := range players {
		out[i] = ports.Rating{Player: p, Rating: s.ratings[p]}
	}
	return out, nil
}

func (s *Store) Owner(_ context.Context) (string, error) {
	return s.owner, nil
}

// ensureRating materializes the default rating, leaving existing ratings
// untouched. Callers hold s.mu.
func (s *Store) ensureRating(player string) {
	if _, ok := s.ratings[player]; !ok {
		s.ratings[player] = s.defaultRating
	}
}

// scanChallenges walks challenge ids ascending, skipping ids at or below the
// cursor, keeping entries matching the predicate. Callers hold s.mu.
func (s *Store) scanChallenges(after uint64, limit int, match func(*challenge.Challenge) bool) []*challenge.Challenge {
	ids := make([]uint64, 0, len(s.challenges))
	for id := range s.challenges {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*challenge.Challenge{}
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if ch := s.challenges[id]; match(ch) {
			out = append(out, cloneChallenge(ch))
		}
	}
	return out
}

func (s *Store) scanGames(after uint64, limit int, match func(*game.Game) bool) []*game.Game {
	ids := make([]uint64, 0, len(s.games))
	for id := range s.games {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*game.Game{}
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if g := s.games[id]; match(g) {
			out = append(out, cloneGame(g))
		}
	}
	return out
}

func cloneChallenge(ch *challenge.Challenge) *challenge.Challenge {
	c := *ch
	c.Opponent = clonePtr(ch.Opponent)
	c.PlayAs = clonePtr(ch.PlayAs)
	c.BlockLimit = clonePtr(ch.BlockLimit)
	return &c
}

func cloneGame(g *game.Game) *game.Game {
	c := *g
	c.BlockLimit = clonePtr(g.BlockLimit)
	c.Status = clonePtr(g.Status)
	c.DrawOffer = clonePtr(g.DrawOffer)
	c.Moves = append([]game.Record(nil), g.Moves...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
