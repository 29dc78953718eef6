package game

import (
	"errors"
	"strings"

	"github.com/notnil/chess"
)

// StartingFEN is the standard initial chess position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Sentinel errors returned by the state machine; the transport layer maps
// these to HTTP codes.
var (
	ErrGameAlreadyOver    = errors.New("game is already over")
	ErrNotYourGame        = errors.New("not a participant in this game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidMove        = errors.New("invalid move")
	ErrDrawAlreadyOffered = errors.New("draw already offered")
	ErrNoDrawOffered      = errors.New("no draw offered")
	ErrGameNotTimedOut    = errors.New("game has not timed out")
)

// Game is the domain entity. Player1 always plays White. A nil Status means
// the game is ongoing; every transition checks Status first, so a finished
// game can never be mutated.
type Game struct {
	ID         uint64
	Player1    string
	Player2    string
	BlockLimit *uint64
	BlockStart uint64
	FEN        string
	Moves      []Record
	Status     *Status
	DrawOffer  *Color
	// StateVersion counts accepted transitions. Stores CAS on it at write
	// time, so a stale in-flight copy can never overwrite a newer state.
	StateVersion int
}

// New creates an ongoing game from the starting position. blockStart is the
// block height at challenge acceptance and doubles as the baseline for the
// first timeout window.
func New(player1, player2 string, blockLimit *uint64, blockStart uint64) *Game {
	return &Game{
		Player1:    player1,
		Player2:    player2,
		BlockLimit: blockLimit,
		BlockStart: blockStart,
		FEN:        StartingFEN,
	}
}

// PlayerOrder maps a challenge's creator and acceptor onto player1/player2.
// An explicit color preference wins; otherwise the parity of the accept-time
// block height decides, so the assignment is reproducible from public state.
func PlayerOrder(creator, acceptor string, playAs *Color, blockStart uint64) (player1, player2 string) {
	switch {
	case playAs != nil && *playAs == White:
		return creator, acceptor
	case playAs != nil:
		return acceptor, creator
	case blockStart%2 == 0:
		return creator, acceptor
	default:
		return acceptor, creator
	}
}

// TurnColor returns the color to move, read from the FEN side-to-move field.
func (g *Game) TurnColor() Color {
	fields := strings.Fields(g.FEN)
	if len(fields) > 1 && fields[1] == "b" {
		return Black
	}
	return White
}

// ColorOf returns the color player holds, or false for non-participants.
func (g *Game) ColorOf(player string) (Color, bool) {
	switch player {
	case g.Player1:
		return White, true
	case g.Player2:
		return Black, true
	}
	return "", false
}

// Apply validates and applies one turn action at the given block height.
// On any error the game is left untouched.
//
// Board moves and draw offers require the caller to be the color to move;
// draw responses are reserved for the color that did not offer; resignation
// is accepted from either participant at any time while the game is ongoing.
func (g *Game) Apply(player string, act Action, height uint64) error {
	if g.Status != nil {
		return ErrGameAlreadyOver
	}
	color, ok := g.ColorOf(player)
	if !ok {
		return ErrNotYourGame
	}

	switch act.Kind {
	case ActionMove:
		if color != g.TurnColor() {
			return ErrNotYourTurn
		}
		cg, err := g.position()
		if err != nil {
			return ErrInvalidMove
		}
		if err := cg.MoveStr(act.Move); err != nil {
			return ErrInvalidMove
		}
		g.FEN = cg.Position().String()
		g.DrawOffer = nil
		g.append(height, act)
		g.Status = terminalStatus(cg)

	case ActionResign:
		s := WhiteResigns
		if color == Black {
			s = BlackResigns
		}
		g.append(height, act)
		g.Status = &s

	case ActionOfferDraw:
		if color != g.TurnColor() {
			return ErrNotYourTurn
		}
		if g.DrawOffer != nil {
			return ErrDrawAlreadyOffered
		}
		offer := color
		g.DrawOffer = &offer
		g.append(height, act)

	case ActionAcceptDraw:
		if g.DrawOffer == nil {
			return ErrNoDrawOffered
		}
		if *g.DrawOffer == color {
			return ErrNotYourTurn
		}
		g.DrawOffer = nil
		g.append(height, act)
		s := DrawAccepted
		g.Status = &s

	case ActionDeclineDraw:
		if g.DrawOffer == nil {
			return ErrNoDrawOffered
		}
		if *g.DrawOffer == color {
			return ErrNotYourTurn
		}
		// Declining clears the offer and nothing else: the board and the
		// color to move are exactly as before the offer.
		g.DrawOffer = nil
		g.append(height, act)

	default:
		return ErrInvalidMove
	}
	g.StateVersion++
	return nil
}

// CheckTimeout adjudicates a timeout at the given block height. The window
// baseline is the last accepted action, or BlockStart for a fresh game.
// Elapsed blocks must strictly exceed BlockLimit; at exactly the limit the
// game is still live. Games without a block limit never time out.
func (g *Game) CheckTimeout(height uint64) (Status, error) {
	if g.Status != nil {
		return "", ErrGameAlreadyOver
	}
	if g.BlockLimit == nil {
		return "", ErrGameNotTimedOut
	}
	baseline := g.BlockStart
	if n := len(g.Moves); n > 0 {
		baseline = g.Moves[n-1].Height
	}
	// Compare via elapsed blocks: baseline+limit could wrap for a large
	// caller-supplied limit. The clock is monotonic, so height >= baseline.
	if height <= baseline || height-baseline <= *g.BlockLimit {
		return "", ErrGameNotTimedOut
	}
	s := WhiteTimeout
	if g.TurnColor() == Black {
		s = BlackTimeout
	}
	g.Status = &s
	g.StateVersion++
	return s, nil
}

// ValidMove reports whether player could legally submit the UCI move right
// now. It never mutates the game and never fails; illegal input is false.
func (g *Game) ValidMove(player, uci string) bool {
	if g.Status != nil {
		return false
	}
	color, ok := g.ColorOf(player)
	if !ok || color != g.TurnColor() {
		return false
	}
	cg, err := g.position()
	if err != nil {
		return false
	}
	return cg.MoveStr(uci) == nil
}

// TurnToMove reports whether the game is ongoing and it is player's turn.
func (g *Game) TurnToMove(player string) bool {
	if g.Status != nil {
		return false
	}
	color, ok := g.ColorOf(player)
	return ok && color == g.TurnColor()
}

func (g *Game) append(height uint64, act Action) {
	g.Moves = append(g.Moves, Record{Height: height, Action: act})
}

// position rebuilds the live chess state from the stored FEN.
func (g *Game) position() (*chess.Game, error) {
	opt, err := chess.FEN(g.FEN)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})), nil
}

// terminalStatus maps the engine outcome after a move onto a terminal tag.
// Checkmate and stalemate get their own tags; the rule-based draws the
// engine declares on its own (insufficient material, seventy-five moves,
// fivefold repetition) all map to DrawDeclared.
func terminalStatus(cg *chess.Game) *Status {
	var s Status
	switch cg.Outcome() {
	case chess.WhiteWon:
		s = WhiteCheckmates
	case chess.BlackWon:
		s = BlackCheckmates
	case chess.Draw:
		if cg.Method() == chess.Stalemate {
			s = Stalemate
		} else {
			s = DrawDeclared
		}
	default:
		return nil
	}
	return &s
}
