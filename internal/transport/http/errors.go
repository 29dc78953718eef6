package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
)

const errBase = "https://errors.chess-ledger.local"

// Problem is the JSON error envelope.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func problem(c echo.Context, status int, code, detail string) error {
	return c.JSON(status, Problem{
		Type:   errBase + "/" + code,
		Title:  http.StatusText(status),
		Status: status,
		Code:   code,
		Detail: detail,
	})
}

// writeErr maps a domain/store error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ports.ErrChallengeNotFound):
		return problem(c, http.StatusNotFound, "challenge_not_found", "Challenge not found.")
	case errors.Is(err, ports.ErrGameNotFound):
		return problem(c, http.StatusNotFound, "game_not_found", "Game not found.")
	case errors.Is(err, ports.ErrVersionConflict):
		return problem(c, http.StatusConflict, "version_conflict", "The game changed while the request was in flight; reload and retry.")
	case errors.Is(err, challenge.ErrCannotPlaySelf):
		return problem(c, http.StatusUnprocessableEntity, "cannot_play_self", "A player cannot challenge or accept themselves.")
	case errors.Is(err, challenge.ErrNotYourChallenge):
		return problem(c, http.StatusForbidden, "not_your_challenge", "Only the challenge target may accept and only the creator may cancel.")
	case errors.Is(err, game.ErrNotYourGame):
		return problem(c, http.StatusForbidden, "not_your_game", "Caller is not a participant in this game.")
	case errors.Is(err, game.ErrNotYourTurn):
		return problem(c, http.StatusForbidden, "not_your_turn", "It is not the caller's turn.")
	case errors.Is(err, game.ErrInvalidMove):
		return problem(c, http.StatusUnprocessableEntity, "invalid_move", "Move is not legal in the current position.")
	case errors.Is(err, game.ErrGameAlreadyOver):
		return problem(c, http.StatusConflict, "game_over", "The game has already reached a terminal outcome.")
	case errors.Is(err, game.ErrDrawAlreadyOffered):
		return problem(c, http.StatusConflict, "draw_already_offered", "A draw offer is already pending.")
	case errors.Is(err, game.ErrNoDrawOffered):
		return problem(c, http.StatusConflict, "no_draw_offered", "There is no pending draw offer to answer.")
	case errors.Is(err, game.ErrGameNotTimedOut):
		return problem(c, http.StatusConflict, "game_not_timed_out", "The move window has not elapsed.")
	default:
		return problem(c, http.StatusInternalServerError, "internal", "Unexpected error.")
	}
}
