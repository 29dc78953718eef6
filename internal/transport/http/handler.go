package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/quietbishop/chess-ledger/internal/domain/challenge"
	"github.com/quietbishop/chess-ledger/internal/domain/game"
	"github.com/quietbishop/chess-ledger/internal/ports"
	"github.com/quietbishop/chess-ledger/internal/usecase"
)

// playerHeader carries the authenticated caller identity. Authentication
// itself is the upstream gateway's job; the value is trusted here.
const playerHeader = "X-Player-Id"

// Handlers bundles the usecases behind the HTTP surface.
type Handlers struct {
	challenges *usecase.Challenges
	games      *usecase.Games
	queries    *usecase.Queries
}

func NewHandlers(challenges *usecase.Challenges, games *usecase.Games, queries *usecase.Queries) *Handlers {
	return &Handlers{challenges: challenges, games: games, queries: queries}
}

// challengeJSON is the wire representation of a challenge.
type challengeJSON struct {
	ChallengeID  uint64  `json:"challenge_id"`
	CreatedBy    string  `json:"created_by"`
	Opponent     *string `json:"opponent,omitempty"`
	PlayAs       *string `json:"play_as,omitempty"`
	BlockLimit   *uint64 `json:"block_limit,omitempty"`
	BlockCreated uint64  `json:"block_created"`
}

func toChallengeJSON(ch *challenge.Challenge) challengeJSON {
	var playAs *string
	if ch.PlayAs != nil {
		v := string(*ch.PlayAs)
		playAs = &v
	}
	return challengeJSON{
		ChallengeID:  ch.ID,
		CreatedBy:    ch.CreatedBy,
		Opponent:     ch.Opponent,
		PlayAs:       playAs,
		BlockLimit:   ch.BlockLimit,
		BlockCreated: ch.BlockCreated,
	}
}

// moveJSON is one entry of a game's action log.
type moveJSON struct {
	Height uint64 `json:"height"`
	Kind   string `json:"kind"`
	Move   string `json:"move,omitempty"`
}

// gameJSON is the full wire representation of a game.
type gameJSON struct {
	GameID     uint64     `json:"game_id"`
	Player1    string     `json:"player1"`
	Player2    string     `json:"player2"`
	BlockLimit *uint64    `json:"block_limit,omitempty"`
	BlockStart uint64     `json:"block_start"`
	FEN        string     `json:"fen"`
	Status     *string    `json:"status"`
	TurnColor  string     `json:"turn_color"`
	DrawOffer  *string    `json:"draw_offer,omitempty"`
	Moves      []moveJSON `json:"moves"`
}

func toGameJSON(g *game.Game) gameJSON {
	moves := make([]moveJSON, len(g.Moves))
	for i, rec := range g.Moves {
		moves[i] = moveJSON{
			Height: rec.Height,
			Kind:   string(rec.Action.Kind),
			Move:   rec.Action.Move,
		}
	}
	return gameJSON{
		GameID:     g.ID,
		Player1:    g.Player1,
		Player2:    g.Player2,
		BlockLimit: g.BlockLimit,
		BlockStart: g.BlockStart,
		FEN:        g.FEN,
		Status:     statusJSON(g.Status),
		TurnColor:  string(g.TurnColor()),
		DrawOffer:  colorJSON(g.DrawOffer),
		Moves:      moves,
	}
}

// summaryJSON is the listing projection of a game.
type summaryJSON struct {
	GameID     uint64  `json:"game_id"`
	Player1    string  `json:"player1"`
	Player2    string  `json:"player2"`
	BlockLimit *uint64 `json:"block_limit,omitempty"`
	BlockStart uint64  `json:"block_start"`
	Status     *string `json:"status"`
	TurnColor  string  `json:"turn_color"`
}

func toSummaryJSON(s game.Summary) summaryJSON {
	return summaryJSON{
		GameID:     s.GameID,
		Player1:    s.Player1,
		Player2:    s.Player2,
		BlockLimit: s.BlockLimit,
		BlockStart: s.BlockStart,
		Status:     statusJSON(s.Status),
		TurnColor:  string(s.TurnColor),
	}
}

func statusJSON(s *game.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func colorJSON(c *game.Color) *string {
	if c == nil {
		return nil
	}
	v := string(*c)
	return &v
}

// callerID reads the authenticated player identity header. Returns "" and
// writes a 400 response when the header is missing.
func callerID(c echo.Context) (string, error) {
	player := c.Request().Header.Get(playerHeader)
	if player == "" {
		return "", problem(c, http.StatusBadRequest, "missing_player_id", playerHeader+" header is required.")
	}
	return player, nil
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func queryCursor(c echo.Context) (*uint64, error) {
	raw := c.QueryParam("after")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryPlayer(c echo.Context) *string {
	if p := c.QueryParam("player"); p != "" {
		return &p
	}
	return nil
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleInfo(c echo.Context) error {
	owner, err := h.queries.Owner(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"owner": owner})
}

func (h *Handlers) handleCreateChallenge(c echo.Context) error {
	player, err := callerID(c)
	if err != nil {
		return err
	}

	var body struct {
		Opponent   *string `json:"opponent"`
		PlayAs     *string `json:"play_as"`
		BlockLimit *uint64 `json:"block_limit"`
	}
	if err := c.Bind(&body); err != nil {
		return problem(c, http.StatusBadRequest, "bad_request", "Malformed request body.")
	}

	req := usecase.CreateChallengeRequest{
		Opponent:   body.Opponent,
		BlockLimit: body.BlockLimit,
	}
	if body.PlayAs != nil {
		color, ok := game.ParseColor(*body.PlayAs)
		if !ok {
			return problem(c, http.StatusBadRequest, "bad_request", `play_as must be "white" or "black".`)
		}
		req.PlayAs = &color
	}

	id, err := h.challenges.Create(c.Request().Context(), player, req)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint64{"challenge_id": id})
}

func (h *Handlers) handleAcceptChallenge(c echo.Context) error {
	player, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}

	res, err := h.challenges.Accept(c.Request().Context(), player, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"game_id": res.GameID,
		"player1": res.Player1,
		"player2": res.Player2,
	})
}

func (h *Handlers) handleCancelChallenge(c echo.Context) error {
	player, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}
	if err := h.challenges.Cancel(c.Request().Context(), player, id); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) handleGetChallenge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}
	ch, err := h.queries.GetChallenge(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toChallengeJSON(ch))
}

func (h *Handlers) handleGetChallenges(c echo.Context) error {
	after, err := queryCursor(c)
	if err != nil {
		return problem(c, http.StatusBadRequest, "bad_request", "after must be an unsigned integer.")
	}
	list, err := h.queries.GetChallenges(c.Request().Context(), after, queryPlayer(c))
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]challengeJSON, len(list))
	for i, ch := range list {
		out[i] = toChallengeJSON(ch)
	}
	return c.JSON(http.StatusOK, map[string]any{"challenges": out})
}

func (h *Handlers) handleTurn(c echo.Context) error {
	player, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}

	var body struct {
		Kind string `json:"kind"`
		Move string `json:"move"`
	}
	if err := c.Bind(&body); err != nil {
		return problem(c, http.StatusBadRequest, "bad_request", "Malformed request body.")
	}

	act := game.Action{Kind: game.ActionKind(body.Kind), Move: body.Move}
	g, err := h.games.Turn(c.Request().Context(), player, id, act)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toGameJSON(g))
}

func (h *Handlers) handleDeclareTimeout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}
	status, err := h.games.DeclareTimeout(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeErr(c, usecaseNotFound(c))
	}
	g, err := h.queries.GetGame(c.Request().Context(), id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toGameJSON(g))
}

func (h *Handlers) handleGetGames(c echo.Context) error {
	after, err := queryCursor(c)
	if err != nil {
		return problem(c, http.StatusBadRequest, "bad_request", "after must be an unsigned integer.")
	}
	gameOver := c.QueryParam("game_over") == "true"
	list, err := h.queries.GetGames(c.Request().Context(), after, gameOver, queryPlayer(c))
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]summaryJSON, len(list))
	for i, s := range list {
		out[i] = toSummaryJSON(s)
	}
	return c.JSON(http.StatusOK, map[string]any{"games": out})
}

// handleValidMove is advisory: every failure is reported as {"valid": false}.
func (h *Handlers) handleValidMove(c echo.Context) error {
	id, err := pathID(c)
	valid := false
	if err == nil {
		player := c.QueryParam("player")
		move := c.QueryParam("move")
		valid = h.games.ValidMove(c.Request().Context(), id, player, move)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": valid})
}

// handleGetTurn is advisory in the same way as handleValidMove.
func (h *Handlers) handleGetTurn(c echo.Context) error {
	id, err := pathID(c)
	turn := false
	if err == nil {
		turn = h.games.GetTurn(c.Request().Context(), id, c.QueryParam("player"))
	}
	return c.JSON(http.StatusOK, map[string]bool{"turn": turn})
}

func (h *Handlers) handleGetRatings(c echo.Context) error {
	ratings, err := h.queries.GetRatings(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	type ratingJSON struct {
		Player string `json:"player"`
		Rating int    `json:"rating"`
	}
	out := make([]ratingJSON, len(ratings))
	for i, r := range ratings {
		out[i] = ratingJSON{Player: r.Player, Rating: r.Rating}
	}
	return c.JSON(http.StatusOK, map[string]any{"ratings": out})
}

// usecaseNotFound picks the right not-found error for the route family, so
// unparsable ids surface exactly like missing entities.
func usecaseNotFound(c echo.Context) error {
	if strings.HasPrefix(c.Path(), "/api/v1/games") {
		return ports.ErrGameNotFound
	}
	return ports.ErrChallengeNotFound
}
