package game

// Summary is the listing projection of a game: everything a lobby view
// needs without the move log.
type Summary struct {
	GameID     uint64
	Player1    string
	Player2    string
	BlockLimit *uint64
	BlockStart uint64
	Status     *Status
	TurnColor  Color
}

// Summarize builds the listing projection for g.
func Summarize(g *Game) Summary {
	return Summary{
		GameID:     g.ID,
		Player1:    g.Player1,
		Player2:    g.Player2,
		BlockLimit: g.BlockLimit,
		BlockStart: g.BlockStart,
		Status:     g.Status,
		TurnColor:  g.TurnColor(),
	}
}
