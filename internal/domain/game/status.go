package game

// Status is a terminal game outcome. A game with a nil *Status is ongoing;
// once one of these tags is set the game never transitions again.
type Status string

const (
	WhiteCheckmates Status = "white_checkmates"
	BlackCheckmates Status = "black_checkmates"
	WhiteResigns    Status = "white_resigns"
	BlackResigns    Status = "black_resigns"
	WhiteTimeout    Status = "white_timeout"
	BlackTimeout    Status = "black_timeout"
	DrawAccepted    Status = "draw_accepted"
	DrawDeclared    Status = "draw_declared"
	Stalemate       Status = "stalemate"
)

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case WhiteCheckmates, BlackCheckmates,
		WhiteResigns, BlackResigns,
		WhiteTimeout, BlackTimeout,
		DrawAccepted, DrawDeclared, Stalemate:
		return Status(s), true
	}
	return "", false
}

// Draw reports whether the status is one of the draw outcomes.
func (s Status) Draw() bool {
	switch s {
	case DrawAccepted, DrawDeclared, Stalemate:
		return true
	}
	return false
}

// Winner returns the winning color, or false for a draw.
func (s Status) Winner() (Color, bool) {
	switch s {
	case WhiteCheckmates, BlackResigns, BlackTimeout:
		return White, true
	case BlackCheckmates, WhiteResigns, WhiteTimeout:
		return Black, true
	}
	return "", false
}
