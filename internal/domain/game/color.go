package game

// Color identifies a side of the board. Player1 is always White.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// ParseColor converts a wire string into a Color.
func ParseColor(s string) (Color, bool) {
	switch Color(s) {
	case White, Black:
		return Color(s), true
	}
	return "", false
}
