package game

// ActionKind discriminates the turn actions a participant can submit.
type ActionKind string

const (
	ActionMove        ActionKind = "move"
	ActionResign      ActionKind = "resign"
	ActionOfferDraw   ActionKind = "offer_draw"
	ActionAcceptDraw  ActionKind = "accept_draw"
	ActionDeclineDraw ActionKind = "decline_draw"
)

// Action is one turn submission. Move holds the UCI move string and is set
// only when Kind is ActionMove.
type Action struct {
	Kind ActionKind `json:"kind"`
	Move string     `json:"move,omitempty"`
}

// MoveAction builds a board move action from a UCI string.
func MoveAction(uci string) Action {
	return Action{Kind: ActionMove, Move: uci}
}

// Record is one accepted entry in a game's append-only action log, stamped
// with the block height at which it was accepted.
type Record struct {
	Height uint64 `json:"height"`
	Action Action `json:"action"`
}
