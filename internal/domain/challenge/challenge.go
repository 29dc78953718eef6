// Package challenge holds the pending-game entity and its creation and
// targeting rules. A challenge is immutable once created; accepting or
// cancelling removes it.
package challenge

import (
	"errors"

	"github.com/quietbishop/chess-ledger/internal/domain/game"
)

var (
	// ErrCannotPlaySelf rejects challenges where both seats would be the
	// same identity, at creation and at acceptance.
	ErrCannotPlaySelf = errors.New("cannot play against yourself")
	// ErrNotYourChallenge rejects acceptance of a challenge directed at
	// someone else, and cancellation by anyone but the creator.
	ErrNotYourChallenge = errors.New("not your challenge")
)

// Challenge is a proposed game awaiting acceptance. A nil Opponent means the
// challenge is open to anyone; a nil PlayAs leaves color assignment to the
// block-height parity rule at acceptance.
type Challenge struct {
	ID           uint64
	CreatedBy    string
	Opponent     *string
	PlayAs       *game.Color
	BlockLimit   *uint64
	BlockCreated uint64
}

// New validates and builds a challenge. The store assigns the ID on insert.
func New(createdBy string, opponent *string, playAs *game.Color, blockLimit *uint64, height uint64) (*Challenge, error) {
	if opponent != nil && *opponent == createdBy {
		return nil, ErrCannotPlaySelf
	}
	return &Challenge{
		CreatedBy:    createdBy,
		Opponent:     opponent,
		PlayAs:       playAs,
		BlockLimit:   blockLimit,
		BlockCreated: height,
	}, nil
}

// Open reports whether the challenge can be taken by any player.
func (c *Challenge) Open() bool { return c.Opponent == nil }

// AcceptableBy checks the targeting rules for an acceptor.
func (c *Challenge) AcceptableBy(player string) error {
	if c.CreatedBy == player {
		return ErrCannotPlaySelf
	}
	if c.Opponent != nil && *c.Opponent != player {
		return ErrNotYourChallenge
	}
	return nil
}

// CancelableBy checks that only the creator may cancel.
func (c *Challenge) CancelableBy(player string) error {
	if c.CreatedBy != player {
		return ErrNotYourChallenge
	}
	return nil
}
