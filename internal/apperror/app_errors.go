package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every error below wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrState        = errors.New("operation rejected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrCellOutOfRange = fmt.Errorf("%w: cell index must be between 1 and 9", ErrValidation)
	ErrInvalidSign    = fmt.Errorf("%w: sign must be X or O", ErrValidation)
	ErrInvalidMove    = fmt.Errorf("%w: malformed move", ErrValidation)
	ErrInvalidPlayers = fmt.Errorf("%w: a game needs two distinct players", ErrValidation)
	ErrInvalidUser    = fmt.Errorf("%w: invalid username", ErrValidation)

	ErrNotYourTurn        = fmt.Errorf("%w: it's not your turn", ErrState)
	ErrCellOccupied       = fmt.Errorf("%w: cell is already occupied", ErrState)
	ErrGameFull           = fmt.Errorf("%w: game is full", ErrState)
	ErrAlreadyJoined      = fmt.Errorf("%w: player already joined", ErrState)
	ErrGameIsNotStarted   = fmt.Errorf("%w: game is not started", ErrState)
	ErrGameAlreadyStarted = fmt.Errorf("%w: game is already started", ErrState)
	ErrGameFinished       = fmt.Errorf("%w: game is already finished", ErrState)
	ErrSignsNotChosen     = fmt.Errorf("%w: signs are not chosen yet", ErrState)
	ErrNotEnoughPlayers   = fmt.Errorf("%w: not enough players", ErrState)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrState)

	ErrNotOwner        = fmt.Errorf("%w: only the game owner can do this", ErrUnauthorized)
	ErrNotAPlayer      = fmt.Errorf("%w: not a player of this game", ErrUnauthorized)
	ErrBadSecret       = fmt.Errorf("%w: termination secret does not match", ErrUnauthorized)
	ErrBadCredentials  = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrGameNotFound    = fmt.Errorf("game %w", ErrNotFound)
	ErrPlayerNotFound  = fmt.Errorf("player %w", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
)

// KindOf returns the kind sentinel wrapped by err, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrState, ErrUnauthorized, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
