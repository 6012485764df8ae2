package entity

import (
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

const MaxPlayers = 2

// GameInfo holds registry bookkeeping for a game. The owner always sits at seat 0.
type GameInfo struct {
	ID                string    `json:"id"`
	Owner             string    `json:"owner"`
	Players           []string  `json:"players"`
	TerminationSecret string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewGameInfo(id, owner, terminationSecret string) *GameInfo {
	return &GameInfo{
		ID:                id,
		Owner:             owner,
		Players:           []string{owner},
		TerminationSecret: terminationSecret,
		CreatedAt:         time.Now().UTC(),
	}
}

func (that *GameInfo) IsOwner(username string) bool {
	return username != "" && username == that.Owner
}

func (that *GameInfo) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

// PlayerIndex returns the seat of username, or -1.
func (that *GameInfo) PlayerIndex(username string) int {
	return slices.Index(that.Players, username)
}

// AddPlayer seats username and returns the seat index.
func (that *GameInfo) AddPlayer(username string) (int, error) {
	if that.IsFull() {
		return -1, apperror.ErrGameFull
	}

	if that.PlayerIndex(username) >= 0 {
		return -1, apperror.ErrAlreadyJoined
	}

	that.Players = append(that.Players, username)

	return len(that.Players) - 1, nil
}
