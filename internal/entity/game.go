package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusChoosing = "choosing"
	StatusOngoing  = "ongoing"
	StatusWon      = "won"
	StatusDrawn    = "drawn"
)

// Game is a single tic-tac-toe match between two named players.
//
// A game starts in StatusWaiting. Setup registers the players and hands the sign choice to
// the first one, AssignSigns starts the move phase, and RequestMove is called until the game
// is won or drawn. Game is not safe for concurrent use; callers serialize access per game.
type Game struct {
	board *Board

	players     [2]string
	signs       map[Mark]string
	current     string
	currentMark Mark

	status string
	winner string
}

// GameState is a read-only view of a game for transports.
type GameState struct {
	ID      string          `json:"id,omitempty"`
	Board   [BoardSize]Mark `json:"board"`
	Grid    string          `json:"grid"`
	Status  string          `json:"status"`
	Turn    string          `json:"turn,omitempty"`
	Sign    Mark            `json:"sign,omitempty"`
	Players []string        `json:"players,omitempty"`
	Signs   map[Mark]string `json:"signs,omitempty"`
	Winner  string          `json:"winner,omitempty"`
}

func NewGame() *Game {
	return &Game{
		board:  NewBoard(),
		signs:  make(map[Mark]string, 2),
		status: StatusWaiting,
	}
}

// Setup registers both players and lets player1 choose a sign.
func (that *Game) Setup(player1, player2 string) error {
	if that.status != StatusWaiting {
		return apperror.ErrGameAlreadyStarted
	}

	if player1 == "" || player2 == "" || player1 == player2 {
		return apperror.ErrInvalidPlayers
	}

	that.players = [2]string{player1, player2}
	that.current = player1
	that.status = StatusChoosing

	return nil
}

// ParseSign accepts "X"/"O" in any case, or "1"/"2" for X/O.
func ParseSign(choice string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(choice)) {
	case "X", "1":
		return MarkX, nil
	case "O", "2":
		return MarkO, nil
	default:
		return MarkEmpty, fmt.Errorf("%w: %q", apperror.ErrInvalidSign, choice)
	}
}

// AssignSigns gives the chosen sign to the choosing player and the other one to the opponent.
// The choosing player makes the first move. On error the game is left unchanged.
func (that *Game) AssignSigns(choosingPlayer, choice string) error {
	if err := that.confirmStatus(StatusChoosing); err != nil {
		return err
	}

	if !that.IsPlayer(choosingPlayer) {
		return apperror.ErrNotAPlayer
	}

	if choosingPlayer != that.current {
		return apperror.ErrNotYourTurn
	}

	mark, err := ParseSign(choice)
	if err != nil {
		return err
	}

	that.signs[mark] = choosingPlayer
	that.signs[mark.Opposite()] = that.opponentOf(choosingPlayer)
	that.currentMark = mark
	that.status = StatusOngoing

	return nil
}

// RequestMove places the current player's mark on cell (1..9).
// Win is checked before draw, and the turn passes only after a successful placement.
func (that *Game) RequestMove(playerID string, cell int) error {
	if err := that.confirmStatus(StatusOngoing); err != nil {
		return err
	}

	if playerID != that.current {
		return apperror.ErrNotYourTurn
	}

	if err := that.board.Place(cell, that.currentMark); err != nil {
		return err
	}

	switch {
	case that.board.HasWin(that.currentMark):
		that.status = StatusWon
		that.winner = that.current
	case that.board.IsFull():
		that.status = StatusDrawn
	default:
		that.current = that.opponentOf(that.current)
		that.currentMark = that.currentMark.Opposite()
	}

	return nil
}

func (that *Game) confirmStatus(expected string) error {
	if that.status == expected {
		return nil
	}

	switch that.status {
	case StatusWaiting:
		return apperror.ErrGameIsNotStarted
	case StatusChoosing:
		return apperror.ErrSignsNotChosen
	case StatusWon, StatusDrawn:
		return apperror.ErrGameFinished
	default:
		return apperror.ErrGameAlreadyStarted
	}
}

func (that *Game) opponentOf(player string) string {
	if player == that.players[0] {
		return that.players[1]
	}

	return that.players[0]
}

func (that *Game) IsPlayer(player string) bool {
	return player != "" && (player == that.players[0] || player == that.players[1])
}

func (that *Game) Status() string {
	return that.status
}

func (that *Game) IsFinished() bool {
	return that.status == StatusWon || that.status == StatusDrawn
}

func (that *Game) Winner() string {
	return that.winner
}

func (that *Game) CurrentPlayer() string {
	return that.current
}

func (that *Game) CurrentMark() Mark {
	return that.currentMark
}

// Board returns a copy of the board. Marks are placed through RequestMove only.
func (that *Game) Board() *Board {
	return that.board.Clone()
}

// SignOf returns the mark of player, or MarkEmpty before signs are assigned.
func (that *Game) SignOf(player string) Mark {
	for mark, name := range that.signs {
		if name == player {
			return mark
		}
	}

	return MarkEmpty
}

func (that *Game) PlayerOf(mark Mark) string {
	return that.signs[mark]
}

// Winners lists the players whose mark currently covers a winning triple.
func (that *Game) Winners() []string {
	winners := make([]string, 0, 1)
	for _, mark := range []Mark{MarkX, MarkO} {
		if player := that.signs[mark]; player != "" && that.board.HasWin(mark) {
			winners = append(winners, player)
		}
	}

	return winners
}

// Render draws the board as a 3x3 text grid.
func (that *Game) Render() string {
	var sb strings.Builder

	cells := that.board.Cells()
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}

		for col := 0; col < 3; col++ {
			mark := cells[row*3+col]
			if mark == MarkEmpty {
				mark = " "
			}

			if col > 0 {
				sb.WriteString("|")
			}

			sb.WriteString(" " + string(mark) + " ")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func (that *Game) Snapshot() GameState {
	state := GameState{
		Board:  that.board.Cells(),
		Grid:   that.Render(),
		Status: that.status,
		Winner: that.winner,
	}

	if !that.IsFinished() {
		state.Turn = that.current
		state.Sign = that.currentMark
	}

	if len(that.signs) > 0 {
		state.Signs = make(map[Mark]string, len(that.signs))
		for mark, player := range that.signs {
			state.Signs[mark] = player
		}
	}

	return state
}
