package entity

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
)

// Mark is the symbol a player puts on the board.
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

const BoardSize = 9

// WinCombos lists the winning triples, 1-indexed in row-major order.
var WinCombos = [][3]int{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
	{1, 4, 7},
	{2, 5, 8},
	{3, 6, 9},
	{1, 5, 9},
	{3, 5, 7},
}

func (m Mark) IsValid() bool {
	return m == MarkX || m == MarkO
}

// Opposite returns the other player's mark. MarkEmpty stays empty.
func (m Mark) Opposite() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

// Board is a 3x3 grid addressed by cell indices 1..9.
type Board struct {
	cells     [BoardSize]Mark
	positions map[Mark][]int
}

func NewBoard() *Board {
	return &Board{
		positions: map[Mark][]int{
			MarkX: {},
			MarkO: {},
		},
	}
}

// Place puts mark on the cell. The board is left untouched on error.
func (that *Board) Place(index int, mark Mark) error {
	if index < 1 || index > BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOutOfRange, index)
	}

	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidSign, mark)
	}

	if that.cells[index-1] != MarkEmpty {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, index)
	}

	that.cells[index-1] = mark
	that.positions[mark] = append(that.positions[mark], index)

	return nil
}

func (that *Board) IsFull() bool {
	return len(that.positions[MarkX])+len(that.positions[MarkO]) == BoardSize
}

// HasWin reports whether the cells held by mark cover any winning triple.
func (that *Board) HasWin(mark Mark) bool {
	held := that.positions[mark]
	if len(held) < 3 {
		return false
	}

	for _, combo := range WinCombos {
		if slices.Contains(held, combo[0]) && slices.Contains(held, combo[1]) && slices.Contains(held, combo[2]) {
			return true
		}
	}

	return false
}

// Clone returns an independent copy of the board.
func (that *Board) Clone() *Board {
	return &Board{
		cells: that.cells,
		positions: map[Mark][]int{
			MarkX: slices.Clone(that.positions[MarkX]),
			MarkO: slices.Clone(that.positions[MarkO]),
		},
	}
}

func (that *Board) Cells() [BoardSize]Mark {
	return that.cells
}

// Positions returns a copy of the cell indices held by mark, in placement order.
func (that *Board) Positions(mark Mark) []int {
	return slices.Clone(that.positions[mark])
}

func (that *Board) EmptyCells() []int {
	empty := make([]int, 0, BoardSize)
	for i, cell := range that.cells {
		if cell == MarkEmpty {
			empty = append(empty, i+1)
		}
	}

	return empty
}
