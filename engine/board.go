// Package engine computes optimal tic-tac-toe moves with an alpha-beta
// search backed by a transposition cache and a small opening book.
package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Cell is the content of a single board square.
type Cell uint8

const (
	Empty Cell = iota
	// Max is the engine's own side.
	Max
	// Min is the opponent.
	Min
)

// CellFromInt converts the wire encoding (0, 1, 2) into a Cell.
func CellFromInt(v int) (Cell, bool) {
	switch v {
	case 0:
		return Empty, true
	case 1:
		return Max, true
	case 2:
		return Min, true
	default:
		return Empty, false
	}
}

// String returns the wire digit of the cell.
func (c Cell) String() string {
	switch c {
	case Max:
		return "1"
	case Min:
		return "2"
	default:
		return "0"
	}
}

// Opponent returns the other side. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Max:
		return Min
	case Min:
		return Max
	default:
		return Empty
	}
}

// Board is a 3x3 grid stored row by row, indices 0 through 8.
type Board [9]Cell

// String returns the board as nine wire digits, e.g. "000020000".
func (b Board) String() string {
	var s strings.Builder
	s.Grow(len(b))
	for _, c := range b {
		s.WriteString(c.String())
	}
	return s.String()
}

// ParseBoard parses nine wire digits, as produced by Board.String.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != len(b) {
		return Board{}, fmt.Errorf("board must have %d cells, got %d", len(b), len(s))
	}
	for i := range len(s) {
		c, ok := CellFromInt(int(s[i]) - '0')
		if !ok {
			return Board{}, fmt.Errorf("invalid cell %q at index %d", s[i], i)
		}
		b[i] = c
	}
	return b, nil
}

// Code returns the base-3 encoding of the board. Every board has a distinct
// code in [0, 3^9).
func (b Board) Code() uint16 {
	var code uint16
	for _, c := range b {
		code = code*3 + uint16(c)
	}
	return code
}

// IsEmptyAt reports whether the cell at i is free.
func (b Board) IsEmptyAt(i int) bool {
	return i >= 0 && i < len(b) && b[i] == Empty
}

// EmptyCells lists the free indices in ascending order.
func (b Board) EmptyCells() []int {
	return lo.Filter(cellIndices[:], func(i int, _ int) bool {
		return b[i] == Empty
	})
}

// place puts c on i. The caller must retract it with undo on every path.
func (b *Board) place(i int, c Cell) { b[i] = c }

func (b *Board) undo(i int) { b[i] = Empty }

var cellIndices = [9]int{0, 1, 2, 3, 4, 5, 6, 7, 8}
