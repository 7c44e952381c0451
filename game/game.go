// Package game implements a match of Tic-Tac-Toe between two players.
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twipi/tttbot/engine"
)

// Player represents a player.
type Player uint8

const (
	NoPlayer Player = iota
	Player1
	Player2
)

// String returns the string representation of the player.
func (p Player) String() string {
	switch p {
	case Player1:
		return "X"
	case Player2:
		return "O"
	default:
		return " "
	}
}

// Opponent returns the opponent of the player.
func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// ParsePosition parses a human position, 1 through 9 in reading order, into
// a board index.
func ParsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 9 {
		return 0, fmt.Errorf("invalid position %q: must be a number between 1 and 9", s)
	}
	return n - 1, nil
}

// Board represents a Tic-Tac-Toe board, indexed row by row from 0 to 8.
type Board [9]Player

func (b Board) String() string {
	var s strings.Builder
	s.WriteByte('[')
	for r := range 3 {
		if r > 0 {
			s.WriteByte(' ')
		}

		s.WriteByte('[')
		for c := range 2 {
			s.WriteString(b[r*3+c].String())
			s.WriteByte(' ')
		}
		s.WriteString(b[r*3+2].String())
		s.WriteString("]")

		if r < 2 {
			s.WriteString("\n")
		} else {
			s.WriteByte(']')
		}
	}
	return s.String()
}

// At returns the player at the given index.
func (b Board) At(i int) Player {
	if i < 0 || i >= len(b) {
		return NoPlayer
	}
	return b[i]
}

// PlacePiece places a player at the given index.
// If the index is invalid or taken, returns false.
func (b *Board) PlacePiece(p Player, i int) bool {
	if i < 0 || i >= len(b) || b[i] != NoPlayer {
		return false
	}
	b[i] = p
	return true
}

// EngineBoard returns the board as seen by self: self's pieces become
// [engine.Max] and the opponent's [engine.Min].
func (b Board) EngineBoard(self Player) engine.Board {
	var eb engine.Board
	for i, p := range b {
		switch p {
		case self:
			eb[i] = engine.Max
		case self.Opponent():
			eb[i] = engine.Min
		}
	}
	return eb
}

// HasEnded is a convenience method around [GameState] that returns true if the
// game has ended.
func (b Board) HasEnded() bool {
	_, ended := b.GameState()
	return ended
}

// GameState returns the state of the game.
// If the game is over, returns the winner and true or NoPlayer and true if it's
// a draw.
// Otherwise, returns NoPlayer and false.
func (b Board) GameState() (winner Player, ended bool) {
	eb := b.EngineBoard(Player1)
	switch engine.Winner(&eb) {
	case engine.Max:
		return Player1, true
	case engine.Min:
		return Player2, true
	}
	return NoPlayer, !engine.IsMovesLeft(&eb)
}

// Game represents a game of Tic-Tac-Toe. Player1 always moves first.
type Game struct {
	Board
	Turns int
}

// NewGame creates a new game of Tic-Tac-Toe.
func NewGame() *Game {
	return &Game{
		Board: Board{},
	}
}

func (g *Game) String() string {
	return fmt.Sprintf("turn %d:\n%s", g.Turns, g.Board)
}

// Turn returns the current player.
func (g *Game) Turn() Player {
	if g.Turns%2 == 0 {
		return Player1
	}
	return Player2
}

// MakeMove makes a move for the current player at the given index.
// Moves after the game has ended are rejected.
func (g *Game) MakeMove(i int) bool {
	if g.HasEnded() {
		return false
	}
	if g.Board.PlacePiece(g.Turn(), i) {
		g.Turns++
		return true
	}
	return false
}
