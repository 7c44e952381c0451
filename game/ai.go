package game

import (
	"github.com/twipi/tttbot/engine"
)

// AI represents an AI player.
// Moves are chosen by the shared search engine, which plays the AI's side as
// the maximizing player.
type AI struct {
	game   *Game
	player Player
	engine *engine.Engine
}

// NewAI creates a new AI player.
func NewAI(g *Game, p Player, e *engine.Engine) *AI {
	return &AI{game: g, player: p, engine: e}
}

// Player returns the side the AI plays.
func (a *AI) Player() Player {
	return a.player
}

// NextMove returns the next move that the AI should make.
// If the game is over or it's not the AI's turn, return false.
func (a *AI) NextMove() (int, bool) {
	if a.game.Turn() != a.player || a.game.HasEnded() {
		return -1, false
	}
	res := a.engine.BestMove(a.game.EngineBoard(a.player))
	return res.Move, res.Move >= 0
}

// MakeMove makes the next move for the AI.
// Returns true if the move was made successfully.
func (a *AI) MakeMove() bool {
	pos, ok := a.NextMove()
	if !ok {
		return false
	}
	return a.game.MakeMove(pos)
}
