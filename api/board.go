package api

import (
	"encoding/json"
	"errors"

	"github.com/twipi/tttbot/engine"
)

var (
	errBoardNotJSON  = errors.New("invalid board parameter: must be a JSON array")
	errBoardLength   = errors.New("board must be an array of 9 cells")
	errBoardAlphabet = errors.New("board may only contain the values 0, 1 or 2")
	errNoMovesLeft   = errors.New("no moves available")
)

// parseBoard validates a board given as a JSON array of nine values out of
// 0 (empty), 1 (engine) and 2 (opponent) that still has an empty cell.
func parseBoard(raw string) (engine.Board, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return engine.Board{}, errBoardNotJSON
	}

	cells, ok := v.([]any)
	if !ok || len(cells) != len(engine.Board{}) {
		return engine.Board{}, errBoardLength
	}

	var b engine.Board
	for i, cell := range cells {
		f, ok := cell.(float64)
		if !ok || f != float64(int(f)) {
			return engine.Board{}, errBoardAlphabet
		}
		c, ok := engine.CellFromInt(int(f))
		if !ok {
			return engine.Board{}, errBoardAlphabet
		}
		b[i] = c
	}

	if !engine.IsMovesLeft(&b) {
		return engine.Board{}, errNoMovesLeft
	}
	return b, nil
}
