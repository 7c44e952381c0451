package engine

const (
	// WinBase is the score of a win found at depth 0. Each extra ply
	// costs one point, so faster wins and slower losses are preferred.
	WinBase = 100
	// FlatWin is the depth-insensitive score of a completed line.
	FlatWin = 10
)

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6},            // diagonals
}

// IsMovesLeft reports whether any cell is still empty.
func IsMovesLeft(b *Board) bool {
	for _, c := range b {
		if c == Empty {
			return true
		}
	}
	return false
}

// Winner returns the side holding a completed line, or Empty if there is
// none. Boards where both sides hold a line are not reachable and the
// first line found wins.
func Winner(b *Board) Cell {
	for _, l := range lines {
		c := b[l[0]]
		if c != Empty && c == b[l[1]] && c == b[l[2]] {
			return c
		}
	}
	return Empty
}

// Evaluate scores a board found depth plies below the root of a search:
// WinBase-depth when Max holds a line, depth-WinBase when Min does and 0
// otherwise. A zero score does not tell an ongoing game from a draw; use
// IsMovesLeft for that.
func Evaluate(b *Board, depth int) int {
	switch Winner(b) {
	case Max:
		return WinBase - depth
	case Min:
		return depth - WinBase
	default:
		return 0
	}
}

// FlatEvaluate is the depth-insensitive form of Evaluate: +FlatWin, -FlatWin
// or 0.
func FlatEvaluate(b *Board) int {
	switch Winner(b) {
	case Max:
		return FlatWin
	case Min:
		return -FlatWin
	default:
		return 0
	}
}
