package engine

import "fmt"

// openingBook maps the code of a very early board (side to move implied) to
// its preferred replies, best first.
var openingBook = buildOpeningBook(map[string][]int{
	// Empty board: center, else a corner.
	"000000000": {4, 0, 2, 6, 8},
	// Opponent took the center: take a corner.
	"000020000": {0, 2, 6, 8},
	// Opponent opened on the edge or a corner: take the center.
	"200000000": {4},
	"020000000": {4},
	"000000002": {4},
	"000000020": {4},
})

func buildOpeningBook(src map[string][]int) map[uint16][]int {
	book := make(map[uint16][]int, len(src))
	for s, moves := range src {
		b, err := ParseBoard(s)
		if err != nil {
			panic(fmt.Sprintf("invalid opening book board %q: %v", s, err))
		}
		book[b.Code()] = moves
	}
	return book
}

// OpeningMove returns the first still-empty reply the opening book lists
// for b.
func OpeningMove(b *Board) (int, bool) {
	for _, m := range openingBook[b.Code()] {
		if b[m] == Empty {
			return m, true
		}
	}
	return -1, false
}

// OpeningBookSize returns the number of positions in the opening book.
func OpeningBookSize() int {
	return len(openingBook)
}
