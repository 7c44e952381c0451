package engine

import "github.com/samber/lo"

// movePriority is center first, then corners, then edges.
var movePriority = [9]int{4, 0, 2, 6, 8, 1, 3, 5, 7}

// OrderedMoves returns the empty cells of b in static priority order.
func OrderedMoves(b *Board) []int {
	return lo.Filter(movePriority[:], func(i int, _ int) bool {
		return b[i] == Empty
	})
}
