package engine

// Infinity is larger than any score a search can return.
const Infinity = 1000

// Search returns the alpha-beta value of b for Max, where depth is the
// number of plies already played below the root of the search and
// maximizing tells whether Max is to move. Results are read from and
// written to c. b is modified during the search and restored before
// Search returns.
func Search(b *Board, c *Cache, depth int, maximizing bool, alpha, beta int) int {
	s := searcher{cache: c}
	return s.search(b, depth, maximizing, alpha, beta)
}

type searcher struct {
	cache *Cache
	nodes int
	hits  int
}

func (s *searcher) search(b *Board, depth int, maximizing bool, alpha, beta int) int {
	s.nodes++

	key := KeyFor(b, maximizing)
	origAlpha, origBeta := alpha, beta

	if e, ok := s.cache.Get(key); ok {
		v := e.ScoreAt(depth)
		switch e.Bound {
		case Exact:
			s.hits++
			return v
		case Lower:
			alpha = max(alpha, v)
		case Upper:
			beta = min(beta, v)
		}
		if alpha >= beta {
			s.hits++
			return v
		}
	}

	score := Evaluate(b, depth)
	if score != 0 || !IsMovesLeft(b) {
		s.cache.Put(key, newEntry(score, depth, Exact))
		return score
	}

	moves := OrderedMoves(b)

	var best int
	if maximizing {
		best = -Infinity
		for _, m := range moves {
			b.place(m, Max)
			v := s.search(b, depth+1, false, alpha, beta)
			b.undo(m)

			best = max(best, v)
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
	} else {
		best = Infinity
		for _, m := range moves {
			b.place(m, Min)
			v := s.search(b, depth+1, true, alpha, beta)
			b.undo(m)

			best = min(best, v)
			beta = min(beta, best)
			if beta <= alpha {
				break
			}
		}
	}

	bound := Exact
	switch {
	case best <= origAlpha:
		bound = Upper
	case best >= origBeta:
		bound = Lower
	}
	s.cache.Put(key, newEntry(best, depth, bound))

	return best
}
