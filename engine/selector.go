package engine

// forcedWinScore is the lowest search score treated as a forced win. Wins
// lose one point per ply and a game lasts at most 9 plies.
const forcedWinScore = WinBase - 10

// Source tells which stage of the move selector picked a move.
type Source uint8

const (
	SourceNone Source = iota
	SourceBook
	SourceWin
	SourceBlock
	SourceSearch
)

func (s Source) String() string {
	switch s {
	case SourceBook:
		return "book"
	case SourceWin:
		return "win"
	case SourceBlock:
		return "block"
	case SourceSearch:
		return "search"
	default:
		return "none"
	}
}

// Result describes a selected move.
type Result struct {
	// Move is the chosen index, or -1 if the board has no empty cell.
	Move   int
	Source Source
	// Score is the search value of Move. It is only set when Source is
	// SourceSearch.
	Score int
	// Nodes and CacheHits count the search work done for this move.
	Nodes     int
	CacheHits int
	// CacheDropped is the number of entries thrown away because the cache
	// was over its limit when the move was asked for.
	CacheDropped int
}

// FindBestMove returns the best move for Max on b, or -1 if b is full.
// b is passed by value and never modified.
func FindBestMove(b Board, c *Cache) int {
	return Analyze(b, c).Move
}

// Analyze is FindBestMove with details on how the move was chosen. A cache
// over its limit is reset before anything else.
func Analyze(b Board, c *Cache) Result {
	var dropped int
	if size := c.Size(); c.ResetIfFull() {
		dropped = size
	}

	res := analyze(b, c)
	res.CacheDropped = dropped
	return res
}

func analyze(b Board, c *Cache) Result {
	if m, ok := OpeningMove(&b); ok {
		return Result{Move: m, Source: SourceBook}
	}

	empty := b.EmptyCells()
	if len(empty) == 0 {
		return Result{Move: -1}
	}

	for _, i := range empty {
		b.place(i, Max)
		v := FlatEvaluate(&b)
		b.undo(i)
		if v > 0 {
			return Result{Move: i, Source: SourceWin}
		}
	}

	for _, i := range empty {
		b.place(i, Min)
		v := FlatEvaluate(&b)
		b.undo(i)
		if v < 0 {
			return Result{Move: i, Source: SourceBlock}
		}
	}

	s := searcher{cache: c}
	res := Result{Move: -1, Score: -Infinity, Source: SourceSearch}
	for _, m := range OrderedMoves(&b) {
		b.place(m, Max)
		v := s.search(&b, 0, false, -Infinity, Infinity)
		b.undo(m)

		if v > res.Score {
			res.Move = m
			res.Score = v
		}
		if v >= forcedWinScore {
			break
		}
	}
	res.Nodes = s.nodes
	res.CacheHits = s.hits

	return res
}
