package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/matryer/is"
)

// flip swaps the sides so the other player can be asked for a move.
func flip(b Board) Board {
	for i, c := range b {
		b[i] = c.Opponent()
	}
	return b
}

func TestFindBestMove(t *testing.T) {
	tests := []struct {
		name   string
		board  string
		want   int
		source Source
	}{
		{"first move takes center", "000000000", 4, SourceBook},
		{"answer center with corner", "000020000", 0, SourceBook},
		{"answer corner with center", "200000000", 4, SourceBook},
		{"answer edge with center", "000000020", 4, SourceBook},
		{"win over block", "110220000", 2, SourceWin},
		{"forced block", "100220000", 5, SourceBlock},
		{"full board", "121211212", -1, SourceNone},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			is := is.New(t)

			b := mustParseBoard(t, test.board)
			res := Analyze(b, NewCache(0))
			is.Equal(res.Move, test.want)
			is.Equal(res.Source, test.source)
			is.Equal(FindBestMove(b, NewCache(0)), test.want)
		})
	}
}

func TestFindBestMoveSearch(t *testing.T) {
	is := is.New(t)

	// Opponent in opposite corners, own marker in the center: only an edge
	// holds the draw.
	b := mustParseBoard(t, "200010002")
	res := Analyze(b, NewCache(0))
	is.Equal(res.Source, SourceSearch)
	is.Equal(res.Score, 0)
	is.Equal(res.Move, 1)
	is.True(res.Nodes > 0)

	// Opponent answered a corner with an adjacent edge: a forced win.
	b = mustParseBoard(t, "120000000")
	res = Analyze(b, NewCache(0))
	is.Equal(res.Source, SourceSearch)
	is.True(res.Score >= forcedWinScore)
}

func TestFindBestMoveIsOptimal(t *testing.T) {
	is := is.New(t)

	c := NewCache(DefaultCacheLimit)
	for _, p := range reachablePositions() {
		b := p.board
		if !p.maximizing || Winner(&b) != Empty || !IsMovesLeft(&b) {
			continue
		}

		m := FindBestMove(b, c)
		is.Equal(b, p.board) // board untouched
		if !b.IsEmptyAt(m) {
			t.Fatalf("board %s: move %d is not an empty cell", b, m)
		}

		best := minimax(&b, 0, true)
		b[m] = Max
		got := minimax(&b, 0, false)
		b[m] = Empty

		if sign(got) != sign(best) {
			t.Fatalf("board %s: move %d scores %d, best achievable %d", b, m, got, best)
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func TestFindBestMoveDeterministic(t *testing.T) {
	is := is.New(t)

	boards := []string{"100020000", "200010002", "020000000", "120000000", "012000000"}

	cold := make(map[string]int)
	for _, s := range boards {
		cold[s] = FindBestMove(mustParseBoard(t, s), NewCache(0))
	}

	// Interleave with unrelated searches on one shared cache, in both
	// directions, and clear it midway.
	c := NewCache(0)
	for round := range 3 {
		if round == 2 {
			c.Clear()
		}
		for i := range boards {
			s := boards[i]
			if round == 1 {
				s = boards[len(boards)-1-i]
			}
			is.Equal(FindBestMove(mustParseBoard(t, s), c), cold[s])
		}
	}
}

func TestSelfPlayDraws(t *testing.T) {
	for first := range 9 {
		t.Run(fmt.Sprintf("first=%d", first), func(t *testing.T) {
			is := is.New(t)

			c := NewCache(0)
			var b Board
			b[first] = Max
			side := Min

			for IsMovesLeft(&b) && Winner(&b) == Empty {
				view := b
				if side == Min {
					view = flip(b)
				}
				m := FindBestMove(view, c)
				is.True(b.IsEmptyAt(m))
				b[m] = side
				side = side.Opponent()
			}

			is.Equal(Evaluate(&b, 0), 0) // draw
		})
	}
}

func TestCacheResetIfFull(t *testing.T) {
	is := is.New(t)

	c := NewCache(2)
	is.Equal(c.Limit(), 2)
	c.Put(1, Entry{})
	c.Put(2, Entry{})
	is.True(!c.ResetIfFull())
	c.Put(3, Entry{})
	is.True(c.ResetIfFull())
	is.Equal(c.Size(), 0)

	is.Equal(NewCache(-1).Limit(), DefaultCacheLimit)
}

func TestAnalyzeResetsFullCache(t *testing.T) {
	is := is.New(t)

	// Keys past 2*3^9 never come out of KeyFor.
	stale := []Key{40000, 40001, 40002}

	c := NewCache(2)
	for _, k := range stale {
		c.Put(k, Entry{Score: 1, Bound: Exact})
	}

	res := Analyze(mustParseBoard(t, "200010002"), c)
	is.Equal(res.Source, SourceSearch)
	is.Equal(res.Move, 1)
	is.Equal(res.CacheDropped, len(stale))
	for _, k := range stale {
		_, ok := c.Get(k)
		is.True(!ok) // stale entry survived the reset
	}
	is.True(c.Size() > 0) // search should refill the cache

	// A cache within its limit is left alone.
	within := NewCache(0)
	within.Put(stale[0], Entry{Score: 1, Bound: Exact})
	res = Analyze(mustParseBoard(t, "000000000"), within)
	is.Equal(res.Source, SourceBook)
	is.Equal(res.CacheDropped, 0)
	is.Equal(within.Size(), 1)
}

func TestKeyFor(t *testing.T) {
	is := is.New(t)

	b := mustParseBoard(t, "120000000")
	is.True(KeyFor(&b, true) != KeyFor(&b, false))

	other := mustParseBoard(t, "210000000")
	is.True(KeyFor(&b, true) != KeyFor(&other, true))
}

func TestEntryScoreAt(t *testing.T) {
	is := is.New(t)

	win := newEntry(WinBase-5, 3, Exact) // win two plies below a node at depth 3
	is.Equal(win.ScoreAt(3), WinBase-5)
	is.Equal(win.ScoreAt(1), WinBase-3)

	loss := newEntry(4-WinBase, 2, Exact)
	is.Equal(loss.ScoreAt(0), 2-WinBase)

	is.Equal(newEntry(0, 7, Upper).ScoreAt(2), 0)
}

func TestOpeningMove(t *testing.T) {
	is := is.New(t)

	is.Equal(OpeningBookSize(), 6)

	b := mustParseBoard(t, "020000000")
	m, ok := OpeningMove(&b)
	is.True(ok)
	is.Equal(m, 4)

	b = mustParseBoard(t, "100000000")
	_, ok = OpeningMove(&b)
	is.True(!ok)
}

func TestEngine(t *testing.T) {
	is := is.New(t)

	e := NewEngine(DefaultCacheLimit, slog.New(slog.NewTextHandler(io.Discard, nil)))
	b := mustParseBoard(t, "200010002")
	want := e.BestMove(b).Move
	is.True(e.CacheSize() > 0)
	is.Equal(e.OpeningBookSize(), OpeningBookSize())

	moves := make([]int, 8)
	var wg sync.WaitGroup
	for i := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			moves[i] = e.BestMove(b).Move
		}()
	}
	wg.Wait()
	for _, m := range moves {
		is.Equal(m, want)
	}

	e.ClearCache()
	is.Equal(e.CacheSize(), 0)
	is.Equal(e.BestMove(b).Move, want)

	small := NewEngine(2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	is.Equal(small.BestMove(b).CacheDropped, 0)
	res := small.BestMove(b)
	is.True(res.CacheDropped > 2) // first search left more than the limit
	is.Equal(res.Move, want)
}
