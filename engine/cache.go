package engine

// DefaultCacheLimit is the entry count above which a cache is dropped in
// full at the start of the next move computation.
const DefaultCacheLimit = 10000

// Key identifies a board together with the side to move.
type Key uint16

// KeyFor returns the cache key of b with the given side to move. Boards that
// differ only by side to move get different keys.
func KeyFor(b *Board, maximizing bool) Key {
	k := Key(b.Code()) << 1
	if maximizing {
		k |= 1
	}
	return k
}

// Bound tells how a cached score relates to the true minimax value.
type Bound uint8

const (
	// Exact scores are the minimax value of the node.
	Exact Bound = iota
	// Lower scores come from a beta cutoff; the true value is at least
	// the score.
	Lower
	// Upper scores come from a search that never raised alpha; the true
	// value is at most the score.
	Upper
)

// Entry is a cached search result. Win and loss scores are stored relative
// to the node they were computed at, so the same entry is valid whatever
// depth the node is reached at later.
type Entry struct {
	Score int
	Bound Bound
}

func newEntry(score, depth int, bound Bound) Entry {
	switch {
	case score > 0:
		score += depth
	case score < 0:
		score -= depth
	}
	return Entry{Score: score, Bound: bound}
}

// ScoreAt converts the stored score back to a node depth plies below the
// search root.
func (e Entry) ScoreAt(depth int) int {
	switch {
	case e.Score > 0:
		return e.Score - depth
	case e.Score < 0:
		return e.Score + depth
	default:
		return 0
	}
}

// Cache is a transposition cache. It is not safe for concurrent use; see
// Engine for a locked wrapper.
type Cache struct {
	entries map[Key]Entry
	limit   int
}

// NewCache creates an empty cache that ResetIfFull drops once it holds more
// than limit entries. A non-positive limit selects DefaultCacheLimit.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &Cache{
		entries: make(map[Key]Entry),
		limit:   limit,
	}
}

// Get returns the entry stored under k.
func (c *Cache) Get(k Key) (Entry, bool) {
	e, ok := c.entries[k]
	return e, ok
}

// Put stores e under k, replacing any previous entry.
func (c *Cache) Put(k Key, e Entry) {
	c.entries[k] = e
}

// Size returns the number of entries.
func (c *Cache) Size() int {
	return len(c.entries)
}

// Limit returns the configured reset threshold.
func (c *Cache) Limit() int {
	return c.limit
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// ResetIfFull clears the cache if it holds more than its limit and reports
// whether it did.
func (c *Cache) ResetIfFull() bool {
	if len(c.entries) <= c.limit {
		return false
	}
	c.Clear()
	return true
}
