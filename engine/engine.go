package engine

import (
	"log/slog"
	"sync"
)

// Engine owns a process-wide transposition cache and serializes every
// search that uses it. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	cache  *Cache
	logger *slog.Logger
}

// NewEngine creates an engine whose cache is reset once it holds more than
// cacheLimit entries.
func NewEngine(cacheLimit int, logger *slog.Logger) *Engine {
	return &Engine{
		cache:  NewCache(cacheLimit),
		logger: logger,
	}
}

// BestMove selects the best move for Max on b. See Analyze.
func (e *Engine) BestMove(b Board) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := Analyze(b, e.cache)
	if res.CacheDropped > 0 {
		e.logger.Info(
			"transposition cache reset",
			"size", res.CacheDropped,
			"limit", e.cache.Limit())
	}

	e.logger.Debug(
		"selected move",
		"board", b.String(),
		"move", res.Move,
		"source", res.Source.String(),
		"score", res.Score,
		"nodes", res.Nodes,
		"cache_hits", res.CacheHits,
		"cache_size", e.cache.Size())

	return res
}

// ClearCache empties the transposition cache. Only later searches are
// affected.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache.Clear()
	e.logger.Debug("transposition cache cleared")
}

// CacheSize returns the number of cached positions.
func (e *Engine) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Size()
}

// OpeningBookSize returns the number of opening book positions.
func (e *Engine) OpeningBookSize() int {
	return OpeningBookSize()
}
