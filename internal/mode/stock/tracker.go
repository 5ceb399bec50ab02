package stock

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-logr/logr"

	"github.com/nginx/pricewatch/internal/framework/observer"
)

// MetricsCollector provides the dispatch metrics of every tracked symbol.
type MetricsCollector interface {
	// ForSymbol returns the collector of the symbol.
	ForSymbol(symbol string) observer.DispatchCollector
	// Forget drops the metrics of the symbol.
	Forget(symbol string)
}

// TrackerConfig holds the dependencies of a Tracker.
type TrackerConfig struct {
	// Collector provides the dispatch metrics of the tracked Stocks. Nil disables metrics.
	Collector MetricsCollector
	// Logger is the logger of the Tracker and its Stocks.
	Logger logr.Logger
}

// Tracker owns one Stock per tracked symbol.
// A Stock is created when its symbol is tracked and retired when its symbol is untracked.
type Tracker struct {
	collector MetricsCollector
	stocks    map[string]*Stock
	logger    logr.Logger
	lock      sync.RWMutex
}

// NewTracker creates a new Tracker with no tracked symbols.
func NewTracker(cfg TrackerConfig) *Tracker {
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Tracker{
		collector: cfg.Collector,
		stocks:    make(map[string]*Stock),
		logger:    logger,
	}
}

// Track starts tracking the symbol and returns its Stock. If the symbol is already tracked, its existing Stock is
// returned.
func (t *Tracker) Track(symbol string) (*Stock, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if s, exists := t.stocks[symbol]; exists {
		return s, nil
	}

	var collector observer.DispatchCollector
	if t.collector != nil {
		collector = t.collector.ForSymbol(symbol)
	}

	s, err := New(Config{
		Symbol:    symbol,
		Logger:    t.logger.WithName("stock"),
		Collector: collector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to track %q: %w", symbol, err)
	}

	t.stocks[symbol] = s
	t.logger.Info("Tracking symbol", "symbol", symbol, "number of tracked symbols", len(t.stocks))

	return s, nil
}

// Get returns the Stock of a tracked symbol.
func (t *Tracker) Get(symbol string) (*Stock, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	s, exists := t.stocks[symbol]
	return s, exists
}

// Untrack stops tracking the symbol and retires its Stock. It returns false if the symbol is not tracked.
func (t *Tracker) Untrack(symbol string) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.untrack(symbol)
}

// UntrackAll stops tracking every symbol.
func (t *Tracker) UntrackAll() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for symbol := range t.stocks {
		t.untrack(symbol)
	}
}

// Symbols returns the tracked symbols in lexical order.
func (t *Tracker) Symbols() []string {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return slices.Sorted(maps.Keys(t.stocks))
}

// untrack must be called with the lock held.
func (t *Tracker) untrack(symbol string) bool {
	s, exists := t.stocks[symbol]
	if !exists {
		return false
	}

	s.retire()
	delete(t.stocks, symbol)
	if t.collector != nil {
		t.collector.Forget(symbol)
	}

	t.logger.Info("Stopped tracking symbol", "symbol", symbol, "number of tracked symbols", len(t.stocks))

	return true
}
