package stock

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
)

// FeedConfig holds the dependencies of a Feed.
type FeedConfig struct {
	// Tracker resolves the Stock of every tick.
	Tracker *Tracker
	// TicksCh is the channel the Feed consumes.
	TicksCh <-chan Tick
	// Logger is the logger of the Feed.
	Logger logr.Logger
	// DispatchTimeout bounds each price dispatch. Zero means no bound.
	DispatchTimeout time.Duration
}

// Feed applies ticks to the tracked Stocks, one tick at a time, in the order they arrive.
type Feed struct {
	cfg    FeedConfig
	logger logr.Logger

	applied int
	dropped int
}

// NewFeed creates a new Feed.
func NewFeed(cfg FeedConfig) *Feed {
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	return &Feed{
		cfg:    cfg,
		logger: logger,
	}
}

// Start starts the Feed.
// This method will block until the ctx is closed or the ticks channel is closed.
func (f *Feed) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Stopping feed", "applied", f.applied, "dropped", f.dropped)
			return nil
		case tick, ok := <-f.cfg.TicksCh:
			if !ok {
				f.logger.Info("Ticks channel closed; stopping feed", "applied", f.applied, "dropped", f.dropped)
				return nil
			}

			f.apply(ctx, tick)
		}
	}
}

func (f *Feed) apply(ctx context.Context, tick Tick) {
	s, exists := f.cfg.Tracker.Get(tick.Symbol)
	if !exists {
		f.dropped++
		f.logger.V(1).Info("Dropping tick of untracked symbol", "symbol", tick.Symbol)
		return
	}

	dispatchCtx := ctx
	if f.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, f.cfg.DispatchTimeout)
		defer cancel()
	}

	result, err := s.SetPrice(dispatchCtx, tick.Price)
	if err != nil {
		// the symbol was untracked after Get
		f.dropped++
		f.logger.Error(err, "Failed to apply tick", "symbol", tick.Symbol)
		return
	}

	f.applied++

	if err := result.Err(); err != nil {
		f.logger.Error(err, "Some subscribers failed", "symbol", tick.Symbol, "failed", len(result.Failed))
	}
	if len(result.NotDelivered) > 0 {
		f.logger.Error(
			errors.New("dispatch deadline exceeded"),
			"Some subscribers were not notified",
			"symbol", tick.Symbol,
			"notDelivered", len(result.NotDelivered),
		)
	}
}
