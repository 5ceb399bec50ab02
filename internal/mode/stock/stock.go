package stock

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/nginx/pricewatch/internal/framework/observer"
	"github.com/nginx/pricewatch/internal/mode/stock/config"
)

// Config holds the dependencies of a Stock.
type Config struct {
	// Collector records the dispatch metrics of the Stock. Nil disables metrics.
	Collector observer.DispatchCollector
	// Logger is the logger of the Stock.
	Logger logr.Logger
	// Symbol is the ticker symbol of the Stock.
	Symbol string
}

// Stock is the price of a single tracked symbol. Every price update is pushed to the subscribers of the Stock.
type Stock struct {
	subject *observer.Subject[float64]
	logger  logr.Logger
	symbol  string
}

// New creates a new Stock.
func New(cfg Config) (*Stock, error) {
	if err := config.ValidateSymbol(cfg.Symbol); err != nil {
		return nil, fmt.Errorf("invalid stock symbol: %w", err)
	}

	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	logger = logger.WithValues("symbol", cfg.Symbol)

	return &Stock{
		subject: observer.NewSubject[float64](observer.SubjectConfig{
			Logger:    logger,
			Collector: cfg.Collector,
		}),
		logger: logger,
		symbol: cfg.Symbol,
	}, nil
}

// Symbol returns the ticker symbol.
func (s *Stock) Symbol() string {
	return s.symbol
}

// Price returns the latest price. It is 0 until the first SetPrice.
func (s *Stock) Price() float64 {
	return s.subject.Value()
}

// Register subscribes to the price updates of the Stock.
func (s *Stock) Register(subscriber observer.Subscriber[float64]) error {
	if err := s.subject.Register(subscriber); err != nil {
		return fmt.Errorf("failed to register subscriber for %s: %w", s.symbol, err)
	}
	return nil
}

// Deregister unsubscribes from the price updates of the Stock.
func (s *Stock) Deregister(subscriber observer.Subscriber[float64]) error {
	if err := s.subject.Deregister(subscriber); err != nil {
		return fmt.Errorf("failed to deregister subscriber for %s: %w", s.symbol, err)
	}
	return nil
}

// Subscribers returns the subscribers of the Stock in notification order.
func (s *Stock) Subscribers() []observer.Subscriber[float64] {
	return s.subject.Subscribers()
}

// SetPrice updates the price and notifies every subscriber, even if the price did not change.
// Subscriber failures are reported in the result and do not cause an error.
func (s *Stock) SetPrice(ctx context.Context, price float64) (observer.DispatchResult[float64], error) {
	result, err := s.subject.SetValue(ctx, price)
	if err != nil {
		return result, fmt.Errorf("failed to set price of %s: %w", s.symbol, err)
	}

	s.logger.V(1).Info(
		"Price updated",
		"price", price,
		"delivered", len(result.Delivered),
		"failed", len(result.Failed),
		"notDelivered", len(result.NotDelivered),
	)

	return result, nil
}

// retire stops the Stock. A retired Stock rejects price updates and subscription changes.
func (s *Stock) retire() {
	s.subject.Retire()
}
