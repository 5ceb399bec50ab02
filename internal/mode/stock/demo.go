package stock

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

const (
	demoSymbol  = "ACME"
	demoChart   = "Display1"
	demoChannel = "WhatsApp"
)

// RunDemo registers a chart and an alert on a stock, publishes a price to both, deregisters the chart and publishes
// a second price that only the alert receives. Subscribers write to out.
func RunDemo(ctx context.Context, logger logr.Logger, out io.Writer) error {
	s, err := New(Config{Symbol: demoSymbol, Logger: logger})
	if err != nil {
		return err
	}

	chart := NewChart(demoChart, out)
	alert := NewAlert(demoChannel, NewWriterNotifier(out))

	if err := s.Register(chart); err != nil {
		return err
	}
	if err := s.Register(alert); err != nil {
		return err
	}

	if err := demoSetPrice(ctx, s, 5.0); err != nil {
		return err
	}

	if err := s.Deregister(chart); err != nil {
		return err
	}

	return demoSetPrice(ctx, s, 1.0)
}

func demoSetPrice(ctx context.Context, s *Stock, price float64) error {
	result, err := s.SetPrice(ctx, price)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to deliver price %s: %w", formatPrice(price), err)
	}
	if len(result.NotDelivered) > 0 {
		return fmt.Errorf(
			"price %s was not delivered to %d subscribers: %w",
			formatPrice(price),
			len(result.NotDelivered),
			context.Cause(ctx),
		)
	}

	return nil
}
