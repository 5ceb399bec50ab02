package stock

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	promcollectors "github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/nginx/pricewatch/internal/framework/metrics/collectors"
	"github.com/nginx/pricewatch/internal/framework/observer"
	"github.com/nginx/pricewatch/internal/mode/stock/config"
)

// StartWatcher tracks the symbols of cfg.Watch, registers their subscribers and applies the ticks read from
// cfg.Input until the input ends or ctx is done.
func StartWatcher(ctx context.Context, cfg config.Config) error {
	if cfg.Input == nil || cfg.Output == nil {
		return errors.New("input and output must be set")
	}

	levelSetter := NewZapLogLevelSetter(cfg.AtomicLevel)
	if err := levelSetter.SetLevel(cfg.Watch.LogLevel); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}

	logger := cfg.Logger
	logger.Info(
		"Log level set",
		"level", cfg.Watch.LogLevel,
		"debugEnabled", levelSetter.Enabled(zapcore.DebugLevel),
	)

	var (
		metricsCollector MetricsCollector = collectors.NewDispatchNoopCollector()
		promRegistry     *prometheus.Registry
	)

	if cfg.MetricsConfig.Enabled {
		dispatchCollector := collectors.NewDispatchCollector(map[string]string{"version": cfg.Version})

		promRegistry = prometheus.NewRegistry()
		if err := registerCollectors(
			promRegistry,
			dispatchCollector,
			promcollectors.NewGoCollector(),
			promcollectors.NewProcessCollector(promcollectors.ProcessCollectorOpts{}),
		); err != nil {
			return err
		}

		metricsCollector = dispatchCollector
	}

	tracker := NewTracker(TrackerConfig{
		Logger:    logger.WithName("tracker"),
		Collector: metricsCollector,
	})
	defer tracker.UntrackAll()

	if err := subscribeAll(tracker, cfg.Watch, cfg.Output); err != nil {
		return err
	}

	ticksCh := make(chan Tick)
	readErrCh := make(chan error, 1)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(runCtx)

	// The reader is not part of the group: a read from a terminal cannot be interrupted, and the watcher must not
	// wait for it once ctx is done.
	go func() {
		defer close(ticksCh)
		readErrCh <- ReadTicks(egCtx, cfg.Input, ticksCh)
	}()

	feed := NewFeed(FeedConfig{
		Tracker:         tracker,
		TicksCh:         ticksCh,
		Logger:          logger.WithName("feed"),
		DispatchTimeout: cfg.Watch.DispatchTimeout,
	})

	eg.Go(func() error {
		// stops the metrics server once the feed is done
		defer cancel()

		if err := feed.Start(egCtx); err != nil {
			return err
		}

		select {
		case err := <-readErrCh:
			return err
		default:
			return nil
		}
	})

	if promRegistry != nil {
		eg.Go(func() error {
			return serveMetrics(egCtx, logger.WithName("metrics"), cfg.MetricsConfig.Port, promRegistry)
		})
	}

	logger.Info("Watching prices", "symbols", tracker.Symbols(), "subscribers", len(cfg.Watch.Subscribers))

	return eg.Wait()
}

func registerCollectors(registry prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}
	return nil
}

// subscribeAll tracks every symbol of the WatchSpec and registers its subscribers.
// Each symbol gets its own Chart and Alert, so a subscriber handle belongs to exactly one Stock.
func subscribeAll(tracker *Tracker, spec config.WatchSpec, out io.Writer) error {
	notifier := NewWriterNotifier(out)

	for _, symbol := range spec.Symbols {
		s, err := tracker.Track(symbol)
		if err != nil {
			return err
		}

		for _, sub := range spec.SubscribersOf(symbol) {
			var subscriber observer.Subscriber[float64]

			switch sub.Kind {
			case config.SubscriberKindChart:
				subscriber = NewChart(fmt.Sprintf("%s %s", sub.Name, symbol), out)
			case config.SubscriberKindAlert:
				subscriber = NewAlert(sub.Name, symbolNotifier{symbol: symbol, notifier: notifier})
			default:
				return fmt.Errorf("unsupported subscriber kind %q", sub.Kind)
			}

			if err := s.Register(subscriber); err != nil {
				return err
			}
		}
	}

	return nil
}

// symbolNotifier prefixes every message with the symbol.
type symbolNotifier struct {
	notifier Notifier
	symbol   string
}

func (n symbolNotifier) Notify(ctx context.Context, channel, message string) error {
	return n.notifier.Notify(ctx, channel, n.symbol+": "+message)
}
