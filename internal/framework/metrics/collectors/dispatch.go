package collectors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nginx/pricewatch/internal/framework/metrics"
	"github.com/nginx/pricewatch/internal/framework/observer"
)

const symbolLabel = "symbol"

// DispatchCollector collects metrics of the dispatches of every tracked symbol.
// Implements the prometheus.Collector interface.
type DispatchCollector struct {
	// Metrics
	dispatchesTotal   *prometheus.CounterVec
	deliveredTotal    *prometheus.CounterVec
	failedTotal       *prometheus.CounterVec
	notDeliveredTotal *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
}

// NewDispatchCollector creates a new DispatchCollector.
func NewDispatchCollector(constLabels map[string]string) *DispatchCollector {
	return &DispatchCollector{
		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "dispatches_total",
				Namespace:   metrics.Namespace,
				Help:        "Number of price dispatches",
				ConstLabels: constLabels,
			},
			[]string{symbolLabel},
		),
		deliveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "notifications_delivered_total",
				Namespace:   metrics.Namespace,
				Help:        "Number of notifications accepted by subscribers",
				ConstLabels: constLabels,
			},
			[]string{symbolLabel},
		),
		failedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "notifications_failed_total",
				Namespace:   metrics.Namespace,
				Help:        "Number of notifications rejected by subscribers",
				ConstLabels: constLabels,
			},
			[]string{symbolLabel},
		),
		notDeliveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "notifications_not_delivered_total",
				Namespace:   metrics.Namespace,
				Help:        "Number of notifications skipped because the dispatch deadline was exceeded",
				ConstLabels: constLabels,
			},
			[]string{symbolLabel},
		),
		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "dispatch_milliseconds",
				Namespace:   metrics.Namespace,
				Help:        "Duration in milliseconds of price dispatches",
				ConstLabels: constLabels,
				Buckets:     []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{symbolLabel},
		),
	}
}

// ForSymbol returns the observer.DispatchCollector that records the dispatches of the symbol.
func (c *DispatchCollector) ForSymbol(symbol string) observer.DispatchCollector {
	return &symbolDispatchCollector{
		dispatches:   c.dispatchesTotal.WithLabelValues(symbol),
		delivered:    c.deliveredTotal.WithLabelValues(symbol),
		failed:       c.failedTotal.WithLabelValues(symbol),
		notDelivered: c.notDeliveredTotal.WithLabelValues(symbol),
		duration:     c.dispatchDuration.WithLabelValues(symbol),
	}
}

// Forget removes the metrics of the symbol.
func (c *DispatchCollector) Forget(symbol string) {
	c.dispatchesTotal.DeleteLabelValues(symbol)
	c.deliveredTotal.DeleteLabelValues(symbol)
	c.failedTotal.DeleteLabelValues(symbol)
	c.notDeliveredTotal.DeleteLabelValues(symbol)
	c.dispatchDuration.DeleteLabelValues(symbol)
}

// Describe implements prometheus.Collector interface Describe method.
func (c *DispatchCollector) Describe(ch chan<- *prometheus.Desc) {
	c.dispatchesTotal.Describe(ch)
	c.deliveredTotal.Describe(ch)
	c.failedTotal.Describe(ch)
	c.notDeliveredTotal.Describe(ch)
	c.dispatchDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface Collect method.
func (c *DispatchCollector) Collect(ch chan<- prometheus.Metric) {
	c.dispatchesTotal.Collect(ch)
	c.deliveredTotal.Collect(ch)
	c.failedTotal.Collect(ch)
	c.notDeliveredTotal.Collect(ch)
	c.dispatchDuration.Collect(ch)
}

type symbolDispatchCollector struct {
	dispatches   prometheus.Counter
	delivered    prometheus.Counter
	failed       prometheus.Counter
	notDelivered prometheus.Counter
	duration     prometheus.Observer
}

func (c *symbolDispatchCollector) ObserveDispatch(duration time.Duration, delivered, failed, notDelivered int) {
	c.dispatches.Inc()
	c.delivered.Add(float64(delivered))
	c.failed.Add(float64(failed))
	c.notDelivered.Add(float64(notDelivered))
	c.duration.Observe(float64(duration) / float64(time.Millisecond))
}

// DispatchNoopCollector is used instead of the DispatchCollector when metrics are disabled to avoid nil pointer
// errors.
type DispatchNoopCollector struct{}

// NewDispatchNoopCollector returns an instance of the DispatchNoopCollector.
func NewDispatchNoopCollector() *DispatchNoopCollector {
	return &DispatchNoopCollector{}
}

// ForSymbol returns the noop collector itself.
func (c *DispatchNoopCollector) ForSymbol(_ string) observer.DispatchCollector {
	return c
}

// Forget does nothing.
func (c *DispatchNoopCollector) Forget(_ string) {}

// ObserveDispatch does nothing.
func (c *DispatchNoopCollector) ObserveDispatch(_ time.Duration, _, _, _ int) {}
