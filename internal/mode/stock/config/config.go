package config

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// SupportedLogLevels lists the log levels accepted in a WatchSpec.
var SupportedLogLevels = []string{LogLevelInfo, LogLevelDebug, LogLevelError}

// SubscriberKind is the kind of a subscriber.
type SubscriberKind string

const (
	// SubscriberKindChart is a chart that renders prices to the output.
	SubscriberKindChart SubscriberKind = "chart"
	// SubscriberKindAlert is an alert that sends price messages to a channel.
	SubscriberKindAlert SubscriberKind = "alert"
)

// DefaultChartName is the name of the chart created when a WatchSpec has no subscribers.
const DefaultChartName = "Display1"

type Config struct {
	// Version is the running pricewatch version.
	Version string
	// AtomicLevel is an atomically changeable, dynamic logging level.
	AtomicLevel zap.AtomicLevel
	// Logger is the Zap Logger used by all components.
	Logger logr.Logger
	// Input is the source of the price ticks.
	Input io.Reader
	// Output is where charts and alerts write.
	Output io.Writer
	// Watch defines what is watched.
	Watch WatchSpec
	// MetricsConfig specifies the metrics config.
	MetricsConfig MetricsConfig
}

// MetricsConfig specifies the metrics config.
type MetricsConfig struct {
	// Port is the port the metrics should be exposed on.
	Port int
	// Enabled is the flag for toggling metrics on or off.
	Enabled bool
}

type (
	// WatchSpec defines the tracked symbols and their subscribers.
	WatchSpec struct {
		// LogLevel is the level of the logger.
		LogLevel string `yaml:"log-level" env:"PRICEWATCH_LOG_LEVEL"`
		// Symbols are the tracked symbols. Ticks of other symbols are dropped.
		Symbols []string `yaml:"symbols" env:"PRICEWATCH_SYMBOLS" env-separator:","`
		// Subscribers are registered in order. A subscriber without symbols is registered on every symbol.
		Subscribers []SubscriberSpec `yaml:"subscribers"`
		// DispatchTimeout bounds the dispatch of each tick. Zero means no bound.
		DispatchTimeout time.Duration `yaml:"dispatch-timeout" env:"PRICEWATCH_DISPATCH_TIMEOUT"`
	}

	// SubscriberSpec defines a subscriber.
	SubscriberSpec struct {
		// Kind is the kind of the subscriber.
		Kind SubscriberKind `yaml:"kind"`
		// Name is the name of a chart or the channel of an alert.
		Name string `yaml:"name"`
		// Symbols are the symbols the subscriber is registered on. Empty means every symbol.
		Symbols []string `yaml:"symbols"`
	}
)

// LoadWatchSpec builds a WatchSpec from the defaults, then the YAML file at path if path is not empty, then the
// PRICEWATCH_* environment variables. The result is validated.
func LoadWatchSpec(path string) (WatchSpec, error) {
	spec := WatchSpec{
		LogLevel: LogLevelInfo,
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &spec); err != nil {
			return WatchSpec{}, fmt.Errorf("config error: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&spec); err != nil {
		return WatchSpec{}, fmt.Errorf("config error: %w", err)
	}

	if len(spec.Subscribers) == 0 {
		spec.Subscribers = []SubscriberSpec{{Kind: SubscriberKindChart, Name: DefaultChartName}}
	}

	if err := spec.Validate(); err != nil {
		return WatchSpec{}, fmt.Errorf("invalid watch configuration: %w", err)
	}

	return spec, nil
}

// SubscribersOf returns the subscribers registered on the symbol, in order.
func (w WatchSpec) SubscribersOf(symbol string) []SubscriberSpec {
	var subs []SubscriberSpec
	for _, sub := range w.Subscribers {
		if len(sub.Symbols) == 0 {
			subs = append(subs, sub)
			continue
		}
		if slices.Contains(sub.Symbols, symbol) {
			subs = append(subs, sub)
		}
	}

	return subs
}
