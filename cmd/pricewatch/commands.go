package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	ctlrZap "sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/nginx/pricewatch/internal/mode/stock"
	"github.com/nginx/pricewatch/internal/mode/stock/config"
)

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pricewatch",
		Short:         "Push stock price updates to charts and alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	return rootCmd
}

func createDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a chart and an alert against a single stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			atom := zap.NewAtomicLevel()
			logger := ctlrZap.New(ctlrZap.Level(atom), ctlrZap.WriteTo(cmd.ErrOrStderr()))

			if err := stock.RunDemo(cmd.Context(), logger, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("demo failed: %w", err)
			}

			return nil
		},
	}
}

func createWatchCommand() *cobra.Command {
	// flag names
	const (
		configFlag          = "config"
		metricsDisableFlag  = "metrics-disable"
		metricsPortFlag     = "metrics-port"
		dispatchTimeoutFlag = "dispatch-timeout"
	)

	// flag values
	var (
		configPath = stringValidatingValue{
			validator: validateConfigPath,
		}
		disableMetrics    bool
		metricsListenPort = intValidatingValue{
			validator: validatePort,
			value:     9113,
		}
		dispatchTimeout = durationValidatingValue{
			validator: validateDispatchTimeout,
		}
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Apply price ticks read from stdin to the watched stocks",
		Long: `Reads one "SYMBOL PRICE" tick per line from stdin and pushes every price to the subscribers of the symbol.
Blank lines and lines starting with '#' are ignored.

Symbols and subscribers are read from the --config file and from PRICEWATCH_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			atom := zap.NewAtomicLevel()
			logger := ctlrZap.New(ctlrZap.Level(atom), ctlrZap.WriteTo(cmd.ErrOrStderr()))

			commit, date, dirty := getBuildInfo()
			logger.Info(
				"Starting pricewatch",
				"version", version,
				"commit", commit,
				"date", date,
				"dirty", dirty,
				"flags", parseFlags(cmd.Flags()),
			)

			spec, err := config.LoadWatchSpec(configPath.value)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed(dispatchTimeoutFlag) {
				spec.DispatchTimeout = dispatchTimeout.value
			}

			conf := config.Config{
				Version:     version,
				AtomicLevel: atom,
				Logger:      logger,
				Input:       cmd.InOrStdin(),
				Output:      cmd.OutOrStdout(),
				Watch:       spec,
				MetricsConfig: config.MetricsConfig{
					Enabled: !disableMetrics,
					Port:    metricsListenPort.value,
				},
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := stock.StartWatcher(ctx, conf); err != nil {
				return fmt.Errorf("failed to watch prices: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().Var(
		&configPath,
		configFlag,
		"Path to a YAML file that defines the watched symbols and their subscribers.",
	)

	cmd.Flags().BoolVar(
		&disableMetrics,
		metricsDisableFlag,
		false,
		"Disable exposing metrics in the Prometheus format.",
	)

	cmd.Flags().Var(
		&metricsListenPort,
		metricsPortFlag,
		"Set the port where the metrics are exposed. Format: [1024 - 65535]",
	)

	cmd.Flags().Var(
		&dispatchTimeout,
		dispatchTimeoutFlag,
		"Bound the dispatch of each tick, for example 500ms. Overrides the configuration file. 0 means no bound.",
	)

	return cmd
}

// parseFlags reports, for every flag, whether it was left at its default. Bool flags report their value.
// Values of other flags are not logged.
func parseFlags(flags *pflag.FlagSet) map[string]string {
	parsed := make(map[string]string)

	flags.VisitAll(
		func(flag *pflag.Flag) {
			if flag.Value.Type() == "bool" {
				parsed[flag.Name] = flag.Value.String()
				return
			}

			val := "user-defined"
			if flag.Value.String() == flag.DefValue {
				val = "default"
			}
			parsed[flag.Name] = val
		},
	)

	return parsed
}

func getBuildInfo() (commitHash string, commitTime string, dirtyBuild string) {
	commitHash = "unknown"
	commitTime = "unknown"
	dirtyBuild = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			commitHash = kv.Value
		case "vcs.time":
			commitTime = kv.Value
		case "vcs.modified":
			dirtyBuild = kv.Value
		}
	}

	return
}
