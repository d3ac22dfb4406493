package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boristopalov/gridsim/pkg/config"
	"github.com/boristopalov/gridsim/pkg/experiment"
	"github.com/boristopalov/gridsim/pkg/flatten"
	"github.com/boristopalov/gridsim/pkg/integrations"
	"github.com/boristopalov/gridsim/pkg/metrics"
)

type runFlags struct {
	configPath  string
	episodes    int
	workers     int
	policy      string
	statsPath   string
	metricsPath string
	verbose     bool
}

func main() {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:          "gridsim",
		Short:        "gridsim runs multi-agent grid pathfinding episodes and reports their success and collision rates.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "experiment YAML file")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "development logging at debug level")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of episodes with a scripted policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, flags)
		},
	}
	runCmd.Flags().IntVarP(&flags.episodes, "episodes", "n", 0, "number of episodes (overrides config)")
	runCmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel environments (overrides config)")
	runCmd.Flags().StringVar(&flags.policy, "policy", "", "scripted policy: greedy or random")
	runCmd.Flags().StringVar(&flags.statsPath, "stats", "", "CSV file for per-episode statistics")
	runCmd.Flags().StringVar(&flags.metricsPath, "metrics", "", "Prometheus textfile written at the end of the run")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print observation, action and state sizes for the configured grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInfo(cmd, flags)
		},
	}

	for _, envFile := range []string{
		".env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd, infoCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(flags *runFlags) (config.ExperimentConfig, error) {
	cfg := config.DefaultExperiment()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.LoadExperiment(flags.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Grid.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	if flags.episodes > 0 {
		cfg.Episodes = flags.episodes
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.policy != "" {
		cfg.Policy = flags.policy
	}
	if flags.statsPath != "" {
		cfg.Logging.StatsPath = flags.statsPath
	}
	if flags.metricsPath != "" {
		cfg.Logging.MetricsPath = flags.metricsPath
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func runExperiment(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, flags.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	exporter := metrics.NewExporter("gridsim", logger)
	runner, err := experiment.NewRunner(cfg,
		experiment.WithLogger(logger),
		experiment.WithExporter(exporter),
	)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run %s: %w", runner.RunID(), err)
	}

	isr, csr := runner.History().Mean()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d episodes, mean ISR %.3f, mean CSR %.3f\n",
		cfg.Name, runner.GetStatus().Episodes, isr, csr)
	return nil
}

func printInfo(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	env, err := integrations.MakeEnv(cfg.Grid)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	grid := env.GridConfig()
	fmt.Fprintf(out, "integration:   %q\n", grid.Integration)
	fmt.Fprintf(out, "agents:        %d\n", grid.NumAgents)
	fmt.Fprintf(out, "map:           %dx%d, density %.2f\n", grid.Size, grid.Size, grid.Density)
	fmt.Fprintf(out, "observation:   3x%dx%d (%d values)\n", grid.ObsWidth(), grid.ObsWidth(), flatten.ObsSize(grid))
	fmt.Fprintf(out, "state:         %d values\n", flatten.StateSize(grid))
	fmt.Fprintf(out, "episode limit: %d\n", grid.MaxEpisodeSteps)
	return nil
}
