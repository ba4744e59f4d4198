// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

// DefaultConfigFile is picked up from the working directory when --config is
// not given.
const DefaultConfigFile = "sortaclassy.yaml"

var (
	configPath     string
	outputPath     string
	logLevel       string
	skipValidation bool
	minFriends     int
	maxIterations  int
	earlyStop      int
	randomSeed     int64

	algorithmName  string
	algorithmNames []string
	strategyName   string
	initStrategy   string
	targetClasses  int
	numRuns        int
	timeBudget     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "sortaclassy",
	Short:         "Class assignment optimizer for school rosters",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Exit codes: 0 success, 1 validation failure, 2 initialization infeasible,
// 3 cancelled or timed out, 4 unexpected error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, assign.ErrValidation),
		errors.Is(err, assign.ErrReference),
		errors.Is(err, assign.ErrConfig):
		return 1
	case errors.Is(err, assign.ErrInfeasible):
		return 2
	case errors.Is(err, assign.ErrCancelled),
		errors.Is(err, assign.ErrTimeout),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return 3
	default:
		return 4
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(exitCode(err))
	}
}

func setupLogging() error {
	switch logLevel {
	case "minimal":
		logrus.SetLevel(logrus.ErrorLevel)
	case "normal":
		logrus.SetLevel(logrus.InfoLevel)
	case "detailed":
		logrus.SetLevel(logrus.DebugLevel)
	case "debug":
		logrus.SetLevel(logrus.TraceLevel)
	default:
		return &assign.ConfigError{Key: "log-level", Reason: "must be minimal, normal, detailed, or debug"}
	}
	return nil
}

// loadConfig resolves the configuration: --config, then ./sortaclassy.yaml,
// then the built-in defaults, with changed CLI flags layered on top.
func loadConfig(cmd *cobra.Command) (*assign.Config, error) {
	var cfg *assign.Config
	switch {
	case configPath != "":
		c, err := assign.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			c, err := assign.LoadConfig(DefaultConfigFile)
			if err != nil {
				return nil, err
			}
			cfg = c
			logrus.Debugf("Loaded configuration from %s", DefaultConfigFile)
		} else {
			cfg = assign.DefaultConfig()
		}
	}

	flags := cmd.Flags()
	if flags.Changed("min-friends") {
		cfg.Constraints.MinimumFriends = minFriends
	}
	if flags.Changed("max-iterations") {
		cfg.Optimization.MaxIterations = maxIterations
	}
	if flags.Changed("early-stop") {
		cfg.Optimization.EarlyStopThreshold = earlyStop
	}
	if flags.Changed("target-classes") {
		cfg.ClassConfig.TargetClasses = targetClasses
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// progressSink renders engine progress through logrus at the configured rate.
func progressSink() *assign.ProgressSink {
	level, _ := assign.ParseProgressLevel(logLevel)
	return assign.NewProgressSink(level, func(ev assign.IterationEvent) {
		logrus.Infof("iteration %d/%d: current=%.2f best=%.2f",
			ev.Iteration, ev.TotalEstimate, ev.CurrentScore, ev.BestScore)
	})
}

// importSnapshot loads an input table with the shared validation flags.
func importSnapshot(path string) (*assign.School, error) {
	snap, err := assign.ImportFile(path, assign.ImportOptions{SkipValidation: skipValidation})
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded %d students, %d classes from %s", snap.NumStudents(), snap.NumClasses(), path)
	return snap, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a yaml configuration file")
	pf.StringVar(&outputPath, "output", "", "Output file or directory")
	pf.StringVar(&logLevel, "log-level", "normal", "Log level (minimal, normal, detailed, debug)")
	pf.BoolVar(&skipValidation, "skip-validation", false, "Normalize invalid cells instead of failing")
	pf.IntVar(&minFriends, "min-friends", 1, "Minimum placed preferred friends per student")
	pf.IntVar(&maxIterations, "max-iterations", 1000, "Per-algorithm iteration cap")
	pf.IntVar(&earlyStop, "early-stop", 100, "Consecutive non-improving iterations before stopping")
	pf.Int64Var(&randomSeed, "random-seed", 42, "Master seed for reproducible runs")
}

// fmtScore renders a 0..100 score the way every report prints it.
func fmtScore(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
