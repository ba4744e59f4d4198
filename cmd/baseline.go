package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline FILE",
	Short: "Run the random-swap reference repeatedly and report statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		snap, err := importSnapshot(args[0])
		if err != nil {
			return err
		}

		checker := assign.NewChecker(cfg)
		start := snap
		if checker.Classify(snap) != assign.StateFullyAssigned || len(checker.Validate(snap)) > 0 {
			rng := assign.NewPartitionedRNG(assign.NewRunKey(randomSeed)).ForSubsystem(assign.SubsystemInitializer)
			start, err = assign.NewInitializer(cfg, assign.InitConstraintAware).Initialize(snap, rng)
			if err != nil {
				return err
			}
		}

		res, err := assign.RunBaseline(context.Background(), start, cfg, randomSeed, numRuns, nil, progressSink())
		if err != nil {
			return err
		}

		fmt.Printf("Baseline over %d runs (base seed %d):\n", len(res.Runs), randomSeed)
		for _, run := range res.Runs {
			fmt.Printf("  seed %-6d %s -> %s (%+.2f) in %d iterations, %s\n",
				run.Seed, fmtScore(run.InitialScore), fmtScore(run.FinalScore),
				run.Improvement, run.IterationsUsed, run.Duration.Round(time.Millisecond))
		}
		fmt.Printf("mean=%s median=%s sigma=%s min=%s max=%s\n",
			fmtScore(res.Mean), fmtScore(res.Median), fmtScore(res.StdDev),
			fmtScore(res.Min), fmtScore(res.Max))
		return nil
	},
}

func init() {
	baselineCmd.Flags().IntVar(&numRuns, "num-runs", assign.DefaultBaselineRuns, "Number of baseline runs")
	rootCmd.AddCommand(baselineCmd)
}
