package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

var varySeeds bool

var optimizeCmd = &cobra.Command{
	Use:   "optimize FILE",
	Short: "Optimize a class assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		strategy, ok := assign.ParseStrategy(strategyName)
		if !ok {
			return &assign.ConfigError{Key: "strategy", Reason: "unknown strategy " + strategyName}
		}
		names := algorithmNames
		if len(names) == 0 {
			if algorithmName != "" {
				names = []string{algorithmName}
			} else if strategy == assign.StrategySequential {
				names = assign.DefaultSequentialChain()
			} else {
				names = []string{assign.AlgorithmRandomSwap}
			}
		}

		snap, err := importSnapshot(args[0])
		if err != nil {
			return err
		}

		// Every strategy starts from one initializer-produced snapshot so
		// comparisons are fair.
		checker := assign.NewChecker(cfg)
		start := snap
		if checker.Classify(snap) != assign.StateFullyAssigned || len(checker.Validate(snap)) > 0 {
			initStrat, ok := assign.ParseInitStrategy(initStrategy)
			if !ok {
				return &assign.ConfigError{Key: "init-strategy", Reason: "unknown strategy " + initStrategy}
			}
			rng := assign.NewPartitionedRNG(assign.NewRunKey(randomSeed)).ForSubsystem(assign.SubsystemInitializer)
			start, err = assign.NewInitializer(cfg, initStrat).Initialize(snap, rng)
			if err != nil {
				return err
			}
			logrus.Infof("Initialized starting assignment (strategy %s)", initStrat)
		}

		specs := assign.SpecsFromNames(names, randomSeed, varySeeds)
		co := assign.NewCoordinator(cfg, timeBudget)
		started := time.Now()
		res, err := co.Run(context.Background(), start, strategy, specs, progressSink())
		if err != nil {
			return err
		}
		for _, f := range res.Failures {
			logrus.Warnf("run failure: %v", f)
		}
		for _, run := range res.Runs {
			logrus.Infof("%s (seed %d): %s -> %s in %d iterations (%s)",
				run.Algorithm, run.Seed, fmtScore(run.InitialScore), fmtScore(run.BestScore),
				run.IterationsUsed, run.Elapsed.Round(time.Millisecond))
		}
		best := res.Best
		logrus.Infof("Best: %s with %s (improvement %+.2f)", best.Algorithm, fmtScore(best.BestScore), best.Improvement())

		dir, err := createRunDir("optimize", args[0], string(strategy))
		if err != nil {
			return err
		}
		return writeRunArtifacts(dir, best.Best, cfg, operationInfo{
			Operation:            "optimize",
			InputPath:            args[0],
			Algorithm:            best.Algorithm,
			InitialScore:         best.InitialScore,
			FinalScore:           best.BestScore,
			Duration:             time.Since(started),
			Iterations:           best.IterationsUsed,
			ConstraintsSatisfied: len(best.ViolationsAtEnd) == 0,
		})
	},
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVar(&algorithmName, "algorithm", "", "Single algorithm to run")
	f.StringSliceVar(&algorithmNames, "algorithms", nil, "Algorithms to coordinate")
	f.StringVar(&strategyName, "strategy", string(assign.StrategySingle), "Coordination strategy (single, parallel, sequential, best_of)")
	f.StringVar(&initStrategy, "init-strategy", string(assign.InitConstraintAware), "Initialization strategy for unassigned inputs")
	f.IntVar(&targetClasses, "target-classes", 0, "Number of classes (0 = derive from roster size)")
	f.DurationVar(&timeBudget, "time-budget", 0, "Total wall-clock budget (0 = unlimited)")
	f.BoolVar(&varySeeds, "vary-seeds", false, "Give each coordinated run its own seed (base+i)")
	rootCmd.AddCommand(optimizeCmd)
}
