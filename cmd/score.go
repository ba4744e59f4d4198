package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Score an existing assignment",
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
		if state := checker.Classify(snap); state != assign.StateFullyAssigned {
			return &assign.ValidationError{Column: "class", Reason: fmt.Sprintf("snapshot is %s; score needs a fully assigned input", state)}
		}

		score := assign.Score(snap, cfg)
		violations := checker.Validate(snap)

		fmt.Printf("Final score:    %s\n", fmtScore(score.Final))
		fmt.Printf("Student layer:  %s\n", fmtScore(score.StudentLayer))
		fmt.Printf("Class layer:    %s\n", fmtScore(score.ClassLayer))
		fmt.Printf("School layer:   %s\n", fmtScore(score.SchoolLayer))
		for _, id := range snap.ClassIDs() {
			bd := score.PerClass[id]
			fmt.Printf("  class %s: size=%d gender_balance=%s\n", id, bd.Size, fmtScore(bd.GenderBalance))
		}
		if len(violations) > 0 {
			logrus.Warnf("%d hard-constraint violations in the input assignment", len(violations))
			for _, v := range violations {
				logrus.Warnf("  %s %s%s: %s", v.Kind, v.StudentID, v.GroupTag, v.Details)
			}
		}

		if outputPath != "" {
			dir, err := createRunDir("score", args[0], "none")
			if err != nil {
				return err
			}
			return writeRunArtifacts(dir, snap, cfg, operationInfo{
				Operation:            "score",
				InputPath:            args[0],
				Algorithm:            "none",
				InitialScore:         score.Final,
				FinalScore:           score.Final,
				ConstraintsSatisfied: len(violations) == 0,
			})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
