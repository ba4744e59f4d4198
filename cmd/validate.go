package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate an input table and its assignment constraints",
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
		state := checker.Classify(snap)
		fmt.Printf("Assignment state: %s\n", state)

		if state == assign.StateUnassigned {
			fmt.Println("No assignment to check; input is valid.")
			return nil
		}
		violations := checker.Validate(snap)
		if len(violations) == 0 {
			fmt.Println("All hard constraints satisfied.")
			return nil
		}
		for _, v := range violations {
			subject := v.StudentID
			if subject == "" {
				subject = "group " + v.GroupTag
			}
			fmt.Printf("  %-12s %s: %s\n", v.Kind, subject, v.Details)
		}
		return &assign.ValidationError{Column: "class", Reason: fmt.Sprintf("%d hard-constraint violations", len(violations))}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
