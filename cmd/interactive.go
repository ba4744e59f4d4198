package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Menu-driven session over the same engine entry points",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		session := &interactiveSession{cfg: cfg, in: bufio.NewScanner(os.Stdin)}
		return session.loop()
	},
}

type interactiveSession struct {
	cfg  *assign.Config
	in   *bufio.Scanner
	snap *assign.School
	path string
}

func (s *interactiveSession) prompt(msg string) (string, bool) {
	fmt.Print(msg)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *interactiveSession) loop() error {
	for {
		fmt.Println()
		fmt.Println("1) Load roster")
		fmt.Println("2) Score current assignment")
		fmt.Println("3) Generate assignment")
		fmt.Println("4) Optimize")
		fmt.Println("5) Save assignment")
		fmt.Println("6) Quit")
		choice, ok := s.prompt("> ")
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			s.load()
		case "2":
			s.score()
		case "3":
			s.generate()
		case "4":
			s.optimize()
		case "5":
			s.save()
		case "6", "q", "quit":
			return nil
		default:
			fmt.Println("Unknown choice.")
		}
	}
}

func (s *interactiveSession) load() {
	path, ok := s.prompt("Input file: ")
	if !ok || path == "" {
		return
	}
	snap, err := assign.ImportFile(path, assign.ImportOptions{SkipValidation: skipValidation})
	if err != nil {
		fmt.Printf("Load failed: %v\n", err)
		return
	}
	s.snap, s.path = snap, path
	fmt.Printf("Loaded %d students, %d classes.\n", snap.NumStudents(), snap.NumClasses())
}

func (s *interactiveSession) score() {
	if s.snap == nil {
		fmt.Println("Load a roster first.")
		return
	}
	if assign.NewChecker(s.cfg).Classify(s.snap) != assign.StateFullyAssigned {
		fmt.Println("Assignment is incomplete; generate one first.")
		return
	}
	sc := assign.Score(s.snap, s.cfg)
	fmt.Printf("Final %s (student %s / class %s / school %s)\n",
		fmtScore(sc.Final), fmtScore(sc.StudentLayer), fmtScore(sc.ClassLayer), fmtScore(sc.SchoolLayer))
}

func (s *interactiveSession) generate() {
	if s.snap == nil {
		fmt.Println("Load a roster first.")
		return
	}
	rng := assign.NewPartitionedRNG(assign.NewRunKey(randomSeed)).ForSubsystem(assign.SubsystemInitializer)
	out, err := assign.NewInitializer(s.cfg, assign.InitConstraintAware).Initialize(s.snap, rng)
	if err != nil {
		fmt.Printf("Initialization failed: %v\n", err)
		return
	}
	s.snap = out
	fmt.Printf("Assignment generated: score %s\n", fmtScore(assign.Score(out, s.cfg).Final))
}

func (s *interactiveSession) optimize() {
	if s.snap == nil {
		fmt.Println("Load a roster first.")
		return
	}
	if assign.NewChecker(s.cfg).Classify(s.snap) != assign.StateFullyAssigned {
		s.generate()
		if s.snap == nil {
			return
		}
	}
	name, ok := s.prompt("Algorithm [" + strings.Join(assign.AlgorithmNames(), ", ") + "]: ")
	if !ok {
		return
	}
	if name == "" {
		name = assign.AlgorithmRandomSwap
	}
	co := assign.NewCoordinator(s.cfg, 0)
	res, err := co.Run(context.Background(), s.snap, assign.StrategySingle,
		[]assign.AlgorithmSpec{{Name: name, Seed: randomSeed}}, nil)
	if err != nil {
		fmt.Printf("Optimization failed: %v\n", err)
		return
	}
	s.snap = res.Best.Best
	fmt.Printf("%s: %s -> %s\n", res.Best.Algorithm,
		fmtScore(res.Best.InitialScore), fmtScore(res.Best.BestScore))
}

func (s *interactiveSession) save() {
	if s.snap == nil {
		fmt.Println("Nothing to save.")
		return
	}
	path, ok := s.prompt("Output file: ")
	if !ok || path == "" {
		return
	}
	if err := assign.ExportFile(path, s.snap); err != nil {
		fmt.Printf("Save failed: %v\n", err)
		return
	}
	fmt.Printf("Saved to %s\n", path)
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
