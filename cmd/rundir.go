package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

// operationInfo summarizes one invocation for the run directory.
type operationInfo struct {
	Operation            string
	InputPath            string
	Algorithm            string
	InitialScore         float64
	FinalScore           float64
	Duration             time.Duration
	Iterations           int
	ConstraintsSatisfied bool
}

// createRunDir makes the artifact directory:
// {operation}_{input_stem}_{algorithm_or_strategy}_{timestamp}.
// With --output set, the directory is created underneath it.
func createRunDir(operation, inputPath, algoOrStrategy string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := fmt.Sprintf("%s_%s_%s_%s", operation, stem, algoOrStrategy, time.Now().Format("20060102_150405"))
	dir := name
	if outputPath != "" {
		dir = filepath.Join(outputPath, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

// writeRunArtifacts writes the assignment table, scoring summary, per-student
// and per-class breakdowns, a configuration snapshot, and operation_info.
func writeRunArtifacts(dir string, snap *assign.School, cfg *assign.Config, info operationInfo) error {
	if err := assign.ExportFile(filepath.Join(dir, "assignment.csv"), snap); err != nil {
		return err
	}
	score := assign.Score(snap, cfg)
	if err := writeScoringSummary(filepath.Join(dir, "scoring_summary.txt"), score); err != nil {
		return err
	}
	if err := writeStudentBreakdown(filepath.Join(dir, "per_student_scores.csv"), snap, score); err != nil {
		return err
	}
	if err := writeClassBreakdown(filepath.Join(dir, "per_class_scores.csv"), snap, score); err != nil {
		return err
	}
	if err := assign.SaveConfig(filepath.Join(dir, "config_snapshot.yaml"), cfg); err != nil {
		return err
	}
	if err := writeOperationInfo(filepath.Join(dir, "operation_info.txt"), info); err != nil {
		return err
	}
	logrus.Infof("Run artifacts written to %s", dir)
	return nil
}

func writeScoringSummary(path string, score *assign.ScoreResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "final_score: %s\n", fmtScore(score.Final))
	fmt.Fprintf(&b, "student_layer: %s\n", fmtScore(score.StudentLayer))
	fmt.Fprintf(&b, "class_layer: %s\n", fmtScore(score.ClassLayer))
	fmt.Fprintf(&b, "school_layer: %s\n", fmtScore(score.SchoolLayer))
	fmt.Fprintf(&b, "school.academic_balance: %s\n", fmtScore(score.School.AcademicBalance))
	fmt.Fprintf(&b, "school.behavior_balance: %s\n", fmtScore(score.School.BehaviorBalance))
	fmt.Fprintf(&b, "school.studentiality_balance: %s\n", fmtScore(score.School.StudentialityBalance))
	fmt.Fprintf(&b, "school.size_balance: %s\n", fmtScore(score.School.SizeBalance))
	fmt.Fprintf(&b, "school.assistance_balance: %s\n", fmtScore(score.School.AssistanceBalance))
	fmt.Fprintf(&b, "school.school_origin_balance: %s\n", fmtScore(score.School.SchoolOriginBalance))
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeStudentBreakdown(path string, snap *assign.School, score *assign.ScoreResult) error {
	var b strings.Builder
	b.WriteString("student_id,class,friend_satisfaction,conflict_avoidance,score\n")
	for _, id := range snap.StudentIDs() {
		bd := score.PerStudent[id]
		class, _ := snap.ClassOf(id)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n", id, class,
			fmtScore(bd.FriendSatisfaction), fmtScore(bd.ConflictAvoidance), fmtScore(bd.Score))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeClassBreakdown(path string, snap *assign.School, score *assign.ScoreResult) error {
	var b strings.Builder
	b.WriteString("class,size,gender_balance,score\n")
	for _, id := range snap.ClassIDs() {
		bd := score.PerClass[id]
		fmt.Fprintf(&b, "%s,%d,%s,%s\n", id, bd.Size, fmtScore(bd.GenderBalance), fmtScore(bd.Score))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeOperationInfo(path string, info operationInfo) error {
	var b strings.Builder
	fmt.Fprintf(&b, "operation: %s\n", info.Operation)
	fmt.Fprintf(&b, "input: %s\n", info.InputPath)
	fmt.Fprintf(&b, "algorithm: %s\n", info.Algorithm)
	fmt.Fprintf(&b, "initial_score: %s\n", fmtScore(info.InitialScore))
	fmt.Fprintf(&b, "final_score: %s\n", fmtScore(info.FinalScore))
	fmt.Fprintf(&b, "duration: %s\n", info.Duration)
	fmt.Fprintf(&b, "iterations: %d\n", info.Iterations)
	fmt.Fprintf(&b, "constraints_satisfied: %t\n", info.ConstraintsSatisfied)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
