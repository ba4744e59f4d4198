package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

func sampleSnapshot(t *testing.T) *assign.School {
	t.Helper()
	csv := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,class\n" +
		"101000001,Noa,Levi,F,90,A,A,false,1\n" +
		"101000002,Avi,Cohen,M,80,B,A,false,1\n"
	s, err := assign.ImportCSV(strings.NewReader(csv), assign.ImportOptions{})
	require.NoError(t, err)
	return s
}

func TestCreateRunDir_NameShape(t *testing.T) {
	outputPath = t.TempDir()
	defer func() { outputPath = "" }()

	dir, err := createRunDir("optimize", "/data/roster_2026.csv", "sequential")
	require.NoError(t, err)
	base := filepath.Base(dir)
	assert.True(t, strings.HasPrefix(base, "optimize_roster_2026_sequential_"), base)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteRunArtifacts_AllFilesPresent(t *testing.T) {
	outputPath = t.TempDir()
	defer func() { outputPath = "" }()

	dir, err := createRunDir("score", "roster.csv", "none")
	require.NoError(t, err)
	snap := sampleSnapshot(t)
	cfg := assign.DefaultConfig()
	require.NoError(t, writeRunArtifacts(dir, snap, cfg, operationInfo{
		Operation:            "score",
		InputPath:            "roster.csv",
		Algorithm:            "none",
		InitialScore:         95,
		FinalScore:           95,
		ConstraintsSatisfied: true,
	}))

	for _, name := range []string{
		"assignment.csv", "scoring_summary.txt", "per_student_scores.csv",
		"per_class_scores.csv", "config_snapshot.yaml", "operation_info.txt",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	info, err := os.ReadFile(filepath.Join(dir, "operation_info.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "operation: score")
	assert.Contains(t, string(info), "constraints_satisfied: true")

	summary, err := os.ReadFile(filepath.Join(dir, "scoring_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "final_score:")

	// The config snapshot round-trips through the loader.
	_, err = assign.LoadConfig(filepath.Join(dir, "config_snapshot.yaml"))
	assert.NoError(t, err)
}
