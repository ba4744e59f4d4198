package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliRoster = "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,class,preferred_friend_1\n" +
	"101000001,Noa,Levi,F,90,A,A,false,1,101000002\n" +
	"101000002,Avi,Cohen,M,80,B,A,false,1,101000001\n" +
	"101000003,Dana,Mizrahi,F,85,A,A,false,2,101000004\n" +
	"101000004,Omer,Peretz,M,60,C,B,false,2,101000003\n"

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCLI executes the root command with fresh arguments.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func TestCLI_ScoreCommand(t *testing.T) {
	path := writeRoster(t, cliRoster)
	require.NoError(t, runCLI(t, "score", path))
}

func TestCLI_ScoreRejectsUnassignedInput(t *testing.T) {
	unassigned := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		"101000001,Noa,Levi,F,90,A,A,false\n"
	path := writeRoster(t, unassigned)
	err := runCLI(t, "score", path)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestCLI_ValidateCommand(t *testing.T) {
	path := writeRoster(t, cliRoster)
	require.NoError(t, runCLI(t, "validate", path))
}

func TestCLI_GenerateAssignment(t *testing.T) {
	unassigned := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		"101000001,Noa,Levi,F,90,A,A,false\n" +
		"101000002,Avi,Cohen,M,80,B,A,false\n" +
		"101000003,Dana,Mizrahi,F,85,A,A,false\n" +
		"101000004,Omer,Peretz,M,60,C,B,false\n"
	path := writeRoster(t, unassigned)
	out := t.TempDir()
	require.NoError(t, runCLI(t, "generate-assignment", path, "--output", out, "--min-friends", "0"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, err = os.Stat(filepath.Join(out, entries[0].Name(), "assignment.csv"))
	assert.NoError(t, err)
	outputPath = ""
}

func TestCLI_OptimizeCommand(t *testing.T) {
	path := writeRoster(t, cliRoster)
	out := t.TempDir()
	require.NoError(t, runCLI(t, "optimize", path,
		"--output", out,
		"--algorithm", "random_swap",
		"--max-iterations", "50",
		"--random-seed", "42"))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, err = os.Stat(filepath.Join(out, entries[0].Name(), "operation_info.txt"))
	assert.NoError(t, err)
	outputPath = ""
}

func TestCLI_BaselineCommand(t *testing.T) {
	path := writeRoster(t, cliRoster)
	require.NoError(t, runCLI(t, "baseline", path, "--num-runs", "3", "--max-iterations", "20"))
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "sortaclassy.yaml")
	require.NoError(t, runCLI(t, "config", "set", "constraints.minimum_friends", "2", "--config", cfgFile))
	require.NoError(t, runCLI(t, "config", "status", "--config", cfgFile))
	require.NoError(t, runCLI(t, "config", "show", "--config", cfgFile))
	configPath = ""

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "minimum_friends: 2")
}

func TestCLI_UnknownAlgorithmFails(t *testing.T) {
	path := writeRoster(t, cliRoster)
	err := runCLI(t, "optimize", path, "--algorithm", "branch_and_bound")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	algorithmName = ""
}
