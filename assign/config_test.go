package assign

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LayerWeights{Student: 0.75, Class: 0.05, School: 0.20}, cfg.Weights.Layers)
	assert.Equal(t, StudentLayerWeights{Friends: 0.7, Dislikes: 0.3}, cfg.Weights.StudentLayer)
	assert.Equal(t, 1.0, cfg.Weights.ClassLayer.GenderBalance)
	assert.Equal(t, 0.4, cfg.Weights.SchoolLayer.BehaviorBalance)
	assert.Equal(t, 35.0, cfg.Normalization.BehaviorRankFactor)
	assert.Equal(t, 5.0, cfg.Normalization.ClassSizeFactor)
	assert.Equal(t, 1, cfg.Constraints.MinimumFriends)
	assert.True(t, cfg.Constraints.RespectForceConstraints)
	assert.Equal(t, 1000, cfg.Optimization.MaxIterations)
	assert.Equal(t, 100, cfg.Optimization.EarlyStopThreshold)
	assert.False(t, cfg.Optimization.AcceptNeutralMoves)
	assert.Equal(t, 15, cfg.ClassConfig.MinClassSize)
	assert.Equal(t, 30, cfg.ClassConfig.MaxClassSize)
	require.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"all layer weights zero", func(c *Config) { c.Weights.Layers = LayerWeights{} }},
		{"negative weight", func(c *Config) { c.Weights.StudentLayer.Friends = -1 }},
		{"negative min friends", func(c *Config) { c.Constraints.MinimumFriends = -1 }},
		{"cooling rate out of range", func(c *Config) { c.Optimization.Algorithms.Annealing.CoolingRate = 1.5 }},
		{"elite exceeds population", func(c *Config) {
			c.Optimization.Algorithms.Evolutionary.EliteSize = 99
		}},
		{"min size above max", func(c *Config) { c.ClassConfig.MinClassSize = 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestParseConfig_StrictFields(t *testing.T) {
	// A typo must fail instead of silently using defaults.
	_, err := ParseConfig([]byte("constraints:\n  minimum_freinds: 2\n"))
	require.ErrorIs(t, err, ErrConfig)

	cfg, err := ParseConfig([]byte("constraints:\n  minimum_friends: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Constraints.MinimumFriends)
	// Untouched sections keep defaults.
	assert.Equal(t, 1000, cfg.Optimization.MaxIterations)
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Constraints.MinimumFriends = 2
	cfg.Optimization.Algorithms.Annealing.InitialTemperature = 9.5

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_Set(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Set("constraints.minimum_friends", "3"))
	assert.Equal(t, 3, cfg.Constraints.MinimumFriends)

	require.NoError(t, cfg.Set("weights.layers.student", "0.5"))
	assert.Equal(t, 0.5, cfg.Weights.Layers.Student)

	require.NoError(t, cfg.Set("optimization.accept_neutral_moves", "true"))
	assert.True(t, cfg.Optimization.AcceptNeutralMoves)

	require.ErrorIs(t, cfg.Set("nope.nothing", "1"), ErrConfig)
	require.ErrorIs(t, cfg.Set("constraints.minimum_friends", "-4"), ErrConfig)
}

func TestConfig_TargetClasses(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.TargetClasses(40))
	cfg.ClassConfig.TargetClasses = 6
	assert.Equal(t, 6, cfg.TargetClasses(40))
}
