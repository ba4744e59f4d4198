package assign

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayerWeights combines the three scoring layers into the final score.
type LayerWeights struct {
	Student float64 `yaml:"student"`
	Class   float64 `yaml:"class"`
	School  float64 `yaml:"school"`
}

// StudentLayerWeights weights the per-student metrics.
type StudentLayerWeights struct {
	Friends  float64 `yaml:"friends"`
	Dislikes float64 `yaml:"dislikes"`
}

// ClassLayerWeights weights the per-class metrics. Gender balance is the only
// registered metric; the weighted-mean structure stays so new class metrics
// slot in without touching the final-score formula.
type ClassLayerWeights struct {
	GenderBalance float64 `yaml:"gender_balance"`
}

// SchoolLayerWeights weights the cross-class equity metrics.
type SchoolLayerWeights struct {
	AcademicBalance      float64 `yaml:"academic_balance"`
	BehaviorBalance      float64 `yaml:"behavior_balance"`
	StudentialityBalance float64 `yaml:"studentiality_balance"`
	SizeBalance          float64 `yaml:"size_balance"`
	AssistanceBalance    float64 `yaml:"assistance_balance"`
	SchoolOriginBalance  float64 `yaml:"school_origin_balance"`
}

// WeightsConfig groups every scoring weight.
type WeightsConfig struct {
	Layers       LayerWeights        `yaml:"layers"`
	StudentLayer StudentLayerWeights `yaml:"student_layer"`
	ClassLayer   ClassLayerWeights   `yaml:"class_layer"`
	SchoolLayer  SchoolLayerWeights  `yaml:"school_layer"`
}

// NormalizationConfig holds the σ-to-penalty multipliers of the school layer.
type NormalizationConfig struct {
	AcademicScoreFactor     float64 `yaml:"academic_score_factor"`
	BehaviorRankFactor      float64 `yaml:"behavior_rank_factor"`
	StudentialityRankFactor float64 `yaml:"studentiality_rank_factor"`
	ClassSizeFactor         float64 `yaml:"class_size_factor"`
	AssistanceCountFactor   float64 `yaml:"assistance_count_factor"`
	SchoolOriginFactor      float64 `yaml:"school_origin_factor"`
}

// ClassConfig holds class-capacity constraints. TargetClasses 0 means derive
// the class count from the roster size.
type ClassConfig struct {
	TargetClasses      int  `yaml:"target_classes"`
	MinClassSize       int  `yaml:"min_class_size"`
	MaxClassSize       int  `yaml:"max_class_size"`
	PreferredClassSize int  `yaml:"preferred_class_size"`
	AllowUnevenClasses bool `yaml:"allow_uneven_classes"`
}

// ConstraintsConfig holds the hard-constraint knobs.
type ConstraintsConfig struct {
	MinimumFriends          int  `yaml:"minimum_friends"`
	RespectForceConstraints bool `yaml:"respect_force_constraints"`
}

// RandomSwapConfig tunes the reference baseline algorithm.
type RandomSwapConfig struct {
	MaxSwapAttempts int `yaml:"max_swap_attempts"`
}

// LocalSearchConfig tunes greedy local search.
type LocalSearchConfig struct {
	MaxPasses      int     `yaml:"max_passes"`
	MinImprovement float64 `yaml:"min_improvement"`
}

// AnnealingConfig tunes simulated annealing.
type AnnealingConfig struct {
	InitialTemperature float64 `yaml:"initial_temperature"`
	CoolingRate        float64 `yaml:"cooling_rate"`
	MinTemperature     float64 `yaml:"min_temperature"`
	ReheatThreshold    int     `yaml:"reheat_threshold"`
}

// EvolutionaryConfig tunes the population search.
type EvolutionaryConfig struct {
	PopulationSize  int     `yaml:"population_size"`
	Generations     int     `yaml:"generations"`
	MutationRate    float64 `yaml:"mutation_rate"`
	CrossoverRate   float64 `yaml:"crossover_rate"`
	EliteSize       int     `yaml:"elite_size"`
	TournamentSize  int     `yaml:"tournament_size"`
	StagnationLimit int     `yaml:"stagnation_limit"`
}

// AlgorithmsConfig groups the per-algorithm knobs.
type AlgorithmsConfig struct {
	RandomSwap   RandomSwapConfig   `yaml:"random_swap"`
	LocalSearch  LocalSearchConfig  `yaml:"local_search"`
	Annealing    AnnealingConfig    `yaml:"simulated_annealing"`
	Evolutionary EvolutionaryConfig `yaml:"evolutionary"`
}

// OptimizationConfig holds the shared iteration budget knobs.
type OptimizationConfig struct {
	MaxIterations      int              `yaml:"max_iterations"`
	EarlyStopThreshold int              `yaml:"early_stop_threshold"`
	AcceptNeutralMoves bool             `yaml:"accept_neutral_moves"`
	Algorithms         AlgorithmsConfig `yaml:"algorithms"`
}

// Config is the full configuration document. All sections are listed so
// strict decoding rejects typos.
type Config struct {
	Weights       WeightsConfig       `yaml:"weights"`
	Normalization NormalizationConfig `yaml:"normalization"`
	ClassConfig   ClassConfig         `yaml:"class_config"`
	Constraints   ConstraintsConfig   `yaml:"constraints"`
	Optimization  OptimizationConfig  `yaml:"optimization"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: WeightsConfig{
			Layers:       LayerWeights{Student: 0.75, Class: 0.05, School: 0.20},
			StudentLayer: StudentLayerWeights{Friends: 0.7, Dislikes: 0.3},
			ClassLayer:   ClassLayerWeights{GenderBalance: 1.0},
			SchoolLayer: SchoolLayerWeights{
				AcademicBalance:      0.05,
				BehaviorBalance:      0.4,
				StudentialityBalance: 0.4,
				SizeBalance:          0.0,
				AssistanceBalance:    0.15,
				SchoolOriginBalance:  0.0,
			},
		},
		Normalization: NormalizationConfig{
			AcademicScoreFactor:     2.0,
			BehaviorRankFactor:      35.0,
			StudentialityRankFactor: 35.0,
			ClassSizeFactor:         5.0,
			AssistanceCountFactor:   10.0,
			SchoolOriginFactor:      20.0,
		},
		ClassConfig: ClassConfig{
			TargetClasses:      0,
			MinClassSize:       15,
			MaxClassSize:       30,
			PreferredClassSize: 25,
			AllowUnevenClasses: true,
		},
		Constraints: ConstraintsConfig{
			MinimumFriends:          1,
			RespectForceConstraints: true,
		},
		Optimization: OptimizationConfig{
			MaxIterations:      1000,
			EarlyStopThreshold: 100,
			AcceptNeutralMoves: false,
			Algorithms: AlgorithmsConfig{
				RandomSwap:  RandomSwapConfig{MaxSwapAttempts: 100},
				LocalSearch: LocalSearchConfig{MaxPasses: 10, MinImprovement: 0.01},
				Annealing: AnnealingConfig{
					InitialTemperature: 5.0,
					CoolingRate:        0.97,
					MinTemperature:     0.01,
					ReheatThreshold:    50,
				},
				Evolutionary: EvolutionaryConfig{
					PopulationSize:  30,
					Generations:     50,
					MutationRate:    0.2,
					CrossoverRate:   0.8,
					EliteSize:       2,
					TournamentSize:  3,
					StagnationLimit: 10,
				},
			},
		},
	}
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Validate checks ranges and weight sanity per the config.invalid taxonomy.
func (c *Config) Validate() error {
	w := &c.Weights
	if w.Layers.Student < 0 || w.Layers.Class < 0 || w.Layers.School < 0 {
		return &ConfigError{Key: "weights.layers", Reason: "layer weights must be non-negative"}
	}
	if w.Layers.Student+w.Layers.Class+w.Layers.School == 0 {
		return &ConfigError{Key: "weights.layers", Reason: "all layer weights are zero"}
	}
	for key, v := range map[string]float64{
		"weights.student_layer.friends":              w.StudentLayer.Friends,
		"weights.student_layer.dislikes":             w.StudentLayer.Dislikes,
		"weights.class_layer.gender_balance":         w.ClassLayer.GenderBalance,
		"weights.school_layer.academic_balance":      w.SchoolLayer.AcademicBalance,
		"weights.school_layer.behavior_balance":      w.SchoolLayer.BehaviorBalance,
		"weights.school_layer.studentiality_balance": w.SchoolLayer.StudentialityBalance,
		"weights.school_layer.size_balance":          w.SchoolLayer.SizeBalance,
		"weights.school_layer.assistance_balance":    w.SchoolLayer.AssistanceBalance,
		"weights.school_layer.school_origin_balance": w.SchoolLayer.SchoolOriginBalance,
	} {
		if v < 0 {
			return &ConfigError{Key: key, Reason: "weight must be non-negative"}
		}
	}
	if c.Constraints.MinimumFriends < 0 {
		return &ConfigError{Key: "constraints.minimum_friends", Reason: "must be >= 0"}
	}
	cc := &c.ClassConfig
	if cc.TargetClasses < 0 {
		return &ConfigError{Key: "class_config.target_classes", Reason: "must be >= 0 (0 = auto)"}
	}
	if cc.MaxClassSize > 0 && cc.MinClassSize > cc.MaxClassSize {
		return &ConfigError{Key: "class_config.min_class_size", Reason: "exceeds max_class_size"}
	}
	o := &c.Optimization
	if o.MaxIterations < 0 {
		return &ConfigError{Key: "optimization.max_iterations", Reason: "must be >= 0"}
	}
	if o.EarlyStopThreshold < 0 {
		return &ConfigError{Key: "optimization.early_stop_threshold", Reason: "must be >= 0"}
	}
	a := &o.Algorithms
	if a.RandomSwap.MaxSwapAttempts <= 0 {
		return &ConfigError{Key: "optimization.algorithms.random_swap.max_swap_attempts", Reason: "must be > 0"}
	}
	if a.Annealing.CoolingRate <= 0 || a.Annealing.CoolingRate >= 1 {
		return &ConfigError{Key: "optimization.algorithms.simulated_annealing.cooling_rate", Reason: "must be in (0, 1)"}
	}
	if a.Annealing.InitialTemperature <= 0 {
		return &ConfigError{Key: "optimization.algorithms.simulated_annealing.initial_temperature", Reason: "must be > 0"}
	}
	if a.Evolutionary.PopulationSize < 2 {
		return &ConfigError{Key: "optimization.algorithms.evolutionary.population_size", Reason: "must be >= 2"}
	}
	if a.Evolutionary.EliteSize < 0 || a.Evolutionary.EliteSize >= a.Evolutionary.PopulationSize {
		return &ConfigError{Key: "optimization.algorithms.evolutionary.elite_size", Reason: "must be in [0, population_size)"}
	}
	if a.Evolutionary.TournamentSize < 1 {
		return &ConfigError{Key: "optimization.algorithms.evolutionary.tournament_size", Reason: "must be >= 1"}
	}
	if a.Evolutionary.MutationRate < 0 || a.Evolutionary.MutationRate > 1 {
		return &ConfigError{Key: "optimization.algorithms.evolutionary.mutation_rate", Reason: "must be in [0, 1]"}
	}
	if a.Evolutionary.CrossoverRate < 0 || a.Evolutionary.CrossoverRate > 1 {
		return &ConfigError{Key: "optimization.algorithms.evolutionary.crossover_rate", Reason: "must be in [0, 1]"}
	}
	if a.LocalSearch.MaxPasses < 0 {
		return &ConfigError{Key: "optimization.algorithms.local_search.max_passes", Reason: "must be >= 0"}
	}
	return nil
}

// LoadConfig parses a yaml configuration with strict field checking so typos
// fail instead of silently falling back to defaults. Unset sections keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a yaml document over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &ConfigError{Key: "(document)", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the configuration as yaml.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set assigns one dotted key ("constraints.minimum_friends") from its string
// form, round-tripping through yaml so types stay consistent with the file
// format. Unknown keys return config.invalid.
func (c *Config) Set(key, value string) error {
	doc, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(doc, &tree); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	parts := strings.Split(key, ".")
	node := tree
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			return &ConfigError{Key: key, Reason: "unknown key"}
		}
		node = child
	}
	leaf := parts[len(parts)-1]
	if _, ok := node[leaf]; !ok {
		return &ConfigError{Key: key, Reason: "unknown key"}
	}
	node[leaf] = coerceScalar(value, node[leaf])
	redone, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	next, err := ParseConfig(redone)
	if err != nil {
		return err
	}
	*c = *next
	return nil
}

// coerceScalar interprets a CLI string in the light of the key's current
// value: for a bool key it tries bool; otherwise it tries int, then float,
// then bool, before falling back to a plain string. Trying numbers first keeps
// "0" and "1" numeric for int and float keys.
func coerceScalar(v string, current any) any {
	if _, isBool := current.(bool); isBool {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return v
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// AutoTargetClasses derives the class count from the roster size when the
// configuration leaves it at 0.
func AutoTargetClasses(numStudents int) int {
	switch {
	case numStudents <= 25:
		return 1
	case numStudents <= 50:
		return 2
	case numStudents <= 75:
		return 3
	case numStudents <= 100:
		return 4
	default:
		k := (numStudents + 24) / 25
		if k < 4 {
			k = 4
		}
		if k > 8 {
			k = 8
		}
		return k
	}
}

// TargetClasses resolves the configured or derived class count.
func (c *Config) TargetClasses(numStudents int) int {
	if c.ClassConfig.TargetClasses > 0 {
		return c.ClassConfig.TargetClasses
	}
	return AutoTargetClasses(numStudents)
}
