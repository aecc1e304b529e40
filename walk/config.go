package walk

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigKind is the only envelope kind FromYaml accepts.
const ConfigKind = "WalkConfig"

// Spawn modes select where a newly grown walker is placed.
const (
	// SpawnLast places the new walker on the post-move cell of the last
	// walker that survived the tick, without claiming anything.
	SpawnLast = "last"
	// SpawnAdjacent places it on the first free neighbour of that cell and claims it.
	SpawnAdjacent = "adjacent"
)

// Fixed model rates.
const (
	DeathRateFactor = 0.05
	RetireProb      = 0.02
)

// OuterConfig is the yaml envelope: a kind selector and an opaque definition body.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Config holds the run parameters. It is passed explicitly to NewEngine;
// nothing in this package reads configuration from anywhere else.
// The yaml tags are lower case since viper folds keys before the def body is re-encoded.
type Config struct {
	// GridSize is the lattice extent per axis.
	GridSize int `yaml:"gridsize"`
	// OxygenBias skews movement toward +z (weight 1+bias) and away from -z (1-bias).
	OxygenBias float64 `yaml:"oxygenbias"`
	// NwBias is the per-tick probability of spawning a walker.
	NwBias float64 `yaml:"nwbias"`
	// NumSteps is the exact number of ticks to run.
	NumSteps int `yaml:"numsteps"`
	// MaxWalkers caps population growth.
	MaxWalkers int `yaml:"maxwalkers"`
	// Seed for the random source; zero means seed from the clock.
	Seed int64 `yaml:"seed"`
	// SpawnMode is SpawnLast or SpawnAdjacent.
	SpawnMode string `yaml:"spawnmode"`
	// EvictOnRetire also removes any walker sitting on a retired cell.
	EvictOnRetire bool `yaml:"evictonretire"`
	// LogEvery emits a debug line every LogEvery ticks; zero disables it.
	LogEvery int `yaml:"logevery"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		GridSize:   50,
		OxygenBias: 0.2,
		NwBias:     0.1,
		NumSteps:   1000,
		MaxWalkers: 100,
		SpawnMode:  SpawnLast,
		LogEvery:   100,
	}
}

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError names the offending parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate rejects configurations the engine cannot run. It is called before a run
// starts, never inside the tick loop.
func (cfg *Config) Validate() error {
	switch {
	case cfg.GridSize <= 0:
		return &ConfigError{"gridSize", "must be positive"}
	case cfg.NumSteps <= 0:
		return &ConfigError{"numSteps", "must be positive"}
	case cfg.MaxWalkers <= 0:
		return &ConfigError{"maxWalkers", "must be positive"}
	case !isProb(cfg.NwBias):
		return &ConfigError{"nwBias", "must lie in [0,1]"}
	case !isProb(cfg.OxygenBias):
		return &ConfigError{"oxygenBias", "must lie in [0,1]"}
	case cfg.LogEvery < 0:
		return &ConfigError{"logEvery", "must not be negative"}
	}

	switch cfg.SpawnMode {
	case SpawnLast, SpawnAdjacent:
	default:
		return &ConfigError{"spawnMode", fmt.Sprintf("%q is not one of %q, %q", cfg.SpawnMode, SpawnLast, SpawnAdjacent)}
	}
	return nil
}

// isProb is false for NaN as well as out of range values.
func isProb(p float64) bool {
	return p >= 0 && p <= 1
}

// FromYaml reads a WalkConfig envelope from path. Fields missing from the
// definition keep their DefaultConfig values. The result is not validated.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if outerConfig.Kind != "" && outerConfig.Kind != ConfigKind {
		return nil, fmt.Errorf("%w: kind %q, expected %q", ErrInvalidConfig, outerConfig.Kind, ConfigKind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, fmt.Errorf("encode def: %w", err)
	}

	cfg := DefaultConfig()
	if err = yaml.Unmarshal(def, &cfg); err != nil {
		return nil, fmt.Errorf("decode def: %w", err)
	}

	return &cfg, nil
}
