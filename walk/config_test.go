package walk

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(dir, body string) string {
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		panic(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	Convey("The default configuration is valid", t, func() {
		cfg := DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)
	})

	Convey("Invalid parameters are rejected with the offending field", t, func() {
		cases := []struct {
			field  string
			mutate func(*Config)
		}{
			{"gridSize", func(c *Config) { c.GridSize = 0 }},
			{"gridSize", func(c *Config) { c.GridSize = -3 }},
			{"numSteps", func(c *Config) { c.NumSteps = 0 }},
			{"maxWalkers", func(c *Config) { c.MaxWalkers = 0 }},
			{"nwBias", func(c *Config) { c.NwBias = 1.5 }},
			{"nwBias", func(c *Config) { c.NwBias = math.NaN() }},
			{"oxygenBias", func(c *Config) { c.OxygenBias = -0.1 }},
			{"oxygenBias", func(c *Config) { c.OxygenBias = 2 }},
			{"logEvery", func(c *Config) { c.LogEvery = -1 }},
			{"spawnMode", func(c *Config) { c.SpawnMode = "fresh" }},
		}
		for _, tc := range cases {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)

			var cfgErr *ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
			So(cfgErr.Field, ShouldEqual, tc.field)
		}
	})

	Convey("Probabilities at the closed ends of [0,1] are accepted", t, func() {
		cfg := DefaultConfig()
		cfg.NwBias, cfg.OxygenBias = 0, 1
		So(cfg.Validate(), ShouldBeNil)
		cfg.NwBias, cfg.OxygenBias = 1, 0
		So(cfg.Validate(), ShouldBeNil)
	})
}

func TestFromYaml(t *testing.T) {
	Convey("Given a config file", t, func() {
		dir := t.TempDir()

		Convey("When the def body sets every field", func() {
			path := writeConfig(dir, `
kind: WalkConfig
def:
  gridSize: 9
  oxygenBias: 0.4
  nwBias: 0.25
  numSteps: 30
  maxWalkers: 12
  seed: 99
  spawnMode: adjacent
  evictOnRetire: true
  logEvery: 5
`)
			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			So(*cfg, ShouldResemble, Config{
				GridSize:      9,
				OxygenBias:    0.4,
				NwBias:        0.25,
				NumSteps:      30,
				MaxWalkers:    12,
				Seed:          99,
				SpawnMode:     SpawnAdjacent,
				EvictOnRetire: true,
				LogEvery:      5,
			})
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("When the def body is partial, the rest are defaults", func() {
			path := writeConfig(dir, `
kind: WalkConfig
def:
  gridSize: 7
`)
			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			expected := DefaultConfig()
			expected.GridSize = 7
			So(*cfg, ShouldResemble, expected)
		})

		Convey("When the kind is wrong", func() {
			path := writeConfig(dir, `
kind: TrainingConfig
def:
  gridSize: 7
`)
			_, err := FromYaml(path)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := FromYaml(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
