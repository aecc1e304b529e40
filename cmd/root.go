// Package cmd provides the command-line interface for oxywalk.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"oxywalk/walk"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oxywalk",
	Short: "Simulates cancer cell growth as biased random walks along an oxygen gradient.",
	Long: `oxywalk runs a population of random walkers on a 3D lattice whose oxygen ` +
		`concentration rises along z. Walkers die more often where oxygen is low, move ` +
		`preferentially toward oxygen, and deposit a cancer cell on every cell they claim. ` +
		`Use "run" for a batch run with plots, or "serve" to watch a run live in the browser.`,
	SilenceUsage: true,
}

// Flag names shared by every command that runs a walk.
const (
	flagConfig        = "config"
	flagDebug         = "debug"
	flagGridSize      = "grid-size"
	flagOxygenBias    = "oxygen-bias"
	flagNwBias        = "nw-bias"
	flagNumSteps      = "num-steps"
	flagMaxWalkers    = "max-walkers"
	flagSeed          = "seed"
	flagSpawnMode     = "spawn-mode"
	flagEvictOnRetire = "evict-on-retire"
	flagLogEvery      = "log-every"
)

func init() {
	addWalkFlags(rootCmd)
}

// addWalkFlags registers the configuration flags as persistent flags of cmd.
func addWalkFlags(cmd *cobra.Command) {
	defaults := walk.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.String(flagConfig, "", "path to a yaml file with a WalkConfig definition")
	flags.Bool(flagDebug, false, "enable debug logging")
	flags.Int(flagGridSize, defaults.GridSize, "lattice extent per axis")
	flags.Float64(flagOxygenBias, defaults.OxygenBias, "movement bias toward +z, in [0,1]")
	flags.Float64(flagNwBias, defaults.NwBias, "per-tick probability of spawning a walker, in [0,1]")
	flags.Int(flagNumSteps, defaults.NumSteps, "number of ticks to run")
	flags.Int(flagMaxWalkers, defaults.MaxWalkers, "population cap for growth")
	flags.Int64(flagSeed, defaults.Seed, "random seed, 0 seeds from the clock")
	flags.String(flagSpawnMode, defaults.SpawnMode, `where new walkers spawn: "last" or "adjacent"`)
	flags.Bool(flagEvictOnRetire, defaults.EvictOnRetire, "remove walkers standing on a retired cell")
	flags.Int(flagLogEvery, defaults.LogEvery, "debug log every n ticks, 0 disables")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exit goes through atexit so registered flushes always run.
func Execute() {
	executeContext(context.Background())
}

func executeContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadConfig builds the run configuration: defaults, then the config file if
// given, then any flags set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (walk.Config, error) {
	flags := cmd.Flags()
	cfg := walk.DefaultConfig()

	path, err := flags.GetString(flagConfig)
	if err != nil {
		return cfg, err
	}
	if path != "" {
		fileCfg, err := walk.FromYaml(path)
		if err != nil {
			return cfg, err
		}
		cfg = *fileCfg
	}

	overrides := []struct {
		name  string
		apply func() error
	}{
		{flagGridSize, func() (err error) { cfg.GridSize, err = flags.GetInt(flagGridSize); return }},
		{flagOxygenBias, func() (err error) { cfg.OxygenBias, err = flags.GetFloat64(flagOxygenBias); return }},
		{flagNwBias, func() (err error) { cfg.NwBias, err = flags.GetFloat64(flagNwBias); return }},
		{flagNumSteps, func() (err error) { cfg.NumSteps, err = flags.GetInt(flagNumSteps); return }},
		{flagMaxWalkers, func() (err error) { cfg.MaxWalkers, err = flags.GetInt(flagMaxWalkers); return }},
		{flagSeed, func() (err error) { cfg.Seed, err = flags.GetInt64(flagSeed); return }},
		{flagSpawnMode, func() (err error) { cfg.SpawnMode, err = flags.GetString(flagSpawnMode); return }},
		{flagEvictOnRetire, func() (err error) { cfg.EvictOnRetire, err = flags.GetBool(flagEvictOnRetire); return }},
		{flagLogEvery, func() (err error) { cfg.LogEvery, err = flags.GetInt(flagLogEvery); return }},
	}
	for _, o := range overrides {
		if !flags.Changed(o.name) {
			continue
		}
		if err := o.apply(); err != nil {
			return cfg, fmt.Errorf("flag %s: %w", o.name, err)
		}
	}

	return cfg, cfg.Validate()
}

// newLogger writes text logs to w, at debug level when the debug flag is set.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func stderrLogger(cmd *cobra.Command) *slog.Logger {
	return newLogger(cmd, os.Stderr)
}
