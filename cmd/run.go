package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"oxywalk/plotting"
	"oxywalk/walk"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// exitInterrupted is the conventional status for a process stopped by SIGINT.
const exitInterrupted = 130

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a walk to completion, then write its plots and print a summary.",
	Long: `Run a walk to completion, then write graph.png, walkercount.png, cellcount.png ` +
		`and distribution.png into the output directory (oxywalk_<run id> by default). ` +
		`An interrupt stops the run early; the partial result is still written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")

		wr, err := newWalkRun(cfg, outDir, stderrLogger(cmd), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		// Outputs are written only on the way out, whichever way that is.
		atexit.Register(wr.exitHandler)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := wr.run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				wr.logger.Warn("interrupted, writing partial outputs", "err", err)
				atexit.Exit(exitInterrupted)
			}
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("out", "", "output directory for plots, default oxywalk_<run id>")
	rootCmd.AddCommand(runCmd)
}

// walkRun is one engine and the destination of its outputs.
type walkRun struct {
	eng    *walk.Engine
	outDir string
	logger *slog.Logger
	stdout io.Writer
}

func newWalkRun(
	cfg walk.Config,
	outDir string,
	logger *slog.Logger,
	stdout io.Writer,
) (*walkRun, error) {
	rng, seed := walk.NewSource(cfg.Seed)
	eng, err := walk.NewEngine(cfg, rng, logger)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = "oxywalk_" + eng.ID()
	}
	logger.Info("walk configured", "run", eng.ID(), "seed", seed, "out", outDir)

	return &walkRun{
		eng:    eng,
		outDir: outDir,
		logger: logger,
		stdout: stdout,
	}, nil
}

// run advances the engine until it finishes or ctx is cancelled. It writes nothing.
func (wr *walkRun) run(ctx context.Context) error {
	_, err := wr.eng.Run(ctx, nil)
	return err
}

// writeOutputs plots whatever has run so far and prints its summary.
func (wr *walkRun) writeOutputs() error {
	res := wr.eng.Result()
	files, err := plotting.WriteAll(wr.outDir, res)
	if err != nil {
		return fmt.Errorf("write plots: %w", err)
	}
	wr.logger.Info("plots written", "files", files)
	fmt.Fprintln(wr.stdout, res.Summary())
	return nil
}

// exitHandler is registered with atexit. A failed write overrides the exit status.
func (wr *walkRun) exitHandler() {
	if err := wr.writeOutputs(); err != nil {
		wr.logger.Error("write outputs", "err", err)
		os.Exit(1)
	}
}
