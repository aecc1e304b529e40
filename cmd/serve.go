package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"oxywalk/server"
	"oxywalk/walk"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a walk while serving live views of it over http.",
	Long: `Run a walk while serving live views of it: open the address in a browser to ` +
		`watch the walker and cell counts and the occupancy profile along the oxygen axis. ` +
		`The page keeps serving the final state after the run until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		delay, _ := cmd.Flags().GetDuration("tick-delay")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return serveWalk(ctx, cfg, addr, delay, stderrLogger(cmd))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("tick-delay", 20*time.Millisecond, "pause after each tick so the run can be watched")
	rootCmd.AddCommand(serveCmd)
}

// serveWalk runs the engine and the server side by side until ctx is cancelled.
func serveWalk(
	ctx context.Context,
	cfg walk.Config,
	addr string,
	delay time.Duration,
	logger *slog.Logger,
) error {
	rng, seed := walk.NewSource(cfg.Seed)
	eng, err := walk.NewEngine(cfg, rng, logger)
	if err != nil {
		return err
	}
	logger.Info("walk configured", "run", eng.ID(), "seed", seed)

	group, groupCtx := errgroup.WithContext(ctx)
	frames := make(chan walk.Frame)
	srv, err := server.NewServer(groupCtx, addr, eng.Frame(eng.Current()), frames, logger)
	if err != nil {
		return err
	}

	group.Go(srv.Serve)
	group.Go(func() error {
		defer close(frames)
		res, err := eng.Run(groupCtx, func(ctx context.Context, stats walk.TickStats) {
			select {
			case frames <- eng.Frame(stats):
			case <-ctx.Done():
				return
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
		})
		if err != nil {
			return err
		}
		logger.Info("run complete, still serving", "addr", addr)
		logger.Debug(res.Summary())
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
