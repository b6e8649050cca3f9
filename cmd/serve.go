package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rotation/core/solver"
	"github.com/kilianp07/rotation/infra/logger"
	"github.com/kilianp07/rotation/infra/solver/remote"
	"github.com/kilianp07/rotation/infra/solver/server"
	"github.com/kilianp07/rotation/internal/eventbus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the configured solver backend over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Solver.Backend.Type == remote.Name {
		return fmt.Errorf("serve needs a local backend, got %q", remote.Name)
	}
	log := logger.New("serve")
	bus := eventbus.New[solver.Progress](64)
	wait := bus.Consume(ctx, func(p solver.Progress) {
		log.Debugf("%s incumbent %.3f bound %.3f nodes %d", p.Backend, p.Incumbent, p.Bound, p.Nodes)
	})
	defer wait()
	defer bus.Close()

	s, err := solver.NewBackendWithProgress(cfg.Solver.Backend, bus)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg.Server, s)
	if err != nil {
		return err
	}
	log.Infof("serving %s backend on %s", cfg.Solver.Backend.Type, srv.Addr())
	return srv.Start(ctx)
}
