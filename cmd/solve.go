package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rotation/app"
	"github.com/kilianp07/rotation/infra/logger"
	"github.com/kilianp07/rotation/pkg/export"
)

var solveOpts struct {
	format string
	out    string
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Build and solve the rotation then print the schedule",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveOpts.format, "format", export.FormatTable, "output format: table, json or csv")
	solveCmd.Flags().StringVar(&solveOpts.out, "out", "", "output file (stdout when empty)")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	w, closeOut, err := output(cmd, solveOpts.out)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeOut()) }()
	if err := export.Write(w, solveOpts.format, res.Schedule); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
