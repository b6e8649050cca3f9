package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rotation/app"
	"github.com/kilianp07/rotation/core/milp"
)

var modelOpts struct {
	format string
	out    string
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Build the model and write it without solving",
	RunE:  runModel,
}

func init() {
	modelCmd.Flags().StringVar(&modelOpts.format, "format", "lp", "output format: lp or json")
	modelCmd.Flags().StringVar(&modelOpts.out, "out", "", "output file (stdout when empty)")
	rootCmd.AddCommand(modelCmd)
}

func runModel(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The model command never solves, so sinks and the broker stay untouched.
	cfg.Metrics.Sinks = nil
	cfg.Store.Type = "none"
	cfg.MQTT.Broker = ""
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, svc.Close()) }()

	plan, err := svc.Build()
	if err != nil {
		return err
	}
	w, closeOut, err := output(cmd, modelOpts.out)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeOut()) }()
	switch modelOpts.format {
	case "lp":
		return milp.WriteLP(w, plan.Model)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan.Model)
	default:
		return fmt.Errorf("unknown model format %q", modelOpts.format)
	}
}
