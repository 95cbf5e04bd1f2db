// SPDX-License-Identifier: MIT

// Command asnet builds active subspaces of a small reference network on
// synthetic data, either by streaming layer gradients through Frequent
// Directions sketches (stream) or from the full input Jacobian (jacobian).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/data"
	"github.com/katalvlaran/asnet/metrics"
	"github.com/katalvlaran/asnet/nn"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asnet",
		Short: "Active-subspace sketching of network gradients",
		Long: `asnet trains nothing: it runs a Linear-ReLU-Linear-LogSoftmax network on
seeded synthetic data and reports the dominant directions of its gradients.

Every flag can also be set through ASNET_<KEY> (for example
ASNET_STREAM_MAX_BATCHES) or a YAML file passed with --config.`,
		SilenceUsage: true,
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "asnet v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newStreamCmd(), newJacobianCmd())

	return root
}

// env is the per-command runtime built from a Config.
type env struct {
	runID     string
	cfg       *Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()

	return &env{
		runID:     id.String(),
		cfg:       cfg,
		logger:    logger.With(zap.String("run_id", id.String()), zap.String("command", cmd.Name())),
		registry:  reg,
		collector: metrics.NewCollector(reg),
	}, nil
}

// finish writes the report and the optional metrics file, then flushes the logger.
func (e *env) finish(cmd *cobra.Command, report any) error {
	defer func() { _ = e.logger.Sync() }()
	if err := writeReport(cmd.OutOrStdout(), e.cfg.Output, e.cfg.Format, report); err != nil {
		return err
	}
	if e.cfg.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(e.cfg.MetricsOut, e.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (e *env) network() *nn.Sequential {
	m := e.cfg.Model
	rng := rand.New(rand.NewSource(e.cfg.Seed))
	return nn.NewSequential(
		nn.NewLinear(m.Inputs, m.Hidden, rng),
		nn.NewReLU(true),
		nn.NewLinear(m.Hidden, m.Classes, rng),
		nn.NewLogSoftmax(),
	)
}

func (e *env) dataset() (*data.Synthetic, error) {
	d := e.cfg.Data
	if d.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", d.Scale)
	}
	return data.NewSynthetic(d.Batches, d.BatchSize, e.cfg.Model.Classes, []int{e.cfg.Model.Inputs},
		data.WithSeed(e.cfg.Seed),
		data.WithScale(d.Scale),
	)
}
