// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/capture"
	"github.com/katalvlaran/asnet/subspace"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Sketch layer output gradients over a stream of batches",
		Example: `  asnet stream --max-batches 5 --layers 1
  ASNET_STREAM_D_RATE=0.5 asnet stream --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			report, err := e.stream(cmd)
			if err != nil {
				e.logger.Error("stream failed", zap.Error(err))
				return err
			}
			return e.finish(cmd, report)
		},
	}
	addStreamFlags(cmd.Flags())

	return cmd
}

func (e *env) stream(cmd *cobra.Command) (*StreamReport, error) {
	s := e.cfg.Stream
	loader, err := e.dataset()
	if err != nil {
		return nil, err
	}
	emb, err := capture.New(e.network(), loader,
		capture.WithMaxBatches(s.MaxBatches),
		capture.WithLogEvery(s.LogEvery),
		capture.WithDRate(s.DRate),
		capture.WithMinRank(s.MinRank),
		capture.WithSeed(e.cfg.Seed),
		capture.WithLogger(e.logger),
		capture.WithObserver(e.collector),
		capture.WithOnBatch(e.collector.OnBatch),
	)
	if err != nil {
		return nil, err
	}
	if err = emb.Run(cmd.Context(), s.Layers...); err != nil {
		return nil, err
	}

	table := emb.Sketches()
	report := &StreamReport{RunID: e.runID, Batches: emb.Batches(), Layers: []LayerReport{}}
	if table.Len() == 0 {
		return report, nil
	}
	rMax := s.RMax
	if rMax == 0 {
		for i, id := range table.Layers() {
			fd, _ := table.Get(id)
			if i == 0 || fd.Rank() < rMax {
				rMax = fd.Rank()
			}
		}
	}
	models, sigmas, err := subspace.BuildFromSketches(table, rMax)
	if err != nil {
		return nil, err
	}
	for _, id := range table.Layers() {
		fd, _ := table.Get(id)
		report.Layers = append(report.Layers, LayerReport{
			Layer:     id,
			Features:  fd.Dim(),
			Rank:      fd.Rank(),
			Appended:  fd.Appended(),
			Skipped:   fd.Skipped(),
			Rotations: fd.Rotations(),
			RMax:      models[id].MaxRank(),
			Sigma:     sigmas[id],
		})
	}
	e.logger.Info("subspaces built", zap.Int("layers", len(models)), zap.Int("r_max", rMax))

	return report, nil
}
