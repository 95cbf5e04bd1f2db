// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/jacobian"
	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/nn"
	"github.com/katalvlaran/asnet/subspace"
)

func newJacobianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jacobian",
		Short: "Build a subspace from the input Jacobian of one batch",
		Example: `  asnet jacobian --jac-r-max 8
  asnet jacobian --loss none --attack-target 3
  asnet jacobian --one-example --num-noise 32 --noise 0.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			report, err := e.jacobian()
			if err != nil {
				e.logger.Error("jacobian failed", zap.Error(err))
				return err
			}
			return e.finish(cmd, report)
		},
	}
	addJacobianFlags(cmd.Flags())

	return cmd
}

func (e *env) jacobian() (*JacobianReport, error) {
	j := e.cfg.Jacobian
	loader, err := e.dataset()
	if err != nil {
		return nil, err
	}
	batch, err := loader.Next()
	if err != nil {
		return nil, fmt.Errorf("first batch: %w", err)
	}

	opts := []jacobian.Option{jacobian.WithSeed(e.cfg.Seed), jacobian.WithLogger(e.logger)}
	if j.Loss != "" {
		r, err := nn.ParseReduction(j.Loss)
		if err != nil {
			return nil, err
		}
		opts = append(opts, jacobian.WithLoss(nn.NewNLLLoss(r)))
	}
	if j.AttackTarget >= 0 {
		opts = append(opts, jacobian.WithAttackTarget(j.AttackTarget))
	}

	net := e.network()
	var (
		model *subspace.Model
		sigma []float64
	)
	if j.OneExample {
		first, err := matrix.NewTensorFromData(batch.X.Data()[:batch.X.Features()], 1, batch.X.Features())
		if err != nil {
			return nil, err
		}
		model, sigma, err = jacobian.BuildOneExample(net, first, batch.Labels[0], j.NumNoise, j.Noise, j.RMax, opts...)
		if err != nil {
			return nil, err
		}
	} else {
		if j.Noise > 0 {
			noise, err := gaussian(batch.X.Shape(), j.Noise, e.cfg.Seed)
			if err != nil {
				return nil, err
			}
			opts = append(opts, jacobian.WithNoise(noise))
		}
		model, sigma, err = jacobian.Build(net, batch.X, batch.Labels, j.RMax, opts...)
		if err != nil {
			return nil, err
		}
	}
	e.logger.Info("jacobian subspace built", zap.Int("features", model.Features()), zap.Int("rank", model.Rank()))

	return &JacobianReport{RunID: e.runID, Features: model.Features(), Rank: model.Rank(), Sigma: sigma}, nil
}

// gaussian returns level·N(0, 1) noise of the given shape.
func gaussian(shape []int, level float64, seed int64) (*matrix.Tensor, error) {
	t, err := matrix.NewTensor(shape...)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed + 1))
	for i := range t.Data() {
		t.Data()[i] = level * rng.NormFloat64()
	}
	return t, nil
}
