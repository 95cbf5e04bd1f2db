// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/katalvlaran/asnet/data"
	"github.com/katalvlaran/asnet/matrix"
	"github.com/katalvlaran/asnet/nn"
	"github.com/katalvlaran/asnet/sketch"
)

// Model is the network driven by an Embedder. nn.Sequential implements it.
// Hook indices are 0-based layer positions.
type Model interface {
	Len() int
	Train()
	Forward(x *nn.Variable) (*matrix.Dense, error)
	Backward(grad *matrix.Dense) error
	RegisterBackwardHook(idx int, h nn.Hook) (func(), error)
}

// Embedder streams the output gradients of selected layers into one
// Frequent Directions sketch per layer.
//
// An Embedder is not safe for concurrent use.
type Embedder struct {
	model  Model
	loader data.Loader
	opts   Options

	table    *Table
	captured map[int]*matrix.Dense
	batches  int
}

// New validates the options and returns an Embedder over model and loader.
//
// Errors: ErrNilModel, ErrNilLoader, ErrOptionViolation, ErrUnsupportedDevice.
func New(model Model, loader data.Loader, opts ...Option) (*Embedder, error) {
	if model == nil {
		return nil, fmt.Errorf("capture.New: %w", ErrNilModel)
	}
	if loader == nil {
		return nil, fmt.Errorf("capture.New: %w", ErrNilLoader)
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, fmt.Errorf("capture.New: %w", o.err)
	}
	if o.Device != DeviceCPU {
		return nil, fmt.Errorf("capture.New: %q: %w", o.Device, ErrUnsupportedDevice)
	}

	return &Embedder{
		model:    model,
		loader:   loader,
		opts:     o,
		table:    NewTable(),
		captured: make(map[int]*matrix.Dense),
	}, nil
}

// TargetRank returns the sketch rank used for n features:
// min(minRank, int(dRate*n)), at least 1.
func TargetRank(n int, dRate float64, minRank int) int {
	return max(1, min(minRank, int(dRate*float64(n))))
}

// Run drives up to MaxBatches batches through forward, loss and backward,
// sketching the output gradient of every layer in layers (1-based ids).
// The first gradient seen for a layer only sizes its sketch; later batches
// are appended row by row.
//
// Run stops early on loader exhaustion (io.EOF, not an error), when ctx is
// cancelled (checked between batches) or when OnBatch fails. Hooks are
// removed and pending captures dropped before Run returns, so a batch that
// failed after its hooks fired never reaches a later Run.
func (e *Embedder) Run(ctx context.Context, layers ...int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ids, err := e.validateLayers(layers)
	if err != nil {
		return captureErrorf("Run", err)
	}
	defer clear(e.captured)

	e.model.Train()
	removes := make([]func(), 0, len(ids))
	defer func() {
		for _, remove := range removes {
			remove()
		}
	}()
	for _, id := range ids {
		remove, err := e.model.RegisterBackwardHook(id-1, func(g *matrix.Dense) {
			e.captured[id] = g.Copy()
		})
		if err != nil {
			return captureErrorf("Run", err)
		}
		removes = append(removes, remove)
	}

	for processed := 0; processed < e.opts.MaxBatches; processed++ {
		select {
		case <-ctx.Done():
			return captureErrorf("Run", ctx.Err())
		default:
		}

		batch, err := e.loader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return captureErrorf("Run", err)
		}
		loss, err := e.step(batch)
		if err != nil {
			return captureErrorf(fmt.Sprintf("Run[batch %d]", e.batches), err)
		}
		if err = e.fdStep(); err != nil {
			return captureErrorf(fmt.Sprintf("Run[batch %d]", e.batches), err)
		}
		idx := e.batches
		e.batches++
		if idx%e.opts.LogEvery == 0 {
			e.opts.Logger.Info("batch processed",
				zap.Int("batch", idx),
				zap.Float64("loss", loss),
				zap.Ints("layers", ids),
			)
		}
		if err = e.opts.OnBatch(idx, loss); err != nil {
			return captureErrorf("Run", err)
		}
	}
	e.opts.Logger.Info("capture finished",
		zap.Int("batches", e.batches),
		zap.Int("sketches", e.table.Len()),
	)

	return nil
}

// validateLayers checks every id before any batch is read and returns them
// sorted and de-duplicated.
func (e *Embedder) validateLayers(layers []int) ([]int, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	n := e.model.Len()
	seen := make(map[int]bool, len(layers))
	ids := make([]int, 0, len(layers))
	for _, id := range layers {
		if id < 1 || id > n {
			return nil, fmt.Errorf("layer %d of %d: %w", id, n, ErrLayerOutOfRange)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// step runs forward, loss and backward for one batch and returns the mean loss.
func (e *Embedder) step(batch data.Batch) (float64, error) {
	if err := batch.Validate(); err != nil {
		return 0, err
	}
	out, err := e.model.Forward(nn.NewVariable(batch.X.Flatten(), false))
	if err != nil {
		return 0, err
	}
	l, err := e.opts.Loss.Forward(out, batch.Labels)
	if err != nil {
		return 0, err
	}
	seed, err := matrix.NewDense(l.Rows(), l.Cols())
	if err != nil {
		return 0, err
	}
	vals := seed.RawData()
	for i := range vals {
		vals[i] = 1
	}
	grad, err := e.opts.Loss.Backward(seed)
	if err != nil {
		return 0, err
	}
	if err = e.model.Backward(grad); err != nil {
		return 0, err
	}

	mean := 0.0
	for _, v := range l.RawData() {
		mean += v
	}
	return mean / float64(len(l.RawData())), nil
}

// fdStep moves every captured gradient into its layer's sketch, ascending by id,
// then drains the captures.
func (e *Embedder) fdStep() error {
	ids := make([]int, 0, len(e.captured))
	for id := range e.captured {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	defer clear(e.captured)

	for _, id := range ids {
		g := e.captured[id]
		fd, ok := e.table.Get(id)
		if !ok {
			n := g.Cols()
			d := TargetRank(n, e.opts.DRate, e.opts.MinRank)
			fd, err := sketch.New(n, d,
				sketch.WithSeed(e.opts.Seed+int64(id)),
				sketch.WithObserver(e.opts.Observer),
				sketch.WithLogger(e.opts.Logger.With(zap.Int("layer", id))),
			)
			if err != nil {
				return fmt.Errorf("layer %d: %w", id, err)
			}
			e.table.Put(id, fd)
			e.opts.Logger.Debug("sketch created",
				zap.Int("layer", id),
				zap.Int("dim", n),
				zap.Int("rank", d),
			)
			continue
		}
		if err := fd.AppendRows(g); err != nil {
			return fmt.Errorf("layer %d: %w", id, err)
		}
	}

	return nil
}

// Sketches returns the per-layer sketch table. It is shared, not copied.
func (e *Embedder) Sketches() *Table { return e.table }

// Batches returns the number of batches processed over all runs.
func (e *Embedder) Batches() int { return e.batches }
