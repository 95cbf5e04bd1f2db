// SPDX-License-Identifier: MIT

package nn

import (
	"fmt"

	"github.com/katalvlaran/asnet/matrix"
)

// Reduction selects how per-sample losses are combined.
type Reduction int

const (
	// ReduceMean averages per-sample losses into a 1×1 output.
	ReduceMean Reduction = iota
	// ReduceSum sums per-sample losses into a 1×1 output.
	ReduceSum
	// ReduceNone keeps one loss per sample (batch×1 output).
	ReduceNone
)

func (r Reduction) String() string {
	switch r {
	case ReduceMean:
		return "mean"
	case ReduceSum:
		return "sum"
	case ReduceNone:
		return "none"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction maps "mean", "sum" or "none" to a Reduction.
func ParseReduction(s string) (Reduction, error) {
	switch s {
	case "mean":
		return ReduceMean, nil
	case "sum":
		return ReduceSum, nil
	case "none":
		return ReduceNone, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrBadReduction)
}

// Criterion is a differentiable loss over class predictions.
//
// Forward records its inputs; Backward maps ∂L/∂loss (same shape as the
// Forward output) to ∂L/∂pred and may be called repeatedly.
type Criterion interface {
	Forward(pred *matrix.Dense, target []int) (*matrix.Dense, error)
	Backward(grad *matrix.Dense) (*matrix.Dense, error)
}

// NLLLoss is the negative log-likelihood over log-probabilities:
// loss_i = −pred[i, target_i].
type NLLLoss struct {
	Reduction Reduction

	rows, cols int
	target     []int
}

// NewNLLLoss returns an NLLLoss with the given reduction.
func NewNLLLoss(r Reduction) *NLLLoss { return &NLLLoss{Reduction: r} }

func (l *NLLLoss) Forward(pred *matrix.Dense, target []int) (*matrix.Dense, error) {
	if pred == nil {
		return nil, nnErrorf("NLLLoss.Forward", matrix.ErrNilMatrix)
	}
	rows, cols := pred.Shape()
	if len(target) != rows {
		return nil, nnErrorf("NLLLoss.Forward", fmt.Errorf("%d labels for %d rows: %w", len(target), rows, ErrBadTarget))
	}
	per := make([]float64, rows)
	p := pred.RawData()
	for i, c := range target {
		if c < 0 || c >= cols {
			return nil, nnErrorf("NLLLoss.Forward", fmt.Errorf("label %d of %d classes: %w", c, cols, ErrBadTarget))
		}
		per[i] = -p[i*cols+c]
	}
	l.rows, l.cols, l.target = rows, cols, append([]int(nil), target...)

	switch l.Reduction {
	case ReduceNone:
		return matrix.NewDenseFromData(rows, 1, per)
	case ReduceMean, ReduceSum:
		sum := 0.0
		for _, v := range per {
			sum += v
		}
		if l.Reduction == ReduceMean {
			sum /= float64(rows)
		}
		return matrix.NewDenseFromData(1, 1, []float64{sum})
	default:
		return nil, nnErrorf("NLLLoss.Forward", ErrBadReduction)
	}
}

func (l *NLLLoss) Backward(grad *matrix.Dense) (*matrix.Dense, error) {
	if l.target == nil {
		return nil, nnErrorf("NLLLoss.Backward", ErrNoGraph)
	}
	if grad == nil {
		return nil, nnErrorf("NLLLoss.Backward", matrix.ErrNilMatrix)
	}
	gp, err := matrix.NewDense(l.rows, l.cols)
	if err != nil {
		return nil, nnErrorf("NLLLoss.Backward", err)
	}
	out := gp.RawData()
	g := grad.RawData()
	switch l.Reduction {
	case ReduceNone:
		if grad.Rows() != l.rows || grad.Cols() != 1 {
			return nil, nnErrorf("NLLLoss.Backward", matrix.ErrDimensionMismatch)
		}
		for i, c := range l.target {
			out[i*l.cols+c] = -g[i]
		}
	default:
		if grad.Rows() != 1 || grad.Cols() != 1 {
			return nil, nnErrorf("NLLLoss.Backward", matrix.ErrDimensionMismatch)
		}
		scale := g[0]
		if l.Reduction == ReduceMean {
			scale /= float64(l.rows)
		}
		for i, c := range l.target {
			out[i*l.cols+c] = -scale
		}
	}

	return gp, nil
}
