// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LayerReport summarizes one streamed layer.
type LayerReport struct {
	Layer     int       `json:"layer" yaml:"layer"`
	Features  int       `json:"features" yaml:"features"`
	Rank      int       `json:"rank" yaml:"rank"`
	Appended  int       `json:"appended" yaml:"appended"`
	Skipped   int       `json:"skipped" yaml:"skipped"`
	Rotations int       `json:"rotations" yaml:"rotations"`
	RMax      int       `json:"r_max" yaml:"r_max"`
	Sigma     []float64 `json:"sigma" yaml:"sigma"`
}

// StreamReport is the result of the stream command.
type StreamReport struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Batches int           `json:"batches" yaml:"batches"`
	Layers  []LayerReport `json:"layers" yaml:"layers"`
}

// JacobianReport is the result of the jacobian command.
type JacobianReport struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Features int       `json:"features" yaml:"features"`
	Rank     int       `json:"rank" yaml:"rank"`
	Sigma    []float64 `json:"sigma" yaml:"sigma"`
}

// writeReport encodes v as YAML or indented JSON to path, or to stdout when path is "-" or empty.
func writeReport(stdout io.Writer, path, format string, v any) error {
	if path == "" || path == "-" {
		return encodeReport(stdout, format, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	return writeAndClose(f, format, v)
}

// writeAndClose encodes v into wc and closes it. A close failure is
// returned when the encode itself succeeded.
func writeAndClose(wc io.WriteCloser, format string, v any) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()

	return encodeReport(wc, format, v)
}

func encodeReport(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
