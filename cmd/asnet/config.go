// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/katalvlaran/asnet/capture"
)

// EnvPrefix prefixes environment overrides: stream.max_batches ← ASNET_STREAM_MAX_BATCHES.
const EnvPrefix = "ASNET"

// Report formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Config is the full command-line configuration, merged from flags,
// ASNET_* environment variables and an optional YAML file.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	LogDev     bool   `mapstructure:"log_dev"`
	Seed       int64  `mapstructure:"seed"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MetricsOut string `mapstructure:"metrics_out"`

	Model    ModelConfig    `mapstructure:"model"`
	Data     DataConfig     `mapstructure:"data"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Jacobian JacobianConfig `mapstructure:"jacobian"`
}

// ModelConfig sizes the Linear-ReLU-Linear-LogSoftmax network.
type ModelConfig struct {
	Inputs  int `mapstructure:"inputs"`
	Hidden  int `mapstructure:"hidden"`
	Classes int `mapstructure:"classes"`
}

// DataConfig sizes the synthetic dataset.
type DataConfig struct {
	Batches   int     `mapstructure:"batches"`
	BatchSize int     `mapstructure:"batch_size"`
	Scale     float64 `mapstructure:"scale"`
}

// StreamConfig drives gradient capture.
type StreamConfig struct {
	MaxBatches int     `mapstructure:"max_batches"`
	LogEvery   int     `mapstructure:"log_every"`
	DRate      float64 `mapstructure:"d_rate"`
	MinRank    int     `mapstructure:"min_rank"`
	Layers     []int   `mapstructure:"layers"`
	RMax       int     `mapstructure:"r_max"` // 0: smallest sketch rank
}

// JacobianConfig drives the direct builder.
type JacobianConfig struct {
	RMax         int     `mapstructure:"r_max"`
	Loss         string  `mapstructure:"loss"` // "", mean, sum or none
	AttackTarget int     `mapstructure:"attack_target"`
	Noise        float64 `mapstructure:"noise"`
	OneExample   bool    `mapstructure:"one_example"`
	NumNoise     int     `mapstructure:"num_noise"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"log-dev":       "log_dev",
	"seed":          "seed",
	"format":        "format",
	"output":        "output",
	"metrics-out":   "metrics_out",
	"inputs":        "model.inputs",
	"hidden":        "model.hidden",
	"classes":       "model.classes",
	"batches":       "data.batches",
	"batch-size":    "data.batch_size",
	"scale":         "data.scale",
	"max-batches":   "stream.max_batches",
	"log-every":     "stream.log_every",
	"d-rate":        "stream.d_rate",
	"min-rank":      "stream.min_rank",
	"layers":        "stream.layers",
	"r-max":         "stream.r_max",
	"jac-r-max":     "jacobian.r_max",
	"loss":          "jacobian.loss",
	"attack-target": "jacobian.attack_target",
	"noise":         "jacobian.noise",
	"one-example":   "jacobian.one_example",
	"num-noise":     "jacobian.num_noise",
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML configuration file")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("log-dev", false, "human-readable development logging")
	fs.Int64("seed", 1, "seed for data, sketches and projections")
	fs.String("format", FormatYAML, "report format (yaml or json)")
	fs.StringP("output", "o", "-", "report file, - for stdout")
	fs.String("metrics-out", "", "write Prometheus metrics to this file after the run")
	fs.Int("inputs", 784, "input features")
	fs.Int("hidden", 64, "hidden layer width")
	fs.Int("classes", 10, "output classes")
	fs.Int("batches", 10, "synthetic batches")
	fs.Int("batch-size", 32, "samples per batch")
	fs.Float64("scale", 1, "standard deviation of synthetic samples")
}

func addStreamFlags(fs *pflag.FlagSet) {
	fs.Int("max-batches", 5, "batches to stream")
	fs.Int("log-every", capture.DefaultLogEvery, "progress log cadence in batches")
	fs.Float64("d-rate", capture.DefaultDRate, "sketch rank as a fraction of the feature dimension")
	fs.Int("min-rank", capture.DefaultMinRank, "upper bound on the sketch rank")
	fs.StringSlice("layers", []string{"1"}, "1-based layer ids to sketch, comma separated")
	fs.Int("r-max", 0, "subspace rank, 0 for the smallest sketch rank")
}

func addJacobianFlags(fs *pflag.FlagSet) {
	fs.Int("jac-r-max", 8, "subspace rank")
	fs.String("loss", "", "differentiate the NLL loss with this reduction (mean, sum, none)")
	fs.Int("attack-target", -1, "class used as the loss target for every sample, -1 to use labels")
	fs.Float64("noise", 0, "noise level added to the samples")
	fs.Bool("one-example", false, "stack Jacobians of noisy copies of the first sample")
	fs.Int("num-noise", 16, "noisy copies for --one-example")
}

// loadConfig merges flags, environment and the optional --config file.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	fs := cmd.Flags()
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind %s: %w", name, err)
			}
		}
	}
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Format != FormatYAML && cfg.Format != FormatJSON {
		return nil, fmt.Errorf("unknown format %q", cfg.Format)
	}

	return &cfg, nil
}
