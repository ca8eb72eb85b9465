package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xpoints/xlog"
)

const (
	MetricsExporterNone       = "none"
	MetricsExporterConsole    = "console"
	MetricsExporterPrometheus = "prometheus"

	maxRunnerWorkers = 1024
)

var ErrInvalidConfig = errors.New("[config] invalid config")

type LogConfig struct {
	Level   string `yaml:"level"`   // DEBUG|INFO|WARN|ERROR
	Encoder string `yaml:"encoder"` // json|plaintext
}

type MetricsConfig struct {
	Exporter string        `yaml:"exporter"` // none|console|prometheus
	Addr     string        `yaml:"addr"`     // prometheus scrape address
	Interval time.Duration `yaml:"interval"` // console export interval
}

type SkipListConfig struct {
	Seed uint64 `yaml:"seed"` // 0 keeps the random source
}

type RunnerConfig struct {
	Workers int    `yaml:"workers"`
	BaseDir string `yaml:"base_dir"` // scripts are opened beneath it
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	SkipList SkipListConfig `yaml:"skiplist"`
	Runner   RunnerConfig   `yaml:"runner"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   xlog.LogLevelInfo.String(),
			Encoder: "plaintext",
		},
		Metrics: MetricsConfig{
			Exporter: MetricsExporterNone,
			Addr:     ":9464",
			Interval: 10 * time.Second,
		},
		Runner: RunnerConfig{
			Workers: 4,
			BaseDir: ".",
		},
	}
}

// Load starts from Default and overrides it with the file. An empty or
// missing path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(path)) == 0 {
		return cfg, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()
	if err = cfg.decode(file); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	var merr error
	if _, ok := xlog.ParseLogLevel(cfg.Log.Level); !ok {
		merr = multierr.Append(merr, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, cfg.Log.Level))
	}
	if _, ok := xlog.ParseLogEncoder(cfg.Log.Encoder); !ok {
		merr = multierr.Append(merr, fmt.Errorf("%w: unknown log encoder %q", ErrInvalidConfig, cfg.Log.Encoder))
	}
	switch cfg.Metrics.Exporter {
	case MetricsExporterNone:
	case MetricsExporterConsole:
		if cfg.Metrics.Interval <= 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: metrics interval must be positive", ErrInvalidConfig))
		}
	case MetricsExporterPrometheus:
		if len(cfg.Metrics.Addr) == 0 {
			merr = multierr.Append(merr, fmt.Errorf("%w: empty prometheus address", ErrInvalidConfig))
		}
	default:
		merr = multierr.Append(merr, fmt.Errorf("%w: unknown metrics exporter %q", ErrInvalidConfig, cfg.Metrics.Exporter))
	}
	if cfg.Runner.Workers <= 0 || cfg.Runner.Workers > maxRunnerWorkers {
		merr = multierr.Append(merr, fmt.Errorf("%w: runner workers %d out of (0, %d]", ErrInvalidConfig, cfg.Runner.Workers, maxRunnerWorkers))
	}
	if len(cfg.Runner.BaseDir) == 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: empty runner base dir", ErrInvalidConfig))
	}
	return merr
}

// LogLevel falls back to INFO for an unknown name.
func (cfg *Config) LogLevel() xlog.LogLevel {
	lvl, _ := xlog.ParseLogLevel(cfg.Log.Level)
	return lvl
}

func (cfg *Config) LogEncoder() xlog.LogEncoder {
	enc, ok := xlog.ParseLogEncoder(cfg.Log.Encoder)
	if !ok {
		return xlog.PlainText
	}
	return enc
}
