package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xpoints/config"
	"github.com/benz9527/xpoints/observability"
	"github.com/benz9527/xpoints/pointdb"
	"github.com/benz9527/xpoints/script"
	"github.com/benz9527/xpoints/xlog"
)

type flags struct {
	configPath string
	logLevel   string
	seed       uint64
	workers    int
	metrics    string
	baseDir    string
}

func newFlagSet(f *flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("xpoints", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file, reloaded on change")
	fs.StringVar(&f.logLevel, "log-level", "", "DEBUG|INFO|WARN|ERROR")
	fs.Uint64Var(&f.seed, "seed", 0, "skip list level generator seed, 0 is random")
	fs.IntVarP(&f.workers, "workers", "w", 0, "scripts executed concurrently")
	fs.StringVar(&f.metrics, "metrics", "", "none|console|prometheus")
	fs.StringVar(&f.baseDir, "base-dir", "", "scripts are opened beneath this directory")
	return fs
}

// loadConfig overrides the file values by the flags set explicitly.
func loadConfig(fs *pflag.FlagSet, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("seed") {
		cfg.SkipList.Seed = f.seed
	}
	if fs.Changed("workers") {
		cfg.Runner.Workers = f.workers
	}
	if fs.Changed("metrics") {
		cfg.Metrics.Exporter = f.metrics
	}
	if fs.Changed("base-dir") {
		cfg.Runner.BaseDir = f.baseDir
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type banner struct {
	scripts int
}

func (b banner) JSON() string {
	return fmt.Sprintf(`{"app":"xpoints","scripts":%d}`, b.scripts)
}

func (b banner) PlainText() string {
	return fmt.Sprintf("xpoints, %d script(s)", b.scripts)
}

func newLogger(cfg *config.Config) xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(cfg.LogLevel()),
		xlog.WithXLoggerEncoder(cfg.LogEncoder()),
		xlog.WithXLoggerContextFieldExtract(script.RunIDContextKey, "runID"),
	)
}

func newRunner(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) (*script.Runner, error) {
	opts := []pointdb.DatabaseOption{
		pointdb.WithSkipListSeed(cfg.SkipList.Seed),
	}
	if cfg.Metrics.Exporter != config.MetricsExporterNone {
		opts = append(opts, pointdb.WithDatabaseStats("runner"))
	}
	runner, err := script.NewRunner(cfg.Runner.Workers, cfg.Runner.BaseDir, logger, opts...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			runner.Close()
			return nil
		},
	})
	return runner, nil
}

// registerMetrics installs the global meter provider before any database
// is created, the console exporter flushes on stop.
func registerMetrics(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) error {
	var (
		shutdown observability.ShutdownFunc
		server   *http.Server
		err      error
	)
	switch cfg.Metrics.Exporter {
	case config.MetricsExporterConsole:
		shutdown, err = observability.NewConsoleMetricsExporter(cfg.Metrics.Interval, 5*time.Second)
	case config.MetricsExporterPrometheus:
		var handler http.Handler
		handler, shutdown, err = observability.NewPrometheusMetricsExporter()
		if err == nil {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			server = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}

	statsCtx, cancel := context.WithCancel(context.Background())
	observability.InitAppStats(statsCtx, "cli", nil)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if server == nil {
				return nil
			}
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics server stopped")
				}
			}()
			logger.Info("metrics server started", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			if server != nil {
				_ = server.Shutdown(ctx)
			}
			return shutdown(ctx)
		},
	})
	return nil
}

// watchConfig follows the log level of the config file.
func watchConfig(lc fx.Lifecycle, f *flags, logger xlog.XLogger) {
	if len(f.configPath) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return config.Watch(ctx, f.configPath, func(cfg *config.Config, err error) {
				if err != nil {
					logger.Warn("config reload failed", zap.Error(err))
					return
				}
				logger.IncreaseLogLevel(xlog.ZapLevel(cfg.Log.Level))
				logger.Info("config reloaded", zap.String("level", logger.Level()))
			})
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

type deps struct {
	Logger xlog.XLogger
	Runner *script.Runner
}

func newApp(cfg *config.Config, f *flags, populate *deps) *fx.App {
	return fx.New(
		fx.Supply(cfg, f),
		fx.Provide(newLogger, newRunner),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(registerMetrics, watchConfig),
		fx.Populate(&populate.Logger, &populate.Runner),
		fx.StartTimeout(10*time.Second),
		fx.StopTimeout(10*time.Second),
	)
}

// run prints the outputs to stdout in the order of the scripts and
// returns the exit code.
func run(args []string) int {
	f := &flags{}
	fs := newFlagSet(f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	scripts := fs.Args()
	if len(scripts) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: xpoints [flags] <command-file>...")
		fs.PrintDefaults()
		return 2
	}
	cfg, err := loadConfig(fs, f)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 2
	}

	populate := &deps{}
	app := newApp(cfg, f, populate)
	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err = app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := populate.Logger
	logger.Banner(banner{scripts: len(scripts)})

	code := 0
	results, err := populate.Runner.Run(context.Background(), scripts...)
	for _, res := range results {
		_, _ = os.Stdout.Write(res.Output)
	}
	if err != nil {
		logger.ErrorStack(err, "scripts failed")
		code = 1
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err = app.Stop(stopCtx); err != nil {
		logger.Error(err, "failed to stop")
		code = 1
	}
	_ = logger.Sync()
	return code
}
