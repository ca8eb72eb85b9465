package script

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/safeopen"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xpoints/lib/infra"
	"github.com/benz9527/xpoints/pointdb"
	"github.com/benz9527/xpoints/xlog"
)

// RunIDContextKey is the context key of the run id, configure the
// logger with xlog.WithXLoggerContextFieldExtract(RunIDContextKey) to
// print it.
const RunIDContextKey = "xpoints.run.id"

// Result keeps the output of one script even if the script failed
// halfway.
type Result struct {
	Path   string
	RunID  string
	Output []byte
	Err    error
}

// Runner executes scripts concurrently, each against its own database.
// Scripts are opened beneath the base directory only.
type Runner struct {
	pool    *ants.Pool
	baseDir string
	dbOpts  []pointdb.DatabaseOption
	logger  xlog.XLogger
}

func NewRunner(workers int, baseDir string, logger xlog.XLogger, dbOpts ...pointdb.DatabaseOption) (*Runner, error) {
	if len(baseDir) == 0 {
		baseDir = "."
	}
	opts := []ants.Option{
		ants.WithPreAlloc(false),
	}
	if logger != nil {
		opts = append(opts,
			ants.WithLogger(xlog.NewAntsXLogger(logger)),
			ants.WithPanicHandler(func(p any) {
				logger.Error(fmt.Errorf("%v", p), "script worker panic")
			}),
		)
	}
	pool, err := ants.NewPool(workers, opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{
		pool:    pool,
		baseDir: baseDir,
		dbOpts:  dbOpts,
		logger:  logger,
	}, nil
}

func (r *Runner) Close() {
	r.pool.Release()
}

func (r *Runner) runOne(ctx context.Context, path string) (res Result) {
	res = Result{Path: path, RunID: uuid.NewString()}
	ctx = context.WithValue(ctx, xlog.ContextKey(RunIDContextKey), res.RunID)

	f, err := safeopen.OpenBeneath(r.baseDir, path)
	if err != nil {
		res.Err = infra.WrapErrorStack(err, "open script "+path)
		return res
	}
	defer func() {
		_ = f.Close()
	}()

	opts := append([]pointdb.DatabaseOption{pointdb.WithDatabaseLogger(r.logger)}, r.dbOpts...)
	db, err := pointdb.NewDatabase(opts...)
	if err != nil {
		res.Err = infra.WrapErrorStack(err, "new database for "+path)
		return res
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "script started", zap.String("path", path))
	}
	out := &bytes.Buffer{}
	res.Err = NewProcessor(db, out, r.logger).Run(ctx, f)
	res.Output = out.Bytes()
	if err = db.CheckConsistency(); err != nil {
		res.Err = multierr.Append(res.Err, err)
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, "script finished", zap.String("path", path), zap.Int64("points", db.Len()))
	}
	return res
}

// Run returns the results in the order of paths, the error combines the
// failures of all scripts.
func (r *Runner) Run(ctx context.Context, paths ...string) ([]Result, error) {
	var (
		results = make([]Result, len(paths))
		wg      sync.WaitGroup
	)
	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer func() {
				if p := recover(); p != nil {
					results[i] = Result{Path: path, Err: infra.NewErrorStack(fmt.Sprintf("script %s panic: %v", path, p))}
				}
				wg.Done()
			}()
			results[i] = r.runOne(ctx, path)
		})
		if err != nil {
			wg.Done()
			results[i] = Result{Path: path, Err: err}
		}
	}
	wg.Wait()

	var merr error
	for _, res := range results {
		if res.Err != nil {
			merr = multierr.Append(merr, fmt.Errorf("%s: %w", res.Path, res.Err))
		}
	}
	return results, merr
}
