package pointdb

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/benz9527/xpoints/lib/infra"
	"github.com/benz9527/xpoints/lib/list"
	"github.com/benz9527/xpoints/lib/tree"
	"github.com/benz9527/xpoints/xlog"
)

var ErrInconsistent = errors.New("[pointdb] skip list and quadtree diverged")

// RegionResult is the answer of a region search, Visited counts every
// quadtree node touched by the search.
type RegionResult struct {
	Points  []*Point
	Visited int
}

type databaseOptions struct {
	name      string
	worldSize int
	sklOpts   []list.XSklOption[string]
	stats     bool
	logger    xlog.XLogger
}

type DatabaseOption func(opts *databaseOptions) error

// WithWorldSize replaces tree.DefaultWorldSize, the size must be a power of two.
func WithWorldSize(size int) DatabaseOption {
	return func(opts *databaseOptions) error {
		opts.worldSize = size
		return nil
	}
}

// WithSkipListSeed makes the skip list shape reproducible. Zero keeps
// the random source.
func WithSkipListSeed(seed uint64) DatabaseOption {
	return func(opts *databaseOptions) error {
		opts.sklOpts = append(opts.sklOpts, list.WithSklSeed[string](seed))
		return nil
	}
}

func WithSkipListCoin(coin list.SklCoin) DatabaseOption {
	return func(opts *databaseOptions) error {
		opts.sklOpts = append(opts.sklOpts, list.WithSklCoin[string](coin))
		return nil
	}
}

// WithDatabaseStats records the mutations on the global otel meter provider.
func WithDatabaseStats(name string) DatabaseOption {
	return func(opts *databaseOptions) error {
		opts.stats = true
		opts.name = name
		return nil
	}
}

func WithDatabaseLogger(logger xlog.XLogger) DatabaseOption {
	return func(opts *databaseOptions) error {
		opts.logger = logger
		return nil
	}
}

// Database keeps a name index (skip list) and a spatial index
// (PR-quadtree) over the same set of points. Every mutation is applied
// to both indexes before it returns.
//
// A Database is not safe for concurrent use. Callers sharing one across
// goroutines must serialize all the calls themselves.
type Database struct {
	names     list.XSkipList[string, *Point]
	spatial   tree.QuadTree[*Point]
	worldSize int
	stats     *databaseStats
	logger    xlog.XLogger
}

func NewDatabase(opts ...DatabaseOption) (*Database, error) {
	cfg := &databaseOptions{
		worldSize: tree.DefaultWorldSize,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	names, err := list.NewXSkl[string, *Point](cfg.sklOpts...)
	if err != nil {
		return nil, err
	}
	spatial, err := tree.NewPRQuadTree[*Point](cfg.worldSize)
	if err != nil {
		return nil, err
	}
	db := &Database{
		names:     names,
		spatial:   spatial,
		worldSize: cfg.worldSize,
		logger:    cfg.logger,
	}
	if cfg.stats {
		db.stats = newDatabaseStats(cfg.name)
	}
	return db, nil
}

func (db *Database) inWorld(x, y int) bool {
	return x >= 0 && x < db.worldSize && y >= 0 && y < db.worldSize
}

func (db *Database) debug(msg string, fields ...zap.Field) {
	if db.logger == nil {
		return
	}
	db.logger.Debug(msg, fields...)
}

func (db *Database) WorldSize() int {
	return db.worldSize
}

func (db *Database) Len() int64 {
	return db.names.Len()
}

// Insert returns false if (x, y) is outside the world, neither index
// is touched then.
func (db *Database) Insert(name string, x, y int) bool {
	if !db.inWorld(x, y) {
		db.stats.IncreaseInsertRejectedCount()
		db.debug("point insert rejected", zap.String("name", name), zap.Int("x", x), zap.Int("y", y))
		return false
	}
	p := NewPoint(name, x, y)
	if err := db.names.Insert(name, p); err != nil {
		// Only a full skip list refuses a non-nil point.
		db.stats.IncreaseInsertRejectedCount()
		db.debug("point insert rejected", zap.String("name", name), zap.Error(err))
		return false
	}
	db.spatial.Insert(p)
	db.stats.IncreaseInsertCount()
	db.debug("point inserted", zap.Stringer("point", p))
	return true
}

// RemoveByName removes the first point with the name in skip list order,
// then the identical point from the quadtree. Co-located points with
// other names stay.
func (db *Database) RemoveByName(name string) *Point {
	elem, err := db.names.RemoveFirst(name)
	if err != nil || elem == nil {
		return nil
	}
	p := elem.Val()
	db.spatial.Remove(p)
	db.stats.IncreaseRemoveCount(true)
	db.debug("point removed by name", zap.Stringer("point", p))
	return p
}

// RemoveByPosition removes the first point stored at (x, y) in the
// quadtree, then the identical point from the skip list.
func (db *Database) RemoveByPosition(x, y int) (*Point, bool) {
	if !db.inWorld(x, y) {
		return nil, false
	}
	p, ok := db.spatial.RemoveAt(x, y)
	if !ok {
		return nil, true
	}
	_, _ = db.names.RemoveByValue(p)
	db.stats.IncreaseRemoveCount(false)
	db.debug("point removed by position", zap.Stringer("point", p))
	return p, true
}

// Search returns all points with the name, the latest inserted first.
func (db *Database) Search(name string) []*Point {
	elements, err := db.names.LoadAll(name)
	if err != nil {
		return []*Point{}
	}
	points := make([]*Point, 0, len(elements))
	for _, e := range elements {
		points = append(points, e.Val())
	}
	return points
}

// RegionSearch returns false if w or h is not positive. The rectangle
// [x, x+w] x [y, y+h] is closed on all sides.
func (db *Database) RegionSearch(x, y, w, h int) (RegionResult, bool) {
	if w <= 0 || h <= 0 {
		return RegionResult{}, false
	}
	points, visited := db.spatial.RegionSearch(x, y, w, h)
	db.stats.RecordRegionSearchVisited(visited)
	return RegionResult{Points: points, Visited: visited}, true
}

// FindDuplicates lists every location holding two or more points,
// sorted by x then y.
func (db *Database) FindDuplicates() []Location {
	locations, _ := db.spatial.FindDuplicates()
	slices.SortFunc(locations, func(a, b Location) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Y - b.Y
	})
	return locations
}

// Points walks the skip list in key order.
func (db *Database) Points() []*Point {
	points := make([]*Point, 0, db.names.Len())
	db.names.Foreach(func(i int64, item list.SklIterationItem[string, *Point]) bool {
		points = append(points, item.Val())
		return true
	})
	return points
}

// Dump renders the skip list then the quadtree.
func (db *Database) Dump() string {
	builder := &strings.Builder{}
	_ = db.names.Dump(builder)
	_, _ = builder.WriteString("QuadTree dump:\n")
	printed, _ := db.spatial.Dump(builder)
	_, _ = fmt.Fprintf(builder, "%d quadtree nodes printed\n", printed)
	return builder.String()
}

// CheckConsistency verifies that both indexes hold the identical
// multiset of points.
func (db *Database) CheckConsistency() error {
	if db.names.Len() != db.spatial.Len() {
		return infra.WrapErrorStack(ErrInconsistent,
			fmt.Sprintf("skip list holds %d points, quadtree holds %d", db.names.Len(), db.spatial.Len()))
	}
	counts := make(map[*Point]int, db.names.Len())
	db.names.Foreach(func(i int64, item list.SklIterationItem[string, *Point]) bool {
		counts[item.Val()]++
		return true
	})
	var missing *Point
	db.spatial.Foreach(func(p *Point) bool {
		if counts[p] <= 0 {
			missing = p
			return false
		}
		counts[p]--
		return true
	})
	if missing != nil {
		return infra.WrapErrorStack(ErrInconsistent, "quadtree point "+missing.String()+" is not in the skip list")
	}
	for p, n := range counts {
		if n != 0 {
			return infra.WrapErrorStack(ErrInconsistent, "skip list point "+p.String()+" is not in the quadtree")
		}
	}
	return nil
}
