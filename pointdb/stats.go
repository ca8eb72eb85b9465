package pointdb

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	DatabaseStatsName = "xpoints/db"
)

var (
	removeByNameAttrs     = metric.WithAttributeSet(attribute.NewSet(attribute.String("xpoints.db.remove.by", "name")))
	removeByPositionAttrs = metric.WithAttributeSet(attribute.NewSet(attribute.String("xpoints.db.remove.by", "position")))
)

// databaseStats methods are no-ops on a nil receiver, a database built
// without WithDatabaseStats keeps a nil stats.
type databaseStats struct {
	insertCount       metric.Int64Counter
	insertRejectCount metric.Int64Counter
	removeCount       metric.Int64Counter
	pointCount        metric.Int64UpDownCounter
	regionVisited     metric.Int64Histogram
}

func (stats *databaseStats) IncreaseInsertCount() {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1)
	stats.pointCount.Add(context.Background(), 1)
}

func (stats *databaseStats) IncreaseInsertRejectedCount() {
	if stats == nil {
		return
	}
	stats.insertRejectCount.Add(context.Background(), 1)
}

func (stats *databaseStats) IncreaseRemoveCount(byName bool) {
	if stats == nil {
		return
	}
	attrs := removeByPositionAttrs
	if byName {
		attrs = removeByNameAttrs
	}
	stats.removeCount.Add(context.Background(), 1, attrs)
	stats.pointCount.Add(context.Background(), -1)
}

func (stats *databaseStats) RecordRegionSearchVisited(visited int) {
	if stats == nil {
		return
	}
	stats.regionVisited.Record(context.Background(), int64(visited))
}

func newDatabaseStats(name string) *databaseStats {
	meterName := DatabaseStatsName
	if len(name) > 0 {
		meterName += "/" + name
	}
	meter := otel.Meter(meterName)
	return &databaseStats{
		insertCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xpoints.db.insert",
			metric.WithDescription("The number of accepted point insertions."),
		)),
		insertRejectCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xpoints.db.insert.rejected",
			metric.WithDescription("The number of insertions rejected by the world bounds."),
		)),
		removeCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xpoints.db.remove",
			metric.WithDescription("The number of removed points, by name or by position."),
		)),
		pointCount: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"xpoints.db.points",
			metric.WithDescription("The number of points in the database."),
		)),
		regionVisited: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			"xpoints.db.regionsearch.visited",
			metric.WithDescription("The quadtree nodes visited by one region search."),
			metric.WithUnit("{node}"),
		)),
	}
}
