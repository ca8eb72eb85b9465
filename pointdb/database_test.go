package pointdb

import (
	randv2 "math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xpoints/lib/infra"
	"github.com/benz9527/xpoints/lib/list"
	"github.com/benz9527/xpoints/lib/tree"
	"github.com/benz9527/xpoints/xlog"
)

func newTestDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	db, err := NewDatabase(opts...)
	require.NoError(t, err)
	return db
}

func names(points []*Point) []string {
	res := make([]string, 0, len(points))
	for _, p := range points {
		res = append(res, p.Name())
	}
	return res
}

func TestNewDatabase(t *testing.T) {
	db := newTestDatabase(t)
	require.Equal(t, tree.DefaultWorldSize, db.WorldSize())
	require.Equal(t, int64(0), db.Len())

	_, err := NewDatabase(WithWorldSize(1000))
	require.ErrorIs(t, err, tree.ErrQuadTreeInvalidSize)

	_, err = NewDatabase(WithSkipListCoin(nil))
	require.Error(t, err)
}

func TestPoint(t *testing.T) {
	p := NewPoint("a", 1, 2)
	require.Equal(t, "a 1 2", p.String())
	require.Equal(t, "1 2", p.Location().String())
	require.True(t, p.SameLocation(NewPoint("b", 1, 2)))
	require.False(t, p.SameLocation(nil))
	var nilPoint *Point
	require.Equal(t, "<nil>", nilPoint.String())
}

func TestDatabase_InsertBounds(t *testing.T) {
	db := newTestDatabase(t)
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {1024, 0}, {0, 1024}} {
		require.False(t, db.Insert("out", c[0], c[1]))
	}
	require.Equal(t, int64(0), db.Len())
	result, ok := db.RegionSearch(0, 0, 1024, 1024)
	require.True(t, ok)
	require.Empty(t, result.Points)

	require.True(t, db.Insert("corner", 1023, 1023))
	require.True(t, db.Insert("origin", 0, 0))
	require.Equal(t, int64(2), db.Len())
	require.NoError(t, db.CheckConsistency())
}

func TestDatabase_Duplicates(t *testing.T) {
	db := newTestDatabase(t)
	require.True(t, db.Insert("A", 10, 10))
	require.True(t, db.Insert("B", 10, 10))
	require.Equal(t, []Location{{X: 10, Y: 10}}, db.FindDuplicates())

	removed := db.RemoveByName("A")
	require.NotNil(t, removed)
	require.Equal(t, "A", removed.Name())
	require.Empty(t, db.FindDuplicates())

	// B stays in both indexes.
	require.Equal(t, []string{"B"}, names(db.Search("B")))
	result, ok := db.RegionSearch(10, 10, 1, 1)
	require.True(t, ok)
	require.Equal(t, []string{"B"}, names(result.Points))
	require.NoError(t, db.CheckConsistency())
}

func TestDatabase_FindDuplicatesSorted(t *testing.T) {
	db := newTestDatabase(t)
	for _, c := range [][2]int{{700, 5}, {3, 900}, {3, 4}} {
		require.True(t, db.Insert("a", c[0], c[1]))
		require.True(t, db.Insert("b", c[0], c[1]))
	}
	require.True(t, db.Insert("single", 500, 500))
	require.Equal(t, []Location{{X: 3, Y: 4}, {X: 3, Y: 900}, {X: 700, Y: 5}}, db.FindDuplicates())
}

func TestDatabase_RemoveByPosition(t *testing.T) {
	db := newTestDatabase(t)
	require.True(t, db.Insert("X", 5, 5))

	removed, ok := db.RemoveByPosition(5, 5)
	require.True(t, ok)
	require.NotNil(t, removed)
	require.Equal(t, "X", removed.Name())
	require.Empty(t, db.Search("X"))
	result, ok := db.RegionSearch(0, 0, 1024, 1024)
	require.True(t, ok)
	require.Empty(t, result.Points)

	removed, ok = db.RemoveByPosition(5, 5)
	require.True(t, ok)
	require.Nil(t, removed)

	removed, ok = db.RemoveByPosition(-1, 5)
	require.False(t, ok)
	require.Nil(t, removed)
}

func TestDatabase_RemoveByPositionKeepsSameNameElsewhere(t *testing.T) {
	db := newTestDatabase(t)
	require.True(t, db.Insert("p", 1, 1))
	require.True(t, db.Insert("p", 2, 2))
	require.True(t, db.Insert("p", 3, 3))

	removed, ok := db.RemoveByPosition(2, 2)
	require.True(t, ok)
	require.Equal(t, "p 2 2", removed.String())

	found := db.Search("p")
	require.Len(t, found, 2)
	for _, p := range found {
		require.NotEqual(t, 2, p.X())
	}
	require.NoError(t, db.CheckConsistency())
}

func TestDatabase_RemoveByNameMissing(t *testing.T) {
	db := newTestDatabase(t)
	require.True(t, db.Insert("a", 1, 1))
	require.Nil(t, db.RemoveByName("b"))
	require.Equal(t, int64(1), db.Len())
	require.NoError(t, db.CheckConsistency())
}

func TestDatabase_Search(t *testing.T) {
	db := newTestDatabase(t)
	require.Empty(t, db.Search("a"))
	require.True(t, db.Insert("a", 1, 1))
	require.True(t, db.Insert("b", 2, 2))
	require.True(t, db.Insert("a", 3, 3))

	found := db.Search("a")
	require.Len(t, found, 2)
	// The latest inserted first.
	require.Equal(t, "a 3 3", found[0].String())
	require.Equal(t, "a 1 1", found[1].String())

	require.Equal(t, []string{"a", "a", "b"}, names(db.Points()))
}

func TestDatabase_RegionSearch(t *testing.T) {
	db := newTestDatabase(t)
	for _, w := range [][2]int{{0, 1}, {1, 0}, {-3, 2}} {
		_, ok := db.RegionSearch(0, 0, w[0], w[1])
		require.False(t, ok)
	}

	require.True(t, db.Insert("edge", 20, 30))
	result, ok := db.RegionSearch(10, 10, 10, 20)
	require.True(t, ok)
	require.Equal(t, []string{"edge"}, names(result.Points))
	require.Equal(t, 1, result.Visited)
}

func TestDatabase_Dump(t *testing.T) {
	db := newTestDatabase(t, WithSkipListCoin(list.SequenceCoin()))
	require.True(t, db.Insert("b", 600, 10))
	require.True(t, db.Insert("a", 10, 10))

	require.Equal(t, strings.Join([]string{
		"SkipList dump:",
		"Node has depth 1 value null",
		"Node has depth 1 value a 10 10",
		"Node has depth 1 value b 600 10",
		"SkipList size is: 2",
		"QuadTree dump:",
		"Node at 0 0 1024",
		"  b 600 10",
		"  a 10 10",
		"1 quadtree nodes printed",
		"",
	}, "\n"), db.Dump())

	empty := newTestDatabase(t)
	require.True(t, strings.HasSuffix(empty.Dump(), "QuadTree dump:\nNode at 0 0 1024 Empty\n1 quadtree nodes printed\n"))
}

func TestDatabase_CheckConsistency(t *testing.T) {
	db := newTestDatabase(t)
	require.True(t, db.Insert("a", 1, 1))

	// Break the join on purpose.
	db.spatial.Insert(NewPoint("ghost", 2, 2))
	err := db.CheckConsistency()
	require.ErrorIs(t, err, ErrInconsistent)
	var es infra.ErrorStack
	require.ErrorAs(t, err, &es)
	require.NotEmpty(t, es.Frames())

	require.NoError(t, db.names.Insert("ghost", NewPoint("ghost", 2, 2)))
	err = db.CheckConsistency()
	require.ErrorIs(t, err, ErrInconsistent)
}

func TestDatabase_IndexAgreement(t *testing.T) {
	var (
		db  = newTestDatabase(t, WithSkipListSeed(7), WithDatabaseStats("test"))
		rnd = randv2.New(randv2.NewPCG(11, 13))
	)
	keys := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 2000; i++ {
		switch op := rnd.IntN(10); {
		case op < 6:
			x, y := rnd.IntN(64), rnd.IntN(64)
			require.True(t, db.Insert(keys[rnd.IntN(len(keys))], x, y))
		case op < 8:
			db.RemoveByName(keys[rnd.IntN(len(keys))])
		default:
			_, ok := db.RemoveByPosition(rnd.IntN(64), rnd.IntN(64))
			require.True(t, ok)
		}
		if i%100 == 0 {
			require.NoError(t, db.CheckConsistency())
		}
	}
	require.NoError(t, db.CheckConsistency())

	result, ok := db.RegionSearch(0, 0, 1024, 1024)
	require.True(t, ok)
	assert.ElementsMatch(t, db.Points(), result.Points)
	assert.Equal(t, db.Len(), int64(len(result.Points)))
}

func TestDatabase_Logger(t *testing.T) {
	builder := &strings.Builder{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerWriter(builder),
		xlog.WithXLoggerLevel(xlog.LogLevelDebug),
	)
	db := newTestDatabase(t, WithDatabaseLogger(logger))
	require.True(t, db.Insert("a", 1, 1))
	require.False(t, db.Insert("a", 2000, 1))
	require.NotNil(t, db.RemoveByName("a"))

	out := builder.String()
	require.Contains(t, out, `"msg":"point inserted"`)
	require.Contains(t, out, `"point":"a 1 1"`)
	require.Contains(t, out, `"msg":"point insert rejected"`)
	require.Contains(t, out, `"msg":"point removed by name"`)
}
