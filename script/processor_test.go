package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/benz9527/xpoints/lib/list"
	"github.com/benz9527/xpoints/pointdb"
)

func newTestProcessor(t *testing.T) (*Processor, *strings.Builder) {
	db, err := pointdb.NewDatabase(pointdb.WithSkipListCoin(list.SequenceCoin()))
	require.NoError(t, err)
	out := &strings.Builder{}
	return NewProcessor(db, out, nil), out
}

func TestProcessor_Run(t *testing.T) {
	p, out := newTestProcessor(t)
	script := strings.Join([]string{
		"insert a 10 10",
		"insert b 10 10",
		"",
		"insert c 2000 1",
		"search a",
		"search zz",
		"duplicates",
		"regionsearch 0 0 20 20",
		"regionsearch 0 0 0 5",
		"remove a",
		"remove a",
		"remove 10 10",
		"   ",
		"remove 10 10",
		"remove -1 5",
		"bogus",
		"insert x 1",
		"dump",
	}, "\n")

	err := p.Run(context.Background(), strings.NewReader(script))
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	require.ErrorIs(t, errs[0], ErrUnknownCommand)
	require.Contains(t, errs[0].Error(), "line 16")
	require.ErrorIs(t, errs[1], ErrBadArguments)

	require.Equal(t, strings.Join([]string{
		"Point inserted: a 10 10",
		"Point inserted: b 10 10",
		"Point rejected: c 2000 1",
		"Found a 10 10",
		"Point not found: zz",
		"Duplicate points:",
		"10 10",
		"Points intersecting region 0 0 20 20:",
		"Point found a 10 10",
		"Point found b 10 10",
		"1 quadtree nodes visited",
		"Rectangle rejected: 0 0 0 5",
		"Point removed: a 10 10",
		"Point not removed: a",
		"Point removed: b 10 10",
		"Point not found: 10 10",
		"Point rejected: -1 5",
		"Unrecognized command.",
		"Unrecognized command.",
		"SkipList dump:",
		"Node has depth 1 value null",
		"SkipList size is: 0",
		"QuadTree dump:",
		"Node at 0 0 1024 Empty",
		"1 quadtree nodes printed",
		"",
	}, "\n"), out.String())
}

func TestProcessor_RegionSearchAfterSplit(t *testing.T) {
	p, out := newTestProcessor(t)
	for _, line := range []string{
		"insert a 10 10",
		"insert b 600 10",
		"insert c 10 600",
		"insert d 600 600",
	} {
		require.NoError(t, p.ExecLine(context.Background(), line))
	}
	out.Reset()

	require.NoError(t, p.ExecLine(context.Background(), "regionsearch 0 0 100 100"))
	require.Equal(t, "Points intersecting region 0 0 100 100:\nPoint found a 10 10\n2 quadtree nodes visited\n", out.String())
}

func TestProcessor_Cancelled(t *testing.T) {
	p, out := newTestProcessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, strings.NewReader("insert a 1 1\n"))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, out.String())
}

type failedWriter struct{}

var errWrite = errors.New("write failed")

func (failedWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestProcessor_WriteError(t *testing.T) {
	db, err := pointdb.NewDatabase()
	require.NoError(t, err)
	p := NewProcessor(db, failedWriter{}, nil)

	err = p.Run(context.Background(), strings.NewReader("insert a 1 1\ninsert b 2 2\n"))
	require.ErrorIs(t, err, errWrite)
	// The run stops at the first failed write.
	require.Equal(t, int64(1), db.Len())
}
