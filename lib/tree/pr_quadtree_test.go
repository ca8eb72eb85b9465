package tree

import (
	"fmt"
	randv2 "math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPoint struct {
	name string
	x, y int
}

func (p *testPoint) X() int { return p.x }
func (p *testPoint) Y() int { return p.y }
func (p *testPoint) String() string {
	return fmt.Sprintf("%s %d %d", p.name, p.x, p.y)
}

func newTestTree(t *testing.T) QuadTree[*testPoint] {
	tree, err := NewPRQuadTree[*testPoint](DefaultWorldSize)
	require.NoError(t, err)
	return tree
}

func internalNodes(node quadNode[*testPoint]) int {
	n, ok := node.(*internalNode[*testPoint])
	if !ok {
		return 0
	}
	count := 1
	for _, c := range n.children {
		count += internalNodes(c)
	}
	return count
}

func dumpString(t *testing.T, tree QuadTree[*testPoint]) (string, int) {
	builder := strings.Builder{}
	printed, err := tree.Dump(&builder)
	require.NoError(t, err)
	return builder.String(), printed
}

func TestNewPRQuadTree(t *testing.T) {
	for _, size := range []int{0, -4, 1000, 3} {
		_, err := NewPRQuadTree[*testPoint](size)
		require.ErrorIs(t, err, ErrQuadTreeInvalidSize)
	}
	for _, size := range []int{1, 2, 1024, 1 << 20} {
		tree, err := NewPRQuadTree[*testPoint](size)
		require.NoError(t, err)
		require.Equal(t, size, tree.Size())
	}
}

func TestRegionQuadrant(t *testing.T) {
	world := region{x: 0, y: 0, size: 1024}
	testcases := []struct {
		x, y int
		want int
	}{
		{0, 0, NW}, {511, 511, NW},
		{512, 0, NE}, {1023, 511, NE},
		{0, 512, SW}, {511, 1023, SW},
		{512, 512, SE}, {1023, 1023, SE},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.want, world.quadrant(tc.x, tc.y), "(%d, %d)", tc.x, tc.y)
	}
	require.Equal(t, region{x: 512, y: 512, size: 512}, world.child(SE))
	require.Equal(t, region{x: 512, y: 0, size: 512}, world.child(NE))
	require.Equal(t, region{x: 0, y: 512, size: 512}, world.child(SW))
}

func TestPRQuadTree_Empty(t *testing.T) {
	tree := newTestTree(t)
	require.Equal(t, Empty, tree.Root())
	require.Equal(t, "Empty", tree.Root().String())
	require.Equal(t, 1, tree.NodeCount())

	out, printed := dumpString(t, tree)
	require.Equal(t, 1, printed)
	require.Equal(t, "Node at 0 0 1024 Empty\n", out)

	items, visited := tree.RegionSearch(0, 0, 1024, 1024)
	require.Empty(t, items)
	require.Equal(t, 1, visited)

	_, ok := tree.RemoveAt(1, 1)
	require.False(t, ok)
	require.False(t, tree.Remove(&testPoint{"a", 1, 1}))
}

func TestPRQuadTree_SplitThreshold(t *testing.T) {
	t.Run("distinct locations split", func(tt *testing.T) {
		tree := newTestTree(tt)
		for i := 0; i < 3; i++ {
			tree.Insert(&testPoint{"p", 10 + i, 10})
			require.Equal(tt, Leaf, tree.Root())
		}
		tree.Insert(&testPoint{"p", 900, 900})
		require.Equal(tt, Internal, tree.Root())
		require.Equal(tt, int64(4), tree.Len())
	})
	t.Run("co-located never split", func(tt *testing.T) {
		tree := newTestTree(tt)
		for i := 0; i < 4; i++ {
			tree.Insert(&testPoint{"p", 5, 5})
		}
		require.Equal(tt, Leaf, tree.Root())
		require.Equal(tt, 1, tree.NodeCount())
		out, _ := dumpString(tt, tree)
		require.Equal(tt, "Node at 0 0 1024\n  p 5 5\n  p 5 5\n  p 5 5\n  p 5 5\n", out)
	})
}

func TestPRQuadTree_Dump(t *testing.T) {
	tree := newTestTree(t)
	tree.Insert(&testPoint{"a", 10, 10})
	tree.Insert(&testPoint{"b", 600, 10})
	tree.Insert(&testPoint{"c", 10, 600})
	tree.Insert(&testPoint{"d", 600, 600})

	out, printed := dumpString(t, tree)
	require.Equal(t, 5, printed)
	require.Equal(t, strings.Join([]string{
		"Node at 0 0 1024 Internal",
		"  Node at 0 0 512",
		"    a 10 10",
		"  Node at 512 0 512",
		"    b 600 10",
		"  Node at 0 512 512",
		"    c 10 600",
		"  Node at 512 512 512",
		"    d 600 600",
		"",
	}, "\n"), out)
}

func TestPRQuadTree_RegionSearch(t *testing.T) {
	tree := newTestTree(t)
	a := &testPoint{"a", 10, 10}
	tree.Insert(a)
	tree.Insert(&testPoint{"b", 600, 10})
	tree.Insert(&testPoint{"c", 10, 600})
	tree.Insert(&testPoint{"d", 600, 600})

	items, visited := tree.RegionSearch(0, 0, 100, 100)
	require.Equal(t, []*testPoint{a}, items)
	require.Equal(t, 2, visited)

	items, visited = tree.RegionSearch(0, 0, 1024, 1024)
	require.Len(t, items, 4)
	require.Equal(t, 5, visited)

	// Nothing around, the visited nodes are still counted.
	items, visited = tree.RegionSearch(200, 200, 10, 10)
	require.Empty(t, items)
	require.Equal(t, 2, visited)
}

func TestPRQuadTree_RegionSearchClosedBoundary(t *testing.T) {
	tree := newTestTree(t)
	corner := &testPoint{"corner", 30, 40}
	origin := &testPoint{"origin", 10, 20}
	tree.Insert(corner)
	tree.Insert(origin)
	tree.Insert(&testPoint{"out", 31, 40})

	items, _ := tree.RegionSearch(10, 20, 20, 20)
	assert.ElementsMatch(t, []*testPoint{corner, origin}, items)
}

func TestPRQuadTree_IdempotentMerge(t *testing.T) {
	tree := newTestTree(t)
	p := &testPoint{"x", 5, 5}
	tree.Insert(p)
	got, ok := tree.RemoveAt(5, 5)
	require.True(t, ok)
	require.Same(t, p, got)
	require.Equal(t, Empty, tree.Root())
	require.Equal(t, 1, tree.NodeCount())
	require.Equal(t, int64(0), tree.Len())
}

func TestPRQuadTree_CascadeSplitAndMerge(t *testing.T) {
	tree := newTestTree(t)
	for i := 1; i <= 4; i++ {
		tree.Insert(&testPoint{"p", i, i})
	}
	// Separated only in the region of size 8.
	impl := tree.(*prQuadTree[*testPoint])
	require.Equal(t, 8, internalNodes(impl.root))
	require.Equal(t, 33, tree.NodeCount())
	_, printed := dumpString(t, tree)
	require.Equal(t, 33, printed)

	p, ok := tree.RemoveAt(4, 4)
	require.True(t, ok)
	require.Equal(t, 4, p.X())
	require.Equal(t, Leaf, tree.Root())
	require.Equal(t, 1, tree.NodeCount())

	out, _ := dumpString(t, tree)
	require.Equal(t, "Node at 0 0 1024\n  p 1 1\n  p 2 2\n  p 3 3\n", out)
}

func TestPRQuadTree_MergeColocated(t *testing.T) {
	tree := newTestTree(t)
	for i := 0; i < 4; i++ {
		tree.Insert(&testPoint{fmt.Sprintf("p%d", i), 5, 5})
	}
	tree.Insert(&testPoint{"far", 900, 900})
	require.Equal(t, Internal, tree.Root())

	locations, visited := tree.FindDuplicates()
	require.Equal(t, []Location{{X: 5, Y: 5}}, locations)
	require.Equal(t, 5, visited)

	far, ok := tree.RemoveAt(900, 900)
	require.True(t, ok)
	require.Equal(t, "far", far.name)
	require.Equal(t, Leaf, tree.Root())
	require.Equal(t, int64(4), tree.Len())
}

func TestPRQuadTree_FindDuplicates(t *testing.T) {
	tree := newTestTree(t)
	a := &testPoint{"A", 10, 10}
	tree.Insert(a)
	tree.Insert(&testPoint{"B", 10, 10})
	tree.Insert(&testPoint{"C", 10, 10})
	tree.Insert(&testPoint{"D", 11, 10})

	locations, _ := tree.FindDuplicates()
	require.Equal(t, []Location{{X: 10, Y: 10}}, locations)
	require.Equal(t, "10 10", locations[0].String())

	require.True(t, tree.Remove(a))
	_, ok := tree.RemoveFirstMatched(func(that *testPoint) bool { return that.name == "B" })
	require.True(t, ok)
	locations, _ = tree.FindDuplicates()
	require.Empty(t, locations)
}

func TestPRQuadTree_RemoveFirstMatchedOrder(t *testing.T) {
	tree := newTestTree(t)
	a := &testPoint{"a", 10, 10}
	x1 := &testPoint{"x", 600, 10}
	x2 := &testPoint{"x", 10, 600}
	d := &testPoint{"d", 600, 600}
	for _, p := range []*testPoint{a, x2, d, x1} {
		tree.Insert(p)
	}
	require.Equal(t, Internal, tree.Root())

	got, ok := tree.RemoveFirstMatched(func(that *testPoint) bool { return that.name == "x" })
	require.True(t, ok)
	require.Same(t, x1, got)
	require.Equal(t, Leaf, tree.Root())

	order := make([]*testPoint, 0, 3)
	tree.Foreach(func(item *testPoint) bool {
		order = append(order, item)
		return true
	})
	require.Equal(t, []*testPoint{a, x2, d}, order)

	_, ok = tree.RemoveFirstMatched(func(that *testPoint) bool { return that.name == "none" })
	require.False(t, ok)
	_, ok = tree.RemoveFirstMatched(nil)
	require.False(t, ok)
}

func TestPRQuadTree_RemoveIdentity(t *testing.T) {
	tree := newTestTree(t)
	p1 := &testPoint{"same", 7, 7}
	p2 := &testPoint{"same", 7, 7}
	tree.Insert(p1)
	tree.Insert(p2)

	require.True(t, tree.Remove(p2))
	require.False(t, tree.Remove(p2))
	items, _ := tree.RegionSearch(7, 7, 1, 1)
	require.Equal(t, []*testPoint{p1}, items)
}

func TestPRQuadTree_NodeCountInvariant(t *testing.T) {
	var (
		tree   = newTestTree(t)
		impl   = tree.(*prQuadTree[*testPoint])
		r      = randv2.New(randv2.NewPCG(11, 13))
		points = make([]*testPoint, 0, 512)
	)
	for round := 0; round < 3000; round++ {
		if len(points) <= 0 || r.IntN(3) > 0 {
			// Cluster half of the points to force deep splits.
			var p *testPoint
			if r.IntN(2) == 0 {
				p = &testPoint{"c", r.IntN(16), r.IntN(16)}
			} else {
				p = &testPoint{"w", r.IntN(1024), r.IntN(1024)}
			}
			tree.Insert(p)
			points = append(points, p)
		} else {
			i := r.IntN(len(points))
			require.True(t, tree.Remove(points[i]))
			points = append(points[:i], points[i+1:]...)
		}

		require.Equal(t, 1+4*internalNodes(impl.root), tree.NodeCount())
		require.Equal(t, int64(len(points)), tree.Len())
	}

	items, _ := tree.RegionSearch(0, 0, 1024, 1024)
	assert.ElementsMatch(t, points, items)
	_, printed := dumpString(t, tree)
	require.Equal(t, tree.NodeCount(), printed)

	for _, p := range points {
		require.True(t, tree.Remove(p))
	}
	require.Equal(t, Empty, tree.Root())
	require.Equal(t, 1, tree.NodeCount())
}

func BenchmarkPRQuadTree_Insert(b *testing.B) {
	tree, _ := NewPRQuadTree[*testPoint](DefaultWorldSize)
	r := randv2.New(randv2.NewPCG(1, 1))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(&testPoint{"b", r.IntN(1024), r.IntN(1024)})
	}
}
