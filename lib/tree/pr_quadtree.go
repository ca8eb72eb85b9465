package tree

import (
	"errors"
	"io"
)

const DefaultWorldSize = 1024

var ErrQuadTreeInvalidSize = errors.New("[pr-quadtree] world size must be a positive power of two")

// prQuadTree splits a leaf holding more than 3 items unless all of them
// share one location, and merges children back as soon as they fit.
// Not safe for concurrent use.
type prQuadTree[T Locatable] struct {
	root    quadNode[T]
	size    int
	itemLen int64
}

func NewPRQuadTree[T Locatable](size int) (QuadTree[T], error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, ErrQuadTreeInvalidSize
	}
	return &prQuadTree[T]{
		root: emptyNode[T]{},
		size: size,
	}, nil
}

func (tree *prQuadTree[T]) world() region {
	return region{x: 0, y: 0, size: tree.size}
}

func (tree *prQuadTree[T]) Len() int64 {
	return tree.itemLen
}

func (tree *prQuadTree[T]) Size() int {
	return tree.size
}

func (tree *prQuadTree[T]) Root() NodeKind {
	return tree.root.kind()
}

// NodeCount equals to 1 + 4 * (internal nodes).
func (tree *prQuadTree[T]) NodeCount() int {
	return countNodes[T](tree.root)
}

func countNodes[T Locatable](node quadNode[T]) int {
	n, ok := node.(*internalNode[T])
	if !ok {
		return 1
	}
	count := 1
	for _, c := range n.children {
		count += countNodes[T](c)
	}
	return count
}

func (tree *prQuadTree[T]) Insert(item T) {
	tree.root = tree.root.insert(item, tree.world())
	tree.itemLen++
}

// RemoveAt removes the first stored item at (x, y).
func (tree *prQuadTree[T]) RemoveAt(x, y int) (T, bool) {
	root, item, ok := tree.root.removeAt(x, y, tree.world())
	tree.root = root
	if ok {
		tree.itemLen--
	}
	return item, ok
}

// RemoveFirstMatched tries the quadrants in NW, NE, SW, SE order.
func (tree *prQuadTree[T]) RemoveFirstMatched(matcher func(that T) bool) (T, bool) {
	if matcher == nil {
		var zero T
		return zero, false
	}
	root, item, ok := tree.root.removeIf(matcher, tree.world())
	tree.root = root
	if ok {
		tree.itemLen--
	}
	return item, ok
}

// Remove removes the identical item, other items at the same location stay.
func (tree *prQuadTree[T]) Remove(item T) bool {
	root, ok := tree.root.remove(item, tree.world())
	tree.root = root
	if ok {
		tree.itemLen--
	}
	return ok
}

// RegionSearch collects the items inside the closed rectangle
// [x, x+w] x [y, y+h] and counts every visited node.
func (tree *prQuadTree[T]) RegionSearch(x, y, w, h int) ([]T, int) {
	items := make([]T, 0, 8)
	visited := tree.root.regionSearch(rect{x: x, y: y, w: w, h: h}, tree.world(), &items)
	return items, visited
}

func (tree *prQuadTree[T]) FindDuplicates() ([]Location, int) {
	locations := make([]Location, 0, 4)
	visited := tree.root.findDuplicates(tree.world(), &locations)
	return locations, visited
}

func (tree *prQuadTree[T]) Foreach(action func(item T) bool) {
	if action == nil {
		return
	}
	tree.root.foreach(action)
}

// Dump writes one line per node, two spaces of indentation per level.
func (tree *prQuadTree[T]) Dump(w io.Writer) (int, error) {
	p := &printer{w: w}
	printed := tree.root.dump(p, tree.world(), 0)
	return printed, p.err
}
