package tree

import (
	"fmt"
	"io"
	"strings"
)

const leafCapacity = 3

// region is threaded down from the root and never stored in a node.
type region struct {
	x, y, size int
}

// quadrant applies the strict < rule, ties go east or south.
func (r region) quadrant(px, py int) int {
	half := r.size / 2
	west, north := px < r.x+half, py < r.y+half
	switch {
	case west && north:
		return NW
	case north:
		return NE
	case west:
		return SW
	}
	return SE
}

func (r region) child(q int) region {
	half := r.size / 2
	c := region{x: r.x, y: r.y, size: half}
	if q == NE || q == SE {
		c.x += half
	}
	if q == SW || q == SE {
		c.y += half
	}
	return c
}

// rect is a closed query rectangle [x, x+w] x [y, y+h].
type rect struct {
	x, y, w, h int
}

// intersects tests the half-open region [x, x+size) x [y, y+size).
func (q rect) intersects(r region) bool {
	return q.x < r.x+r.size && q.x+q.w > r.x &&
		q.y < r.y+r.size && q.y+q.h > r.y
}

func (q rect) contains(px, py int) bool {
	return px >= q.x && px <= q.x+q.w && py >= q.y && py <= q.y+q.h
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(indent int, format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, p.err = io.WriteString(p.w, strings.Repeat("  ", indent)); p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

// quadNode is sealed: emptyNode, *leafNode and *internalNode.
// Every mutation returns the node to install in the parent.
type quadNode[T Locatable] interface {
	kind() NodeKind
	insert(item T, r region) quadNode[T]
	removeAt(px, py int, r region) (quadNode[T], T, bool)
	removeIf(matcher func(T) bool, r region) (quadNode[T], T, bool)
	remove(item T, r region) (quadNode[T], bool)
	regionSearch(q rect, r region, out *[]T) int
	findDuplicates(r region, out *[]Location) int
	foreach(action func(T) bool) bool
	dump(p *printer, r region, indent int) int
}

func sameLocation[T Locatable](items []T) bool {
	for i := 1; i < len(items); i++ {
		if items[i].X() != items[0].X() || items[i].Y() != items[0].Y() {
			return false
		}
	}
	return true
}

// build returns the node holding exactly the items, splitting the way
// repeated inserts would but without merge checks in between.
func build[T Locatable](items []T, r region) quadNode[T] {
	if len(items) <= 0 {
		return emptyNode[T]{}
	}
	if len(items) <= leafCapacity || sameLocation(items) {
		return &leafNode[T]{items: items}
	}
	var buckets [4][]T
	for _, item := range items {
		q := r.quadrant(item.X(), item.Y())
		buckets[q] = append(buckets[q], item)
	}
	n := &internalNode[T]{}
	for q := range buckets {
		n.children[q] = build(buckets[q], r.child(q))
	}
	return n
}

// Empty is a zero-size flyweight.
type emptyNode[T Locatable] struct{}

func (emptyNode[T]) kind() NodeKind { return Empty }

func (emptyNode[T]) insert(item T, _ region) quadNode[T] {
	return &leafNode[T]{items: []T{item}}
}

func (n emptyNode[T]) removeAt(_, _ int, _ region) (quadNode[T], T, bool) {
	var zero T
	return n, zero, false
}

func (n emptyNode[T]) removeIf(_ func(T) bool, _ region) (quadNode[T], T, bool) {
	var zero T
	return n, zero, false
}

func (n emptyNode[T]) remove(_ T, _ region) (quadNode[T], bool) { return n, false }

func (emptyNode[T]) regionSearch(_ rect, _ region, _ *[]T) int { return 1 }

func (emptyNode[T]) findDuplicates(_ region, _ *[]Location) int { return 1 }

func (emptyNode[T]) foreach(_ func(T) bool) bool { return true }

func (emptyNode[T]) dump(p *printer, r region, indent int) int {
	p.line(indent, "Node at %d %d %d Empty", r.x, r.y, r.size)
	return 1
}

// A leaf never holds zero items, it turns into Empty instead.
type leafNode[T Locatable] struct {
	items []T
}

func (n *leafNode[T]) kind() NodeKind { return Leaf }

func (n *leafNode[T]) insert(item T, r region) quadNode[T] {
	n.items = append(n.items, item)
	if len(n.items) > leafCapacity && !sameLocation(n.items) {
		return build(n.items, r)
	}
	return n
}

func (n *leafNode[T]) removeIndex(i int) (quadNode[T], T, bool) {
	var zero T
	item, last := n.items[i], len(n.items)-1
	copy(n.items[i:], n.items[i+1:])
	n.items[last] = zero
	n.items = n.items[:last]
	if len(n.items) <= 0 {
		return emptyNode[T]{}, item, true
	}
	return n, item, true
}

func (n *leafNode[T]) removeAt(px, py int, _ region) (quadNode[T], T, bool) {
	for i, item := range n.items {
		if item.X() == px && item.Y() == py {
			return n.removeIndex(i)
		}
	}
	var zero T
	return n, zero, false
}

func (n *leafNode[T]) removeIf(matcher func(T) bool, _ region) (quadNode[T], T, bool) {
	for i, item := range n.items {
		if matcher(item) {
			return n.removeIndex(i)
		}
	}
	var zero T
	return n, zero, false
}

func (n *leafNode[T]) remove(target T, _ region) (quadNode[T], bool) {
	for i, item := range n.items {
		if item == target {
			node, _, ok := n.removeIndex(i)
			return node, ok
		}
	}
	return n, false
}

func (n *leafNode[T]) regionSearch(q rect, _ region, out *[]T) int {
	for _, item := range n.items {
		if q.contains(item.X(), item.Y()) {
			*out = append(*out, item)
		}
	}
	return 1
}

func (n *leafNode[T]) findDuplicates(_ region, out *[]Location) int {
	reported := make(map[Location]struct{}, len(n.items))
	for i := 0; i < len(n.items); i++ {
		loc := Location{X: n.items[i].X(), Y: n.items[i].Y()}
		if _, ok := reported[loc]; ok {
			continue
		}
		for j := i + 1; j < len(n.items); j++ {
			if n.items[j].X() == loc.X && n.items[j].Y() == loc.Y {
				reported[loc] = struct{}{}
				*out = append(*out, loc)
				break
			}
		}
	}
	return 1
}

func (n *leafNode[T]) foreach(action func(T) bool) bool {
	for _, item := range n.items {
		if !action(item) {
			return false
		}
	}
	return true
}

func (n *leafNode[T]) dump(p *printer, r region, indent int) int {
	p.line(indent, "Node at %d %d %d", r.x, r.y, r.size)
	for _, item := range n.items {
		p.line(indent+1, "%v", item)
	}
	return 1
}

// Children order: NW, NE, SW, SE.
type internalNode[T Locatable] struct {
	children [4]quadNode[T]
}

func (n *internalNode[T]) kind() NodeKind { return Internal }

// tryMerge collapses the node when every child is Empty or Leaf and
// the items either fit in one leaf or share one location.
func (n *internalNode[T]) tryMerge() quadNode[T] {
	total := 0
	for _, c := range n.children {
		switch c := c.(type) {
		case emptyNode[T]:
		case *leafNode[T]:
			total += len(c.items)
		default:
			return n
		}
	}
	if total <= 0 {
		return emptyNode[T]{}
	}
	items := make([]T, 0, total)
	for _, c := range n.children {
		if leaf, ok := c.(*leafNode[T]); ok {
			items = append(items, leaf.items...)
		}
	}
	if total <= leafCapacity || sameLocation(items) {
		return &leafNode[T]{items: items}
	}
	return n
}

func (n *internalNode[T]) insert(item T, r region) quadNode[T] {
	q := r.quadrant(item.X(), item.Y())
	n.children[q] = n.children[q].insert(item, r.child(q))
	return n.tryMerge()
}

func (n *internalNode[T]) removeAt(px, py int, r region) (quadNode[T], T, bool) {
	q := r.quadrant(px, py)
	child, item, ok := n.children[q].removeAt(px, py, r.child(q))
	n.children[q] = child
	if !ok {
		return n, item, false
	}
	return n.tryMerge(), item, true
}

func (n *internalNode[T]) removeIf(matcher func(T) bool, r region) (quadNode[T], T, bool) {
	for q := NW; q <= SE; q++ {
		child, item, ok := n.children[q].removeIf(matcher, r.child(q))
		n.children[q] = child
		if ok {
			return n.tryMerge(), item, true
		}
	}
	var zero T
	return n, zero, false
}

func (n *internalNode[T]) remove(item T, r region) (quadNode[T], bool) {
	q := r.quadrant(item.X(), item.Y())
	child, ok := n.children[q].remove(item, r.child(q))
	n.children[q] = child
	if !ok {
		return n, false
	}
	return n.tryMerge(), true
}

func (n *internalNode[T]) regionSearch(q rect, r region, out *[]T) int {
	visited := 1
	for i := NW; i <= SE; i++ {
		if c := r.child(i); q.intersects(c) {
			visited += n.children[i].regionSearch(q, c, out)
		}
	}
	return visited
}

func (n *internalNode[T]) findDuplicates(r region, out *[]Location) int {
	visited := 1
	for q := NW; q <= SE; q++ {
		visited += n.children[q].findDuplicates(r.child(q), out)
	}
	return visited
}

func (n *internalNode[T]) foreach(action func(T) bool) bool {
	for _, c := range n.children {
		if !c.foreach(action) {
			return false
		}
	}
	return true
}

func (n *internalNode[T]) dump(p *printer, r region, indent int) int {
	p.line(indent, "Node at %d %d %d Internal", r.x, r.y, r.size)
	printed := 1
	for q := NW; q <= SE; q++ {
		printed += n.children[q].dump(p, r.child(q), indent+1)
	}
	return printed
}
