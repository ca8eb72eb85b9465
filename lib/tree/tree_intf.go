package tree

import (
	"io"
	"strconv"
)

type NodeKind uint8

const (
	Empty NodeKind = iota
	Leaf
	Internal
)

func (k NodeKind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Leaf:
		return "Leaf"
	case Internal:
		return "Internal"
	}
	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Quadrant order of the internal node children.
const (
	NW = iota
	NE
	SW
	SE
)

// Locatable is the item stored by the quadtree. Items are compared
// by == for identity removal, so pointers are the natural choice.
type Locatable interface {
	comparable
	X() int
	Y() int
}

type Location struct {
	X, Y int
}

func (l Location) String() string {
	return strconv.Itoa(l.X) + " " + strconv.Itoa(l.Y)
}

// QuadTree is a point-region quadtree over the square [0, size) x [0, size).
// It trusts the caller to pass coordinates inside the world.
type QuadTree[T Locatable] interface {
	Len() int64
	Size() int
	Root() NodeKind
	NodeCount() int
	Insert(item T)
	RemoveAt(x, y int) (T, bool)
	RemoveFirstMatched(matcher func(that T) bool) (T, bool)
	Remove(item T) bool
	RegionSearch(x, y, w, h int) (items []T, visited int)
	FindDuplicates() (locations []Location, visited int)
	Foreach(action func(item T) bool)
	Dump(w io.Writer) (printed int, err error)
}
