package pointdb

import (
	"strconv"
	"strings"

	"github.com/benz9527/xpoints/lib/tree"
)

// Location is a world coordinate rendered as "x y".
type Location = tree.Location

// Point is immutable. Both indexes hold the same *Point, so the pointer
// is the identity shared across them.
type Point struct {
	name string
	x, y int
}

func NewPoint(name string, x, y int) *Point {
	return &Point{name: name, x: x, y: y}
}

func (p *Point) Name() string { return p.name }
func (p *Point) X() int       { return p.x }
func (p *Point) Y() int       { return p.y }

func (p *Point) Location() Location {
	return Location{X: p.x, Y: p.y}
}

func (p *Point) SameLocation(that *Point) bool {
	return that != nil && p.x == that.x && p.y == that.y
}

// String renders "name x y".
func (p *Point) String() string {
	if p == nil {
		return "<nil>"
	}
	builder := strings.Builder{}
	builder.Grow(len(p.name) + 10)
	_, _ = builder.WriteString(p.name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(strconv.Itoa(p.x))
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(strconv.Itoa(p.y))
	return builder.String()
}
