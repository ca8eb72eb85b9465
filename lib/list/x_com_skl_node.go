package list

import (
	"github.com/benz9527/xpoints/lib/infra"
)

// The forward array index > 0 is the express lane (Y axis), used to locate an element quickly.
// The forward array index == 0 is the data lane (X axis), every node is linked in key order.
// A node built with level L owns L+1 forward pointers.
type xComSklNode[K infra.OrderedKey, V comparable] struct {
	indices []*xComSklNode[K, V]
	element SklElement[K, V] // nil for the head
}

func newXComSklNode[K infra.OrderedKey, V comparable](lvl int32, key K, val V) *xComSklNode[K, V] {
	return &xComSklNode[K, V]{
		indices: make([]*xComSklNode[K, V], lvl+1),
		element: &xSklElement[K, V]{
			key: key,
			val: val,
		},
	}
}

func newXComSklHead[K infra.OrderedKey, V comparable]() *xComSklNode[K, V] {
	return &xComSklNode[K, V]{
		indices: make([]*xComSklNode[K, V], 1),
	}
}

func (node *xComSklNode[K, V]) Element() SklElement[K, V] {
	return node.element
}

func (node *xComSklNode[K, V]) levels() []*xComSklNode[K, V] {
	return node.indices
}

// level is 0-based.
func (node *xComSklNode[K, V]) level() int32 {
	return int32(len(node.indices)) - 1
}

func (node *xComSklNode[K, V]) next() *xComSklNode[K, V] {
	return node.indices[0]
}

// grow raises the node to the new level, the new lanes point to nothing.
func (node *xComSklNode[K, V]) grow(lvl int32) {
	for node.level() < lvl {
		node.indices = append(node.indices, nil)
	}
}
