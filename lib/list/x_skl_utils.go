package list

import (
	"github.com/benz9527/xpoints/lib/infra"
)

var (
	_ SklElement[uint8, uint8]       = (*xSklElement[uint8, uint8])(nil)
	_ SklIterationItem[uint8, uint8] = (*xSklIter[uint8, uint8])(nil)
)

type xSklElement[K infra.OrderedKey, V comparable] struct {
	key K
	val V
}

func (e *xSklElement[K, V]) Key() K {
	return e.key
}

func (e *xSklElement[K, V]) Val() V {
	return e.val
}

type xSklIter[K infra.OrderedKey, V comparable] struct {
	keyFn       func() K
	valFn       func() V
	nodeLevelFn func() uint32
}

func (x *xSklIter[K, V]) Key() K            { return x.keyFn() }
func (x *xSklIter[K, V]) Val() V            { return x.valFn() }
func (x *xSklIter[K, V]) NodeLevel() uint32 { return x.nodeLevelFn() }
