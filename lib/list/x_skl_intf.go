package list

import (
	"io"

	"github.com/benz9527/xpoints/lib/infra"
)

type SkipList[K infra.OrderedKey, V comparable] interface {
	Levels() int32
	Len() int64
	Insert(key K, val V) error
	LoadFirst(key K) (SklElement[K, V], error)
	RemoveFirst(key K) (SklElement[K, V], error)
	Foreach(action func(i int64, item SklIterationItem[K, V]) bool)
	PeekHead() SklElement[K, V]
}

// XSkipList allows duplicated keys. Elements with equal keys are kept
// adjacent, the latest inserted one first.
type XSkipList[K infra.OrderedKey, V comparable] interface {
	SkipList[K, V]
	LoadAll(key K) ([]SklElement[K, V], error)
	RemoveByValue(val V) (SklElement[K, V], error)
	Dump(w io.Writer) error
}

type SklElement[K infra.OrderedKey, V comparable] interface {
	Key() K
	Val() V
}

type SklIterationItem[K infra.OrderedKey, V comparable] interface {
	SklElement[K, V]
	// NodeLevel is the length of the node's forward array.
	NodeLevel() uint32
}

// SklCoin is the random bit source of the level generator.
// Each true raises the new node by one level.
type SklCoin interface {
	Flip() bool
}

type SklCoinFunc func() bool

func (fn SklCoinFunc) Flip() bool {
	return fn()
}
