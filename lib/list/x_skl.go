package list

import (
	"errors"
	"sync"

	"github.com/benz9527/xpoints/lib/infra"
)

// References:
// https://www.cl.cam.ac.uk/teaching/0506/Algorithms/skiplists.pdf
// classic: https://github.com/antirez/disque/blob/master/src/skiplist.c
// zskiplist: https://github1s.com/redis/redis/blob/unstable/src/t_zset.c
//
// Head node           Data nodes
// +-+                  +-+                      +-+
// |2|----------------->| |--------------------->| |->null
// +-+                  +-+                      +-+
// |1|------------>+-+  | |       +-+            | |
// | |             | |->| |------>| |----------->| |->null
// +-+  +-+  +-+   | |  | |  +-+  | |  +-+  +-+  | |  +-+
// |0|->|A|->|B|-->|C|->|D|->|E|->|F|->|G|->|H|->|I|->|J|->null
// +-+  +-+  +-+   +-+  +-+  +-+  +-+  +-+  +-+  +-+  +-+

const (
	sklMaxLevel = 32                    // level 0 is the data node level.
	sklMaxSize  = 1<<(sklMaxLevel-1) - 1 // 2^31 - 1 elements
)

var (
	ErrXSklNotFound = errors.New("[x-skl] key or value not found")
	ErrXSklIsFull   = errors.New("[x-skl] is full")
	ErrXSklIsEmpty  = errors.New("[x-skl] there is no element")
	errXSklNilCoin  = errors.New("[x-skl] nil coin")
)

type xSklOptions[K infra.OrderedKey] struct {
	keyComparator infra.OrderedKeyComparator[K]
	coin          SklCoin
}

type XSklOption[K infra.OrderedKey] func(*xSklOptions[K]) error

// WithSklKeyComparator replaces the natural key order.
func WithSklKeyComparator[K infra.OrderedKey](cmp infra.OrderedKeyComparator[K]) XSklOption[K] {
	return func(opts *xSklOptions[K]) error {
		if cmp != nil {
			opts.keyComparator = cmp
		}
		return nil
	}
}

// WithSklCoin injects the level generator bit source.
func WithSklCoin[K infra.OrderedKey](coin SklCoin) XSklOption[K] {
	return func(opts *xSklOptions[K]) error {
		if coin == nil {
			return errXSklNilCoin
		}
		opts.coin = coin
		return nil
	}
}

// WithSklSeed makes the level generator deterministic.
// Zero keeps the random seeded source.
func WithSklSeed[K infra.OrderedKey](seed uint64) XSklOption[K] {
	return func(opts *xSklOptions[K]) error {
		if seed != 0 {
			opts.coin = NewPCGCoin(seed)
		}
		return nil
	}
}

// NewXSkl creates the classic (not thread-safe) skip list.
func NewXSkl[K infra.OrderedKey, V comparable](opts ...XSklOption[K]) (XSkipList[K, V], error) {
	cfg := &xSklOptions[K]{
		keyComparator: infra.DefaultOrderedKeyComparator[K],
	}
	for _, o := range opts {
		if err := o(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.coin == nil {
		cfg.coin = newRandCoin()
	}

	skl := &xComSkl[K, V]{
		kcmp: cfg.keyComparator,
		coin: cfg.coin,
		head: newXComSklHead[K, V](),
		pool: &sync.Pool{
			New: func() any {
				return make([]*xComSklNode[K, V], sklMaxLevel)
			},
		},
	}
	return skl, nil
}
