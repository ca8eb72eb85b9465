package list

import (
	"fmt"
	"io"
	"sync"

	"github.com/benz9527/xpoints/lib/infra"
)

var (
	_ XSkipList[uint8, uint8] = (*xComSkl[uint8, uint8])(nil)
)

// A common implementation of skip-list.
// @field head A sentinel node.
// The head.indices[0] is the first data node of skip-list.
// From head.indices[1], all of them are express lanes to implement binary search.
// The head grows with the highest node and never shrinks.
// Not safe for concurrent use.
type xComSkl[K infra.OrderedKey, V comparable] struct {
	kcmp    infra.OrderedKeyComparator[K]
	coin    SklCoin
	pool    *sync.Pool
	head    *xComSklNode[K, V]
	nodeLen int64 // skip-list's node count.
}

// loadAux is to load auxiliary array for traversal.
func (skl *xComSkl[K, V]) loadAux() []*xComSklNode[K, V] {
	aux, ok := skl.pool.Get().([]*xComSklNode[K, V])
	if /* dead code */ !ok {
		panic("[x-com-skl] load unknown traverse elements from pool")
	}
	return aux
}

// putAux is to recycle auxiliary array after traversal.
func (skl *xComSkl[K, V]) putAux(aux []*xComSklNode[K, V]) {
	for i := 0; i < sklMaxLevel; i++ {
		aux[i] = nil
	}
	skl.pool.Put(aux)
}

// findPredecessor0 records, per level, the rightmost node whose key is
// strictly less than the target key.
// @return value 1: the pred node if its level 0 successor equals to the key, otherwise nil
// @return value 2: the query traverse path (nodes)
func (skl *xComSkl[K, V]) findPredecessor0(key K) (*xComSklNode[K, V], []*xComSklNode[K, V]) {
	var (
		forward = skl.head
		aux     = skl.loadAux()
	)
	for /* vertical */ i := skl.head.level(); i >= 0; i-- {
		for /* horizontal */ cur := forward.levels()[i]; cur != nil; cur = forward.levels()[i] {
			if /* greater, forward next */ skl.kcmp(key, cur.Element().Key()) > 0 {
				forward = cur
			} else /* lower or equal, downward to next level */ {
				break
			}
		}
		aux[i] = forward
	}

	target := forward.next()
	if /* found */ target != nil && skl.kcmp(key, target.Element().Key()) == 0 {
		return forward, aux
	}
	return /* not found */ nil, aux
}

// removeNode splices x out of every lane it owns.
// aux[i] must be the last node before x at level i.
func (skl *xComSkl[K, V]) removeNode(x *xComSklNode[K, V], aux []*xComSklNode[K, V]) {
	for i := int32(0); i <= x.level(); i++ {
		if aux[i].levels()[i] == x {
			aux[i].levels()[i] = x.levels()[i]
		}
	}
	skl.nodeLen--
}

func (skl *xComSkl[K, V]) Len() int64 {
	return skl.nodeLen
}

// Levels is the lane count of the head.
func (skl *xComSkl[K, V]) Levels() int32 {
	return skl.head.level() + 1
}

// Insert puts the new node in front of the existing equal keys.
// The zero value of V is ignored.
func (skl *xComSkl[K, V]) Insert(key K, val V) error {
	var zero V
	if val == zero {
		return nil
	}
	if skl.nodeLen >= sklMaxSize {
		return ErrXSklIsFull
	}

	lvl := randomLevel(skl.coin, sklMaxLevel) - 1
	if lvl > skl.head.level() {
		skl.head.grow(lvl)
	}

	var (
		pred = skl.head
		aux  = skl.loadAux()
	)
	defer func() {
		skl.putAux(aux)
	}()

	for /* vertical */ i := skl.head.level(); i >= 0; i-- {
		for /* horizontal */ cur := pred.levels()[i]; cur != nil; cur = pred.levels()[i] {
			if skl.kcmp(key, cur.Element().Key()) <= 0 {
				break
			}
			pred = cur
		}
		aux[i] = pred
	}

	newNode := newXComSklNode[K, V](lvl, key, val)
	for i := int32(0); i <= lvl; i++ {
		newNode.levels()[i] = aux[i].levels()[i]
		aux[i].levels()[i] = newNode
	}
	skl.nodeLen++
	return nil
}

func (skl *xComSkl[K, V]) LoadFirst(key K) (SklElement[K, V], error) {
	if skl.Len() <= 0 {
		return nil, ErrXSklIsEmpty
	}

	pred, aux := skl.findPredecessor0(key)
	defer func() {
		skl.putAux(aux)
	}()
	if pred == nil {
		return nil, ErrXSklNotFound
	}
	return pred.next().Element(), nil
}

// LoadAll returns the equal keys elements in list order.
func (skl *xComSkl[K, V]) LoadAll(key K) ([]SklElement[K, V], error) {
	if skl.Len() <= 0 {
		return nil, ErrXSklIsEmpty
	}

	pred, aux := skl.findPredecessor0(key)
	defer func() {
		skl.putAux(aux)
	}()
	if pred == nil {
		return nil, ErrXSklNotFound
	}

	elements := make([]SklElement[K, V], 0, 4)
	for cur := pred.next(); cur != nil && skl.kcmp(key, cur.Element().Key()) == 0; cur = cur.next() {
		elements = append(elements, cur.Element())
	}
	return elements, nil
}

// RemoveFirst removes only one element even if the key is duplicated.
func (skl *xComSkl[K, V]) RemoveFirst(key K) (SklElement[K, V], error) {
	if skl.Len() <= 0 {
		return nil, ErrXSklIsEmpty
	}

	pred, aux := skl.findPredecessor0(key)
	defer func() {
		skl.putAux(aux)
	}()
	if pred == nil {
		return nil, ErrXSklNotFound
	}

	target := pred.next()
	skl.removeNode(target, aux)
	return target.Element(), nil
}

// RemoveByValue scans the data lane because the list is not ordered by value.
// The first element equals to val is removed.
func (skl *xComSkl[K, V]) RemoveByValue(val V) (SklElement[K, V], error) {
	if skl.Len() <= 0 {
		return nil, ErrXSklIsEmpty
	}

	aux := skl.loadAux()
	defer func() {
		skl.putAux(aux)
	}()
	for i := int32(0); i <= skl.head.level(); i++ {
		aux[i] = skl.head
	}

	for cur := skl.head.next(); cur != nil; cur = cur.next() {
		if cur.Element().Val() == val {
			skl.removeNode(cur, aux)
			return cur.Element(), nil
		}
		// Merge the traverse path.
		for i := int32(0); i <= cur.level(); i++ {
			aux[i] = cur
		}
	}
	return nil, ErrXSklNotFound
}

func (skl *xComSkl[K, V]) Foreach(action func(i int64, item SklIterationItem[K, V]) bool) {
	if skl.Len() <= 0 {
		return
	}

	var (
		i    int64
		item = &xSklIter[K, V]{}
	)
	for x := skl.head.next(); x != nil; {
		node, next := x, x.next()
		item.keyFn = node.element.Key
		item.valFn = node.element.Val
		item.nodeLevelFn = func() uint32 {
			return uint32(len(node.levels()))
		}
		if !action(i, item) {
			break
		}
		i++
		x = next
	}
}

func (skl *xComSkl[K, V]) PeekHead() SklElement[K, V] {
	if skl.Len() <= 0 {
		return nil
	}
	if target := skl.head.next(); target != nil {
		return target.Element()
	}
	return nil
}

// Dump prints one line per node with the node depth (level + 1),
// the head first.
func (skl *xComSkl[K, V]) Dump(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("SkipList dump:\n")
	printf("Node has depth %d value null\n", len(skl.head.levels()))
	for x := skl.head.next(); x != nil; x = x.next() {
		printf("Node has depth %d value %v\n", len(x.levels()), x.Element().Val())
	}
	printf("SkipList size is: %d\n", skl.Len())
	return err
}
