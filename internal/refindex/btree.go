package refindex

import (
	"errors"
	"slices"
)

var _ Index = (*BTree)(nil)

// ErrNotFound is returned by Get/Delete when the key is absent.
var ErrNotFound = errors.New("refindex: key not found")

// BTreeNode is one node of an in-memory B-tree: internal nodes carry
// only keys and children, leaves carry keys and values.
type BTreeNode struct {
	Leaf     bool
	Keys     []int64
	Values   [][]byte
	Children []*BTreeNode
}

// BTree is a classic in-memory B-tree of minimum degree T, used as a
// non-durable comparator against the paged engine.
type BTree struct {
	T    int
	Root *BTreeNode
}

// NewBTree returns an empty tree of minimum degree t (clamped to >= 2).
func NewBTree(t int) *BTree {
	if t < 2 {
		t = 2
	}
	return &BTree{T: t, Root: &BTreeNode{Leaf: true}}
}

func (bt *BTree) Get(key uint16) ([]byte, error) {
	return bt.search(bt.Root, int64(key))
}

func (bt *BTree) search(x *BTreeNode, key int64) ([]byte, error) {
	i, found := slices.BinarySearch(x.Keys, key)
	if found {
		return x.Values[i], nil
	}
	if x.Leaf {
		return nil, ErrNotFound
	}
	return bt.search(x.Children[i], key)
}

func (bt *BTree) Insert(key uint16, value []byte) error {
	root := bt.Root
	if len(root.Keys) == (2*bt.T - 1) {
		newRoot := &BTreeNode{Children: []*BTreeNode{root}}
		bt.splitChild(newRoot, 0)
		bt.Root = newRoot
	}
	bt.insertNonFull(bt.Root, int64(key), value)
	return nil
}

func (bt *BTree) insertNonFull(x *BTreeNode, k int64, v []byte) {
	if x.Leaf {
		idx, found := slices.BinarySearch(x.Keys, k)
		if found {
			x.Values[idx] = v
			return
		}
		x.Keys = slices.Insert(x.Keys, idx, k)
		x.Values = slices.Insert(x.Values, idx, v)
		return
	}

	i := 0
	for i < len(x.Keys) && k > x.Keys[i] {
		i++
	}
	if len(x.Children[i].Keys) == (2*bt.T - 1) {
		bt.splitChild(x, i)
		if k > x.Keys[i] {
			i++
		}
	}
	bt.insertNonFull(x.Children[i], k, v)
}

func (bt *BTree) splitChild(x *BTreeNode, i int) {
	t := bt.T
	y := x.Children[i]
	z := &BTreeNode{Leaf: y.Leaf}
	z.Keys = append(z.Keys, y.Keys[t:]...)
	z.Values = append(z.Values, y.Values[t:]...)
	if !y.Leaf {
		z.Children = append(z.Children, y.Children[t:]...)
	}

	midKey, midVal := y.Keys[t-1], y.Values[t-1]
	y.Keys, y.Values = y.Keys[:t-1], y.Values[:t-1]
	if !y.Leaf {
		y.Children = y.Children[:t]
	}

	x.Keys = slices.Insert(x.Keys, i, midKey)
	x.Values = slices.Insert(x.Values, i, midVal)
	x.Children = slices.Insert(x.Children, i+1, z)
}

func (bt *BTree) Delete(key uint16) error {
	bt.delete(bt.Root, int64(key))
	if len(bt.Root.Keys) == 0 && !bt.Root.Leaf {
		bt.Root = bt.Root.Children[0]
	}
	return nil
}

func (bt *BTree) delete(x *BTreeNode, k int64) {
	idx, found := slices.BinarySearch(x.Keys, k)
	if found {
		if x.Leaf {
			x.Keys = slices.Delete(x.Keys, idx, idx+1)
			x.Values = slices.Delete(x.Values, idx, idx+1)
		} else {
			bt.deleteInternal(x, idx)
		}
		return
	}
	if x.Leaf {
		return
	}
	child := x.Children[idx]
	if len(child.Keys) < bt.T {
		bt.fill(x, idx)
	}
	if idx > len(x.Keys) {
		bt.delete(x.Children[idx-1], k)
	} else {
		bt.delete(x.Children[idx], k)
	}
}

func (bt *BTree) deleteInternal(x *BTreeNode, i int) {
	k, y, z := x.Keys[i], x.Children[i], x.Children[i+1]
	switch {
	case len(y.Keys) >= bt.T:
		pk, pv := bt.getPred(y)
		x.Keys[i], x.Values[i] = pk, pv
		bt.delete(y, pk)
	case len(z.Keys) >= bt.T:
		sk, sv := bt.getSucc(z)
		x.Keys[i], x.Values[i] = sk, sv
		bt.delete(z, sk)
	default:
		bt.merge(x, i)
		bt.delete(y, k)
	}
}

func (bt *BTree) getPred(x *BTreeNode) (int64, []byte) {
	for !x.Leaf {
		x = x.Children[len(x.Keys)]
	}
	return x.Keys[len(x.Keys)-1], x.Values[len(x.Values)-1]
}

func (bt *BTree) getSucc(x *BTreeNode) (int64, []byte) {
	for !x.Leaf {
		x = x.Children[0]
	}
	return x.Keys[0], x.Values[0]
}

func (bt *BTree) fill(x *BTreeNode, i int) {
	switch {
	case i != 0 && len(x.Children[i-1].Keys) >= bt.T:
		bt.borrowPrev(x, i)
	case i != len(x.Keys) && len(x.Children[i+1].Keys) >= bt.T:
		bt.borrowNext(x, i)
	case i != len(x.Keys):
		bt.merge(x, i)
	default:
		bt.merge(x, i-1)
	}
}

func (bt *BTree) borrowPrev(x *BTreeNode, i int) {
	c, s := x.Children[i], x.Children[i-1]
	c.Keys = slices.Insert(c.Keys, 0, x.Keys[i-1])
	c.Values = slices.Insert(c.Values, 0, x.Values[i-1])
	if !c.Leaf {
		c.Children = slices.Insert(c.Children, 0, s.Children[len(s.Keys)])
		s.Children = s.Children[:len(s.Keys)]
	}
	x.Keys[i-1], x.Values[i-1] = s.Keys[len(s.Keys)-1], s.Values[len(s.Keys)-1]
	s.Keys, s.Values = s.Keys[:len(s.Keys)-1], s.Values[:len(s.Values)-1]
}

func (bt *BTree) borrowNext(x *BTreeNode, i int) {
	c, s := x.Children[i], x.Children[i+1]
	c.Keys, c.Values = append(c.Keys, x.Keys[i]), append(c.Values, x.Values[i])
	if !c.Leaf {
		c.Children = append(c.Children, s.Children[0])
		s.Children = slices.Delete(s.Children, 0, 1)
	}
	x.Keys[i], x.Values[i] = s.Keys[0], s.Values[0]
	s.Keys, s.Values = s.Keys[1:], s.Values[1:]
}

func (bt *BTree) merge(x *BTreeNode, i int) {
	y, z := x.Children[i], x.Children[i+1]
	y.Keys, y.Values = append(y.Keys, x.Keys[i]), append(y.Values, x.Values[i])
	y.Keys, y.Values = append(y.Keys, z.Keys...), append(y.Values, z.Values...)
	if !y.Leaf {
		y.Children = append(y.Children, z.Children...)
	}
	x.Keys, x.Values = slices.Delete(x.Keys, i, i+1), slices.Delete(x.Values, i, i+1)
	x.Children = slices.Delete(x.Children, i+1, i+2)
}

func (bt *BTree) Range(start, end uint16) (Iterator, error) {
	it := &btreeIterator{idx: -1}
	bt.collect(bt.Root, int64(start), int64(end), it)
	return it, nil
}

func (bt *BTree) collect(x *BTreeNode, s, e int64, it *btreeIterator) {
	for i := 0; i < len(x.Keys); i++ {
		if !x.Leaf {
			bt.collect(x.Children[i], s, e, it)
		}
		if x.Keys[i] >= s && x.Keys[i] <= e {
			it.data = append(it.data, btreeEntry{x.Keys[i], x.Values[i]})
		}
	}
	if !x.Leaf {
		bt.collect(x.Children[len(x.Keys)], s, e, it)
	}
}

type btreeEntry struct {
	k int64
	v []byte
}

type btreeIterator struct {
	data []btreeEntry
	idx  int
}

func (it *btreeIterator) Next() bool    { it.idx++; return it.idx < len(it.data) }
func (it *btreeIterator) Key() uint16   { return uint16(it.data[it.idx].k) }
func (it *btreeIterator) Value() []byte { return it.data[it.idx].v }
func (it *btreeIterator) Error() error  { return nil }
func (it *btreeIterator) Close() error  { return nil }

// SaveTo/LoadFrom are no-ops: the in-memory B-tree carries no durable
// form in this comparator set (only the paged engine and the Pebble
// and gob-backed comparators persist).
func (bt *BTree) SaveTo(string) error   { return nil }
func (bt *BTree) LoadFrom(string) error { return nil }
func (bt *BTree) Close() error          { return nil }
