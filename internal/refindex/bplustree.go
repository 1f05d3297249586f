package refindex

import (
	"slices"

	"github.com/btree-query-bench/treewright/internal/persist"
)

var _ Index = (*BPlusTree)(nil)

// BPlusNode is one node of an in-memory B+ tree: leaves hold values
// and chain to their right sibling for range scans; internal nodes
// hold only routing keys.
type BPlusNode struct {
	IsLeaf   bool
	Keys     []int64
	Values   [][]byte
	Children []*BPlusNode
	Next     *BPlusNode
}

// BPlusTree is an in-memory B+ tree of minimum degree T, used as a
// comparator against the paged engine. Unlike internal/bptree it
// keeps its data in memory and persists only through SaveTo/LoadFrom
// gob snapshots.
type BPlusTree struct {
	T    int
	Root *BPlusNode
}

// NewBPlusTree returns an empty tree of minimum degree t (clamped to >= 2).
func NewBPlusTree(t int) *BPlusTree {
	if t < 2 {
		t = 2
	}
	return &BPlusTree{T: t, Root: &BPlusNode{IsLeaf: true}}
}

func (bt *BPlusTree) Get(key uint16) ([]byte, error) {
	node := bt.findLeaf(bt.Root, int64(key))
	idx, found := slices.BinarySearch(node.Keys, int64(key))
	if !found {
		return nil, ErrNotFound
	}
	return node.Values[idx], nil
}

func (bt *BPlusTree) findLeaf(curr *BPlusNode, key int64) *BPlusNode {
	for !curr.IsLeaf {
		i := 0
		for i < len(curr.Keys) && key >= curr.Keys[i] {
			i++
		}
		curr = curr.Children[i]
	}
	return curr
}

func (bt *BPlusTree) Insert(key uint16, value []byte) error {
	root := bt.Root
	if len(root.Keys) == (2*bt.T - 1) {
		newRoot := &BPlusNode{IsLeaf: false, Children: []*BPlusNode{root}}
		bt.splitChild(newRoot, 0)
		bt.Root = newRoot
	}
	bt.insertNonFull(bt.Root, int64(key), value)
	return nil
}

func (bt *BPlusTree) insertNonFull(x *BPlusNode, k int64, v []byte) {
	if x.IsLeaf {
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
	for i < len(x.Keys) && k >= x.Keys[i] {
		i++
	}
	if len(x.Children[i].Keys) == (2*bt.T - 1) {
		bt.splitChild(x, i)
		if k >= x.Keys[i] {
			i++
		}
	}
	bt.insertNonFull(x.Children[i], k, v)
}

func (bt *BPlusTree) splitChild(x *BPlusNode, i int) {
	t := bt.T
	y := x.Children[i]
	z := &BPlusNode{IsLeaf: y.IsLeaf}

	if y.IsLeaf {
		z.Keys = append([]int64{}, y.Keys[t-1:]...)
		z.Values = append([][]byte{}, y.Values[t-1:]...)
		z.Next = y.Next
		y.Next = z

		y.Keys = y.Keys[:t-1]
		y.Values = y.Values[:t-1]

		x.Keys = slices.Insert(x.Keys, i, z.Keys[0])
	} else {
		z.Keys = append([]int64{}, y.Keys[t:]...)
		z.Children = append([]*BPlusNode{}, y.Children[t:]...)

		midKey := y.Keys[t-1]
		y.Keys = y.Keys[:t-1]
		y.Children = y.Children[:t]

		x.Keys = slices.Insert(x.Keys, i, midKey)
	}
	x.Children = slices.Insert(x.Children, i+1, z)
}

// Delete removes key from its leaf. Rebalancing on underflow is
// intentionally absent, matching internal/bptree's own no-deletion
// scope; callers needing tombstones should prefer the LSM comparator.
func (bt *BPlusTree) Delete(key uint16) error {
	node := bt.findLeaf(bt.Root, int64(key))
	idx, found := slices.BinarySearch(node.Keys, int64(key))
	if !found {
		return ErrNotFound
	}
	node.Keys = slices.Delete(node.Keys, idx, idx+1)
	node.Values = slices.Delete(node.Values, idx, idx+1)
	return nil
}

func (bt *BPlusTree) Range(start, end uint16) (Iterator, error) {
	return &bplusIterator{
		curr:  bt.findLeaf(bt.Root, int64(start)),
		start: int64(start),
		end:   int64(end),
	}, nil
}

type bplusIterator struct {
	curr       *BPlusNode
	i          int
	start, end int64
	key        int64
	val        []byte
}

func (it *bplusIterator) Next() bool {
	for it.curr != nil {
		for it.i < len(it.curr.Keys) {
			k := it.curr.Keys[it.i]
			if k > it.end {
				return false
			}
			if k >= it.start {
				it.key = k
				it.val = it.curr.Values[it.i]
				it.i++
				return true
			}
			it.i++
		}
		it.curr = it.curr.Next
		it.i = 0
	}
	return false
}

func (it *bplusIterator) Key() uint16   { return uint16(it.key) }
func (it *bplusIterator) Value() []byte { return it.val }
func (it *bplusIterator) Error() error  { return nil }
func (it *bplusIterator) Close() error  { return nil }

func (bt *BPlusTree) SaveTo(path string) error   { return persist.Save(path, bt) }
func (bt *BPlusTree) LoadFrom(path string) error { return persist.Load(path, bt) }
func (bt *BPlusTree) Close() error               { return nil }
