package refindex

import (
	"slices"

	"github.com/btree-query-bench/treewright/internal/persist"
)

var _ Index = (*ListIndex)(nil)

// entry is one stored key/value pair in a ListIndex.
type entry struct {
	Key int64
	Val []byte
}

// ListIndex is an unsorted linear-scan comparator: the baseline every
// other structure should beat on point lookups and Range.
type ListIndex struct {
	Data []entry
}

// NewListIndex returns an empty linear index.
func NewListIndex() *ListIndex {
	return &ListIndex{Data: make([]entry, 0)}
}

func (l *ListIndex) Insert(key uint16, value []byte) error {
	k := int64(key)
	for i := range l.Data {
		if l.Data[i].Key == k {
			l.Data[i].Val = value
			return nil
		}
	}
	l.Data = append(l.Data, entry{Key: k, Val: value})
	return nil
}

func (l *ListIndex) Get(key uint16) ([]byte, error) {
	k := int64(key)
	for _, d := range l.Data {
		if d.Key == k {
			return d.Val, nil
		}
	}
	return nil, ErrNotFound
}

func (l *ListIndex) Delete(key uint16) error {
	k := int64(key)
	for i, d := range l.Data {
		if d.Key == k {
			l.Data = slices.Delete(l.Data, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (l *ListIndex) Range(start, end uint16) (Iterator, error) {
	return &listIterator{data: l.Data, cur: -1, start: int64(start), end: int64(end)}, nil
}

func (l *ListIndex) SaveTo(path string) error   { return persist.Save(path, l.Data) }
func (l *ListIndex) LoadFrom(path string) error { return persist.Load(path, &l.Data) }
func (l *ListIndex) Close() error               { return nil }

type listIterator struct {
	data       []entry
	cur        int
	start, end int64
}

func (it *listIterator) Next() bool {
	it.cur++
	for it.cur < len(it.data) {
		if it.data[it.cur].Key >= it.start && it.data[it.cur].Key <= it.end {
			return true
		}
		it.cur++
	}
	return false
}

func (it *listIterator) Key() uint16   { return uint16(it.data[it.cur].Key) }
func (it *listIterator) Value() []byte { return it.data[it.cur].Val }
func (it *listIterator) Error() error  { return nil }
func (it *listIterator) Close() error  { return nil }
