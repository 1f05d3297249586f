package refindex

import (
	"container/heap"
	"slices"
	"sort"
)

var _ Index = (*LSMTree)(nil)

// Entry is one record in a memtable or segment; a nil Val marks a
// tombstone.
type Entry struct {
	Key int64
	Val []byte
}

// Segment is one immutable, sorted, bloom-filtered run within a
// level.
type Segment struct {
	Data   []Entry
	Filter *BloomFilter
}

// LSMTree is an in-memory log-structured merge tree: writes land in
// MemTable, flush to Level 0 as sorted, bloom-filtered segments, and
// compact downward once a level holds too many segments.
type LSMTree struct {
	MemTable  []Entry
	Levels    [][]Segment
	Threshold int
}

// NewLSM returns an empty tree that flushes its memtable every
// threshold inserts.
func NewLSM(threshold int) *LSMTree {
	return &LSMTree{
		Threshold: threshold,
		MemTable:  make([]Entry, 0, threshold),
		Levels:    make([][]Segment, 5),
	}
}

func (l *LSMTree) Insert(k uint16, v []byte) error {
	l.MemTable = append(l.MemTable, Entry{int64(k), v})
	if len(l.MemTable) >= l.Threshold {
		l.flush()
	}
	return nil
}

func (l *LSMTree) Delete(k uint16) error {
	return l.Insert(k, nil)
}

func (l *LSMTree) flush() {
	slices.SortFunc(l.MemTable, func(a, b Entry) int {
		return int(a.Key - b.Key)
	})

	filter := NewBloom(len(l.MemTable)*10, 3)
	for _, e := range l.MemTable {
		filter.Add(e.Key)
	}

	l.Levels[0] = append([]Segment{{Data: l.MemTable, Filter: filter}}, l.Levels[0]...)
	l.MemTable = make([]Entry, 0, l.Threshold)

	l.checkCompaction(0)
}

func (l *LSMTree) checkCompaction(level int) {
	if len(l.Levels[level]) >= 10 && level < len(l.Levels)-1 {
		l.compactLevel(level)
	}
}

func (l *LSMTree) compactLevel(level int) {
	var combined []Entry
	for _, s := range l.Levels[level] {
		combined = append(combined, s.Data...)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Key < combined[j].Key
	})

	var compacted []Entry
	for i := 0; i < len(combined); i++ {
		if i > 0 && combined[i].Key == combined[i-1].Key {
			continue
		}
		compacted = append(compacted, combined[i])
	}

	filter := NewBloom(len(compacted)*10, 3)
	for _, e := range compacted {
		filter.Add(e.Key)
	}

	l.Levels[level+1] = append([]Segment{{Data: compacted, Filter: filter}}, l.Levels[level+1]...)
	l.Levels[level] = make([]Segment, 0)

	l.checkCompaction(level + 1)
}

func (l *LSMTree) Get(key uint16) ([]byte, error) {
	k := int64(key)
	for i := len(l.MemTable) - 1; i >= 0; i-- {
		if l.MemTable[i].Key == k {
			if l.MemTable[i].Val == nil {
				return nil, ErrNotFound
			}
			return l.MemTable[i].Val, nil
		}
	}

	for _, level := range l.Levels {
		for _, s := range level {
			if !s.Filter.Test(k) {
				continue
			}
			idx, found := slices.BinarySearchFunc(s.Data, k, func(e Entry, t int64) int {
				return int(e.Key - t)
			})
			if found {
				if s.Data[idx].Val == nil {
					return nil, ErrNotFound
				}
				return s.Data[idx].Val, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (l *LSMTree) Range(start, end uint16) (Iterator, error) {
	h := &mergeHeap{}
	heap.Init(h)

	if len(l.MemTable) > 0 {
		heap.Push(h, &heapItem{data: l.MemTable, index: 0})
	}
	for _, level := range l.Levels {
		for _, seg := range level {
			if len(seg.Data) > 0 {
				heap.Push(h, &heapItem{data: seg.Data, index: 0})
			}
		}
	}

	s, e2 := int64(start), int64(end)
	var final []Entry
	var lastKey int64 = -1
	first := true

	for h.Len() > 0 {
		item := heap.Pop(h).(*heapItem)
		e := item.data[item.index]

		if e.Key >= s && e.Key <= e2 && (first || e.Key != lastKey) {
			if e.Val != nil {
				final = append(final, e)
			}
			lastKey = e.Key
			first = false
		}

		item.index++
		if item.index < len(item.data) {
			heap.Push(h, item)
		}
	}

	return &lsmIterator{data: final, idx: -1}, nil
}

type heapItem struct {
	data  []Entry
	index int
}

type mergeHeap []*heapItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].data[h[i].index].Key < h[j].data[h[j].index].Key }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*heapItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

type lsmIterator struct {
	data []Entry
	idx  int
}

func (it *lsmIterator) Next() bool    { it.idx++; return it.idx < len(it.data) }
func (it *lsmIterator) Key() uint16   { return uint16(it.data[it.idx].Key) }
func (it *lsmIterator) Value() []byte { return it.data[it.idx].Val }
func (it *lsmIterator) Error() error  { return nil }
func (it *lsmIterator) Close() error  { return nil }

// SaveTo/LoadFrom are no-ops: BloomFilter's bit array is unexported
// and would not survive a gob round trip, so snapshotting would hand
// back segments with dead filters. Use the Pebble comparator when a
// durable LSM-shaped store is needed.
func (l *LSMTree) SaveTo(string) error   { return nil }
func (l *LSMTree) LoadFrom(string) error { return nil }
func (l *LSMTree) Close() error          { return nil }
