package refindex

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var _ Index = (*Pebble)(nil)

// Pebble wraps a cockroachdb/pebble LSM database behind the Index
// contract so it can be benchmarked alongside the paged engine and
// the in-memory comparators.
type Pebble struct {
	db   *pebble.DB
	path string
}

// OpenPebble opens (or creates) a Pebble database at dir.
func OpenPebble(dir string) (*Pebble, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("refindex: pebble open: %w", err)
	}
	return &Pebble{db: db, path: dir}, nil
}

func (p *Pebble) Close() error {
	return p.db.Close()
}

func (p *Pebble) Insert(key uint16, value []byte) error {
	return p.db.Set(encodeKey(int64(key)), value, pebble.NoSync)
}

func (p *Pebble) Get(key uint16) ([]byte, error) {
	val, closer, err := p.db.Get(encodeKey(int64(key)))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("refindex: pebble get: %w", err)
	}
	result := make([]byte, len(val))
	copy(result, val)
	closer.Close()
	return result, nil
}

func (p *Pebble) Delete(key uint16) error {
	if err := p.db.Delete(encodeKey(int64(key)), pebble.NoSync); err != nil {
		return fmt.Errorf("refindex: pebble delete: %w", err)
	}
	return nil
}

func (p *Pebble) Range(start, end uint16) (Iterator, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeKey(int64(start)),
		UpperBound: encodeKeyExclusive(int64(end)),
	})
	if err != nil {
		return nil, fmt.Errorf("refindex: pebble range: %w", err)
	}
	iter.First()
	return &pebbleIterator{iter: iter, first: true}, nil
}

// SaveTo/LoadFrom are no-ops: Pebble is already durable at the path it
// was opened with, so there is nothing to copy to a separate
// snapshot.
func (p *Pebble) SaveTo(string) error   { return nil }
func (p *Pebble) LoadFrom(string) error { return nil }

func encodeKey(k int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k))
	return b
}

func encodeKeyExclusive(k int64) []byte {
	return encodeKey(k + 1)
}

type pebbleIterator struct {
	iter  *pebble.Iterator
	first bool
	key   int64
	val   []byte
	err   error
}

func (it *pebbleIterator) Next() bool {
	var valid bool
	if it.first {
		it.first = false
		valid = it.iter.Valid()
	} else {
		valid = it.iter.Next()
	}
	if !valid {
		return false
	}
	k := it.iter.Key()
	if len(k) != 8 {
		it.err = fmt.Errorf("refindex: pebble iterator: unexpected key length %d", len(k))
		return false
	}
	it.key = int64(binary.BigEndian.Uint64(k))
	v := it.iter.Value()
	it.val = make([]byte, len(v))
	copy(it.val, v)
	return true
}

func (it *pebbleIterator) Key() uint16   { return uint16(it.key) }
func (it *pebbleIterator) Value() []byte { return it.val }
func (it *pebbleIterator) Error() error  { return it.err }
func (it *pebbleIterator) Close() error  { return it.iter.Close() }
