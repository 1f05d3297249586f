package bptree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestWalkEmptyTreeVisitsNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	defer tr.Close()

	var count int
	require.NoError(t, tr.Walk(func(Record) error {
		count++
		return nil
	}))
	require.Zero(t, count)
}

// After a root split, the walker visits blocks in append order — left
// sibling, right sibling, then the root rewritten in place at the
// header offset — not root-first or any tree-shaped traversal order.
func TestWalkVisitsInAppendOrderNotTreeOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	defer tr.Close()

	for _, v := range []Key{10, 20, 30, 40} {
		require.NoError(t, tr.Insert(v))
	}

	var offs []Off
	require.NoError(t, tr.Walk(func(r Record) error {
		offs = append(offs, r.Off)
		return nil
	}))
	require.Equal(t, []Off{HeaderSize + NodeSize, HeaderSize + 2*NodeSize, HeaderSize}, offs)

	// The root block (rewritten in place) is visited last, even though
	// it lives at the lowest offset and is the tree's logical entry
	// point.
	var recs []Record
	require.NoError(t, tr.Walk(func(r Record) error {
		recs = append(recs, r)
		return nil
	}))
	require.Equal(t, tr.RootOffset(), recs[2].Off)
	require.Equal(t, NoBlock, recs[2].Node.Parent)
}

func TestWalkStopsOnVisitError(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	defer tr.Close()

	for _, v := range []Key{1, 2, 3, 4} {
		require.NoError(t, tr.Insert(v))
	}

	boom := errStop{}
	var seen int
	err = tr.Walk(func(Record) error {
		seen++
		if seen == 1 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, seen)
}

type errStop struct{}

func (errStop) Error() string { return "stop" }

func TestRecordStringFormatsNoBlockAsNip(t *testing.T) {
	n := emptyNode()
	n.KeysUsed = 1
	n.Key[0] = 99
	r := Record{Off: HeaderSize, Node: n}
	s := r.String()
	require.Contains(t, s, "<nip>")
	require.Contains(t, s, "99")
}
