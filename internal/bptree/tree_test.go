package bptree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) (*Tree, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr, fs
}

func collect(t *testing.T, tr *Tree) []Record {
	t.Helper()
	var recs []Record
	require.NoError(t, tr.Walk(func(r Record) error {
		recs = append(recs, r)
		return nil
	}))
	return recs
}

// Single insert into an empty tree.
func TestInsertSingleKey(t *testing.T) {
	tr, _ := newTestTree(t)
	require.NoError(t, tr.Insert(10))

	length, err := tr.pf.Length()
	require.NoError(t, err)
	require.EqualValues(t, HeaderSize+NodeSize, length)

	recs := collect(t, tr)
	require.Len(t, recs, 1)
	root := recs[0].Node
	require.EqualValues(t, 1, root.KeysUsed)
	require.Equal(t, Key(10), root.Key[0])
	require.Equal(t, NoBlock, root.Parent)
	for _, c := range root.Child {
		require.Equal(t, NoBlock, c)
	}
	require.Equal(t, Off(HeaderSize), tr.RootOffset())
}

// A few inserts that stay below node capacity: single node, no split.
func TestInsertBelowCapacityNoSplit(t *testing.T) {
	tr, _ := newTestTree(t)
	for _, v := range []Key{10, 20, 30} {
		require.NoError(t, tr.Insert(v))
	}

	recs := collect(t, tr)
	require.Len(t, recs, 1)
	root := recs[0].Node
	require.EqualValues(t, 3, root.KeysUsed)
	require.Equal(t, [Order]Key{10, 20, 30, 0}, root.Key)
}

// Insert [10, 20, 30, 40]: the 4th insert triggers a root
// split, producing a 3-node file: left sibling, right sibling, root
// rewritten in place (in that append order).
func TestInsertTriggersRootSplit(t *testing.T) {
	tr, _ := newTestTree(t)
	for _, v := range []Key{10, 20, 30, 40} {
		require.NoError(t, tr.Insert(v))
	}

	recs := collect(t, tr)
	require.Len(t, recs, 3)

	left, right, root := recs[0], recs[1], recs[2]
	require.Equal(t, Off(HeaderSize+NodeSize), left.Off)
	require.Equal(t, Off(HeaderSize+2*NodeSize), right.Off)
	require.Equal(t, Off(HeaderSize), root.Off)

	require.EqualValues(t, 1, root.Node.KeysUsed)
	require.Contains(t, []Key{20, 30}, root.Node.Key[0])
	require.Equal(t, NoBlock, root.Node.Parent)
	require.Equal(t, left.Off, root.Node.Child[0])
	require.Equal(t, right.Off, root.Node.Child[1])

	require.Equal(t, root.Off, left.Node.Parent)
	require.Equal(t, root.Off, right.Node.Parent)

	allKeys := append(append([]Key{root.Node.Key[0]}, left.Node.Key[:left.Node.KeysUsed]...), right.Node.Key[:right.Node.KeysUsed]...)
	require.ElementsMatch(t, []Key{10, 20, 30, 40}, allKeys)

	for _, k := range left.Node.Key[:left.Node.KeysUsed] {
		require.Less(t, k, root.Node.Key[0])
	}
	for _, k := range right.Node.Key[:right.Node.KeysUsed] {
		require.GreaterOrEqual(t, k, root.Node.Key[0])
	}

	require.EqualValues(t, HeaderSize+3*NodeSize, mustLength(t, tr))
}

// Insert [10, 20, 30, 40, 50]: the 5th key descends into
// the appropriate sibling, no secondary split yet.
func TestInsertAfterSplitDescendsIntoSibling(t *testing.T) {
	tr, _ := newTestTree(t)
	for _, v := range []Key{10, 20, 30, 40, 50} {
		require.NoError(t, tr.Insert(v))
	}

	recs := collect(t, tr)
	require.Len(t, recs, 3, "no secondary split should occur")

	var allKeys []Key
	for _, r := range recs {
		allKeys = append(allKeys, r.Node.Key[:r.Node.KeysUsed]...)
	}
	require.ElementsMatch(t, []Key{10, 20, 30, 40, 50}, allKeys)
}

// A duplicate sequence [7, 7, 7] stores exactly one key.
func TestDuplicateInsertsAreSuppressed(t *testing.T) {
	tr, _ := newTestTree(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.Insert(7))
	}

	length, err := tr.pf.Length()
	require.NoError(t, err)
	require.EqualValues(t, HeaderSize+NodeSize, length)

	recs := collect(t, tr)
	require.Len(t, recs, 1)
	require.EqualValues(t, 1, recs[0].Node.KeysUsed)
	require.Equal(t, Key(7), recs[0].Node.Key[0])
}

// Boundary: a second insert of the same key leaves the file
// byte-identical.
func TestDuplicateInsertLeavesFileByteIdentical(t *testing.T) {
	tr, fs := newTestTree(t)
	require.NoError(t, tr.Insert(10))
	require.NoError(t, tr.Insert(20))
	require.NoError(t, tr.Insert(30))

	before, err := afero.ReadFile(fs, "idx")
	require.NoError(t, err)

	require.NoError(t, tr.Insert(20))

	after, err := afero.ReadFile(fs, "idx")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// The file length is always header size plus a whole number of blocks.
func TestFileLengthQuantizationHolds(t *testing.T) {
	tr, _ := newTestTree(t)
	for _, v := range []Key{5, 15, 25, 35, 45, 55, 65, 75} {
		require.NoError(t, tr.Insert(v))
		length := mustLength(t, tr)
		require.Zero(t, (length-HeaderSize)%NodeSize)
	}
}

// The stored key set matches the deduplicated input set, for an
// insert sequence large enough to force multiple splits.
func TestMembershipHoldsAcrossSplits(t *testing.T) {
	tr, _ := newTestTree(t)
	input := []Key{50, 10, 70, 20, 60, 30, 80, 40, 90, 5, 15, 25, 35, 45, 55, 65, 75, 85, 50, 10}
	for _, v := range input {
		require.NoError(t, tr.Insert(v))
	}

	recs := collect(t, tr)
	var allKeys []Key
	for _, r := range recs {
		allKeys = append(allKeys, r.Node.Key[:r.Node.KeysUsed]...)
		require.Less(t, r.Node.KeysUsed, uint16(Order))
		require.Greater(t, r.Node.KeysUsed, uint16(0))
	}

	want := map[Key]bool{}
	for _, v := range input {
		want[v] = true
	}
	require.Len(t, allKeys, len(want))
	for _, v := range allKeys {
		require.True(t, want[v])
	}
}

func TestOpenRejectsIncompatibleOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	pf, err := OpenRead(fs, "idx")
	require.NoError(t, err)
	bad := Header{HeaderSize: HeaderSize, BlockSize: NodeSize, TreeOrder: Order + 1, RootOffset: NoBlock}
	require.NoError(t, pf.WriteAt(0, EncodeHeader(bad)))
	require.NoError(t, pf.Close())

	_, err = Open(fs, "idx")
	require.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestCreateThenOpenRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	tr, err := Create(fs, "idx")
	require.NoError(t, err)
	require.NoError(t, tr.Insert(1))
	require.NoError(t, tr.Insert(2))
	require.NoError(t, tr.Close())

	reopened, err := Open(fs, "idx")
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, Off(HeaderSize), reopened.RootOffset())

	recs := collect(t, reopened)
	require.Len(t, recs, 1)
	require.EqualValues(t, 2, recs[0].Node.KeysUsed)
}

func TestCreateAndOpenRejectEmptyName(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Create(fs, "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Open(fs, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func mustLength(t *testing.T, tr *Tree) int64 {
	t.Helper()
	length, err := tr.pf.Length()
	require.NoError(t, err)
	return length
}
