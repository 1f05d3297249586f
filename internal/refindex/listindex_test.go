package refindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListIndexInsertGetDelete(t *testing.T) {
	l := NewListIndex()
	require.NoError(t, l.Insert(1, []byte("a")))
	require.NoError(t, l.Insert(2, []byte("b")))
	require.NoError(t, l.Insert(1, []byte("a2")))

	v, err := l.Get(1)
	require.NoError(t, err)
	require.Equal(t, []byte("a2"), v)

	require.NoError(t, l.Delete(2))
	_, err = l.Get(2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListIndexRangeInclusive(t *testing.T) {
	l := NewListIndex()
	for _, k := range []uint16{3, 1, 4, 1, 5, 9, 2, 6} {
		require.NoError(t, l.Insert(k, nil))
	}
	it, err := l.Range(2, 6)
	require.NoError(t, err)
	var got []uint16
	for it.Next() {
		got = append(got, it.Key())
	}
	require.ElementsMatch(t, []uint16{3, 4, 5, 2, 6}, got)
}

func TestListIndexSaveToLoadFromRoundTrip(t *testing.T) {
	l := NewListIndex()
	require.NoError(t, l.Insert(7, []byte("seven")))
	require.NoError(t, l.Insert(8, []byte("eight")))

	path := filepath.Join(t.TempDir(), "list.gob")
	require.NoError(t, l.SaveTo(path))

	reloaded := NewListIndex()
	require.NoError(t, reloaded.LoadFrom(path))
	v, err := reloaded.Get(7)
	require.NoError(t, err)
	require.Equal(t, []byte("seven"), v)
}
