package refindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPebbleInsertGetDeleteRange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble-idx")
	p, err := OpenPebble(dir)
	require.NoError(t, err)
	defer p.Close()

	for i := uint16(0); i < 20; i++ {
		require.NoError(t, p.Insert(i, []byte{byte(i)}))
	}

	v, err := p.Get(10)
	require.NoError(t, err)
	require.Equal(t, []byte{10}, v)

	require.NoError(t, p.Delete(10))
	_, err = p.Get(10)
	require.ErrorIs(t, err, ErrNotFound)

	it, err := p.Range(5, 9)
	require.NoError(t, err)
	var got []uint16
	for it.Next() {
		got = append(got, it.Key())
	}
	require.NoError(t, it.Error())
	require.NoError(t, it.Close())
	require.Equal(t, []uint16{5, 6, 7, 8, 9}, got)
}

func TestPebbleReopenPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble-idx")
	p, err := OpenPebble(dir)
	require.NoError(t, err)
	require.NoError(t, p.Insert(42, []byte("persisted")))
	require.NoError(t, p.Close())

	reopened, err := OpenPebble(dir)
	require.NoError(t, err)
	defer reopened.Close()
	v, err := reopened.Get(42)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), v)
}
