package bptree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestPagedFileCreateWriteReadAt(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	defer pf.Close()

	require.NoError(t, pf.WriteAt(0, []byte("hello world")))
	got, err := pf.ReadAt(6, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("world"), got)
}

func TestPagedFileAppendReturnsPriorLength(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	defer pf.Close()

	off1, err := pf.Append([]byte("AAAA"))
	require.NoError(t, err)
	require.Equal(t, Off(0), off1)

	off2, err := pf.Append([]byte("BBBB"))
	require.NoError(t, err)
	require.Equal(t, Off(4), off2)

	length, err := pf.Length()
	require.NoError(t, err)
	require.Equal(t, int64(8), length)
}

func TestPagedFileReadAtShortFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	defer pf.Close()

	require.NoError(t, pf.WriteAt(0, []byte("abc")))
	_, err = pf.ReadAt(0, 10)
	require.ErrorIs(t, err, ErrReadFile)
}

func TestPagedFileOpenReadMissingFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := OpenRead(fs, "nope")
	require.Error(t, err)
}

func TestPagedFileCloseIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	require.NoError(t, pf.Close())
	require.NoError(t, pf.Close())

	var nilPf *PagedFile
	require.NoError(t, nilPf.Close())
}

func TestPagedFileOpenCreateTruncatesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	pf, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	require.NoError(t, pf.WriteAt(0, []byte("0123456789")))
	require.NoError(t, pf.Close())

	pf2, err := OpenCreate(fs, "idx")
	require.NoError(t, err)
	defer pf2.Close()
	length, err := pf2.Length()
	require.NoError(t, err)
	require.Equal(t, int64(0), length)
}
