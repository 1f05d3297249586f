package bptree

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

const (
	oCreate = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	oOpen   = os.O_RDWR
)

// PagedFile appends, reads, and overwrites fixed-size blocks at byte
// offsets in one file. It is the sole I/O surface the tree engine and
// the walker use; neither touches afero or *os.File directly, which is
// what makes the engine testable against an in-memory filesystem.
type PagedFile struct {
	fs   afero.Fs
	f    afero.File
	name string
}

// OpenCreate creates (or truncates) name on fs for read/write.
func OpenCreate(fs afero.Fs, name string) (*PagedFile, error) {
	f, err := fs.OpenFile(name, oCreate, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCreateFile, name, err)
	}
	return &PagedFile{fs: fs, f: f, name: name}, nil
}

// OpenRead opens the existing file name on fs for read/write (the
// engine needs write access to an "opened" file too, e.g. to insert).
func OpenRead(fs afero.Fs, name string) (*PagedFile, error) {
	f, err := fs.OpenFile(name, oOpen, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFile, name, err)
	}
	return &PagedFile{fs: fs, f: f, name: name}, nil
}

// ReadAt reads exactly len(size) bytes starting at off.
func (p *PagedFile) ReadAt(off Off, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := p.f.ReadAt(buf, int64(off))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %s at %d: %v", ErrReadFile, p.name, off, err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: %s at %d: read %d of %d bytes", ErrReadFile, p.name, off, n, size)
	}
	return buf, nil
}

// WriteAt overwrites size(data) bytes at off.
func (p *PagedFile) WriteAt(off Off, data []byte) error {
	if _, err := p.f.WriteAt(data, int64(off)); err != nil {
		return fmt.Errorf("%w: %s at %d: %v", ErrWriteFile, p.name, off, err)
	}
	return nil
}

// Append writes data at the current end of file and returns the
// offset the data now lives at (the pre-append length).
func (p *PagedFile) Append(data []byte) (Off, error) {
	info, err := p.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: stat: %v", ErrSeekFile, p.name, err)
	}
	off := Off(info.Size())
	if err := p.WriteAt(off, data); err != nil {
		return 0, err
	}
	return off, nil
}

// Flush forces the underlying file to sync, if the backing
// filesystem supports it (afero.MemMapFs is a no-op; afero.OsFs
// syncs to disk).
func (p *PagedFile) Flush() error {
	if s, ok := p.f.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("%w: %s: flush: %v", ErrWriteFile, p.name, err)
		}
	}
	return nil
}

// Length returns the current file length.
func (p *PagedFile) Length() (int64, error) {
	info, err := p.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: stat: %v", ErrSeekFile, p.name, err)
	}
	return info.Size(), nil
}

// Close closes the underlying file. Closing an already-closed (or
// never-opened) PagedFile is a no-op, per the engine's idempotent
// close contract.
func (p *PagedFile) Close() error {
	if p == nil || p.f == nil {
		return nil
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCloseFile, p.name, err)
	}
	p.f = nil
	return nil
}
