package bptree

import "errors"

// Error kinds. Every fallible operation returns one of these, wrapped
// with context via fmt.Errorf("%w: ...").
var (
	ErrInvalidArgument     = errors.New("bptree: invalid argument")
	ErrIncompatibleVersion = errors.New("bptree: incompatible on-disk version")
	ErrTreeEmpty           = errors.New("bptree: tree is empty")

	ErrCreateFile = errors.New("bptree: create file")
	ErrOpenFile   = errors.New("bptree: open file")
	ErrCloseFile  = errors.New("bptree: close file")
	ErrReadFile   = errors.New("bptree: read file")
	ErrWriteFile  = errors.New("bptree: write file")
	ErrSeekFile   = errors.New("bptree: seek file")

	// ErrCorrupt signals a block whose decoded shape can't be trusted:
	// wrong byte count, or a header that doesn't match the compiled
	// layout.
	ErrCorrupt = errors.New("bptree: corrupt block")
)
