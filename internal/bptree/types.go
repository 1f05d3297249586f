// Package bptree implements a disk-resident B+ tree index over uint16
// keys, laid out on disk as a fixed header block followed by
// fixed-size node blocks (see codec.go for the exact byte layout).
package bptree

// Key is the indexed value type. All keys fit in a uint16; KeyMax is
// the largest representable key, used by callers as an input-range
// bound (the tree itself places no upper bound on what it will store).
type Key = uint16

// KeyMax is the sentinel upper bound for key input validation.
const KeyMax Key = 1<<16 - 1

// Off is a signed byte offset into the index file. NoBlock marks an
// absent child or an absent parent (the root).
type Off int64

// NoBlock denotes "no child here" / "no parent" (this node is root).
const NoBlock Off = -1

// Size is a byte length recorded in the header block.
type Size = uint32

// Order is the compile-time tree order M: each node holds up to Order
// keys and Order+1 child offsets.
const Order = 4
