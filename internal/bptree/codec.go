package bptree

import (
	"encoding/binary"
	"fmt"
)

// Byte layout, little-endian throughout (the choice is build-time
// fixed; it must match between encode and decode, and it does because
// both live in this one file).
//
// Header block:
//
//	[0:4]   header_size (Size)
//	[4:8]   block_size  (Size)
//	[8:10]  tree_order  (uint16)
//	[10:18] root_offset (Off, int64)
//
// Node block:
//
//	[0]                       is_leaf (byte, {0,1})
//	[1:3]                     keys_used (uint16)
//	[3 : 3+2*Order]           key[0..Order) (uint16 each)
//	[.. : .. +8*(Order+1)]    child[0..Order+1) (int64 each)
//	[last 8 bytes]            parent (int64)
const (
	headerKeyOff  = 0
	headerKeySize = 4
	headerBlkOff  = 4
	headerBlkSize = 4
	headerOrdOff  = 8
	headerOrdSize = 2
	headerRootOff = 10
	headerRootSz  = 8

	// HeaderSize is the fixed byte length of the header block.
	HeaderSize = headerRootOff + headerRootSz

	nodeLeafOff   = 0
	nodeUsedOff   = 1
	nodeKeysOff   = 3
	nodeChildOff  = nodeKeysOff + 2*Order
	nodeParentOff = nodeChildOff + 8*(Order+1)

	// NodeSize is the fixed byte length of a node block.
	NodeSize = nodeParentOff + 8
)

// Header is the fixed-size leading block of an index file.
type Header struct {
	HeaderSize Size
	BlockSize  Size
	TreeOrder  uint16
	RootOffset Off
}

// Node is one fixed-size tree block. Only entries [0:KeysUsed) of Key
// and [0:KeysUsed+1) of Child are meaningful; the rest must be zero /
// NoBlock respectively.
type Node struct {
	IsLeaf   bool
	KeysUsed uint16
	Key      [Order]Key
	Child    [Order + 1]Off
	Parent   Off
}

// EncodeHeader serializes h into a HeaderSize-byte frame.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[headerKeyOff:], h.HeaderSize)
	binary.LittleEndian.PutUint32(buf[headerBlkOff:], h.BlockSize)
	binary.LittleEndian.PutUint16(buf[headerOrdOff:], h.TreeOrder)
	binary.LittleEndian.PutUint64(buf[headerRootOff:], uint64(h.RootOffset))
	return buf
}

// DecodeHeader parses buf, which must be exactly HeaderSize bytes.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("%w: header frame is %d bytes, want %d", ErrCorrupt, len(buf), HeaderSize)
	}
	return Header{
		HeaderSize: binary.LittleEndian.Uint32(buf[headerKeyOff:]),
		BlockSize:  binary.LittleEndian.Uint32(buf[headerBlkOff:]),
		TreeOrder:  binary.LittleEndian.Uint16(buf[headerOrdOff:]),
		RootOffset: Off(binary.LittleEndian.Uint64(buf[headerRootOff:])),
	}, nil
}

// EncodeNode serializes n into a NodeSize-byte frame.
func EncodeNode(n Node) []byte {
	buf := make([]byte, NodeSize)
	if n.IsLeaf {
		buf[nodeLeafOff] = 1
	}
	binary.LittleEndian.PutUint16(buf[nodeUsedOff:], n.KeysUsed)
	for i := 0; i < Order; i++ {
		binary.LittleEndian.PutUint16(buf[nodeKeysOff+2*i:], n.Key[i])
	}
	for i := 0; i < Order+1; i++ {
		binary.LittleEndian.PutUint64(buf[nodeChildOff+8*i:], uint64(n.Child[i]))
	}
	binary.LittleEndian.PutUint64(buf[nodeParentOff:], uint64(n.Parent))
	return buf
}

// DecodeNode parses buf, which must be exactly NodeSize bytes.
func DecodeNode(buf []byte) (Node, error) {
	if len(buf) != NodeSize {
		return Node{}, fmt.Errorf("%w: node frame is %d bytes, want %d", ErrCorrupt, len(buf), NodeSize)
	}
	var n Node
	n.IsLeaf = buf[nodeLeafOff] != 0
	n.KeysUsed = binary.LittleEndian.Uint16(buf[nodeUsedOff:])
	for i := 0; i < Order; i++ {
		n.Key[i] = binary.LittleEndian.Uint16(buf[nodeKeysOff+2*i:])
	}
	for i := 0; i < Order+1; i++ {
		n.Child[i] = Off(binary.LittleEndian.Uint64(buf[nodeChildOff+8*i:]))
	}
	n.Parent = Off(binary.LittleEndian.Uint64(buf[nodeParentOff:]))
	return n, nil
}

// emptyNode returns a node with every child slot set to NoBlock, the
// required initial state before any slot is populated.
func emptyNode() Node {
	var n Node
	for i := range n.Child {
		n.Child[i] = NoBlock
	}
	n.Parent = NoBlock
	return n
}
