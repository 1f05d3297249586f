package bptree

// NodeBuffer is a single-slot owning container for exactly one
// decoded node. The engine loads a block into it, mutates it in
// place, then writes it back; it is reused across descent steps and
// across the split cascade, so no multi-node in-memory graph ever
// exists.
type NodeBuffer struct {
	off  Off
	node Node
}

// Load reads and decodes the block at off into the buffer.
func (b *NodeBuffer) Load(pf *PagedFile, off Off) error {
	raw, err := pf.ReadAt(off, NodeSize)
	if err != nil {
		return err
	}
	n, err := DecodeNode(raw)
	if err != nil {
		return err
	}
	b.off = off
	b.node = n
	return nil
}

// Store encodes and writes the buffer's node back to its own offset.
func (b *NodeBuffer) Store(pf *PagedFile) error {
	return pf.WriteAt(b.off, EncodeNode(b.node))
}

// Set replaces the buffer's contents without touching disk (used when
// composing a node before its first Store/Append).
func (b *NodeBuffer) Set(off Off, n Node) {
	b.off = off
	b.node = n
}

func (b *NodeBuffer) Off() Off   { return b.off }
func (b *NodeBuffer) Node() Node { return b.node }
