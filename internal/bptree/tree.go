package bptree

import (
	"fmt"

	"github.com/spf13/afero"
)

// Tree is the paged B+ tree engine: header plus open paged file plus
// the engine's own split tie-breaker. The node buffer is created
// fresh for each call rather than being carried as a Tree field, since
// every public operation owns its own descent/split working set: each
// call descends and splits through one NodeBuffer, reloaded in place,
// and a split additionally uses one short-lived buffer to rewrite the
// parent pointers of relocated children.
type Tree struct {
	pf     *PagedFile
	header Header
	rng    *splitRNG
}

// Create opens name on fs for write, writes a fresh empty-tree header,
// and flushes. Post-condition: file length == HeaderSize.
func Create(fs afero.Fs, name string) (*Tree, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: filename is empty", ErrInvalidArgument)
	}
	pf, err := OpenCreate(fs, name)
	if err != nil {
		return nil, err
	}
	h := Header{HeaderSize: HeaderSize, BlockSize: NodeSize, TreeOrder: Order, RootOffset: NoBlock}
	if err := pf.WriteAt(0, EncodeHeader(h)); err != nil {
		pf.Close()
		return nil, err
	}
	if err := pf.Flush(); err != nil {
		pf.Close()
		return nil, err
	}
	return &Tree{pf: pf, header: h, rng: newSplitRNG()}, nil
}

// Open opens the existing index file name on fs, verifying the
// on-disk layout matches this build's compiled sizes.
func Open(fs afero.Fs, name string) (*Tree, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: filename is empty", ErrInvalidArgument)
	}
	pf, err := OpenRead(fs, name)
	if err != nil {
		return nil, err
	}
	raw, err := pf.ReadAt(0, HeaderSize)
	if err != nil {
		pf.Close()
		return nil, err
	}
	h, err := DecodeHeader(raw)
	if err != nil {
		pf.Close()
		return nil, err
	}
	if h.TreeOrder > Order || h.HeaderSize != HeaderSize || h.BlockSize != NodeSize {
		pf.Close()
		return nil, fmt.Errorf("%w: on-disk order=%d header=%d block=%d, compiled order=%d header=%d block=%d",
			ErrIncompatibleVersion, h.TreeOrder, h.HeaderSize, h.BlockSize, Order, HeaderSize, NodeSize)
	}
	return &Tree{pf: pf, header: h, rng: newSplitRNG()}, nil
}

// Close closes the underlying file. Safe to call on an already-closed
// tree.
func (t *Tree) Close() error {
	if t == nil || t.pf == nil {
		return nil
	}
	return t.pf.Close()
}

// RootOffset reports the tree's root block offset, or NoBlock if the
// tree is empty.
func (t *Tree) RootOffset() Off { return t.header.RootOffset }

// Insert inserts key v. Duplicate keys are silently ignored: the tree
// holds a set, not a multiset.
func (t *Tree) Insert(v Key) error {
	if t.header.RootOffset == NoBlock {
		return t.insertIntoEmpty(v)
	}

	var buf NodeBuffer
	off := t.header.RootOffset
	for {
		if err := buf.Load(t.pf, off); err != nil {
			return err
		}
		n := buf.Node()
		i := findSlot(n, v)

		if i < int(n.KeysUsed) && n.Key[i] == v {
			return nil // duplicate: terminate successfully without modification
		}

		if n.Child[i+1] == NoBlock {
			return t.insertAtLeaf(&buf, i, v)
		}

		off = n.Child[i+1]
	}
}

// findSlot returns the smallest i in [0, n.KeysUsed) with v <= n.Key[i],
// or n.KeysUsed if no such slot exists.
func findSlot(n Node, v Key) int {
	i := 0
	for i < int(n.KeysUsed) && v > n.Key[i] {
		i++
	}
	return i
}

func (t *Tree) insertIntoEmpty(v Key) error {
	t.header.RootOffset = Off(t.header.HeaderSize)
	if err := t.pf.WriteAt(0, EncodeHeader(t.header)); err != nil {
		return err
	}

	root := emptyNode()
	root.KeysUsed = 1
	root.Key[0] = v
	off, err := t.pf.Append(EncodeNode(root))
	if err != nil {
		return err
	}
	if off != Off(t.header.HeaderSize) {
		return fmt.Errorf("%w: empty-tree append landed at %d, want %d", ErrCorrupt, off, t.header.HeaderSize)
	}
	return t.pf.Flush()
}

// insertAtLeaf inserts v at slot i of the node currently in buf (a
// leaf, i.e. Child[i+1] == NoBlock), shifting keys/children right,
// writes the node back, and triggers overflow if it is now full.
func (t *Tree) insertAtLeaf(buf *NodeBuffer, i int, v Key) error {
	n := buf.Node()
	n.KeysUsed++
	for j := int(n.KeysUsed) - 1; j > i; j-- {
		n.Key[j] = n.Key[j-1]
	}
	n.Key[i] = v
	for j := int(n.KeysUsed); j > i+1; j-- {
		n.Child[j] = n.Child[j-1]
	}
	n.Child[i+1] = NoBlock
	buf.Set(buf.Off(), n)
	if err := buf.Store(t.pf); err != nil {
		return err
	}
	if err := t.pf.Flush(); err != nil {
		return err
	}

	if n.KeysUsed < Order {
		return nil
	}
	return t.overflow(buf)
}

// overflow runs the split cascade starting from buf, which holds a
// committed node with KeysUsed == Order. It loops
// upward: each non-root split promotes a separator into the parent;
// if that insertion itself reaches Order keys, the loop repeats with
// the parent as the new N. A root split always terminates the cascade.
func (t *Tree) overflow(buf *NodeBuffer) error {
	for {
		if buf.Node().Parent == NoBlock {
			return t.splitRoot(buf)
		}

		parentOff := buf.Node().Parent
		rightOff, promoted, err := t.splitNonRoot(buf)
		if err != nil {
			return err
		}

		if err := buf.Load(t.pf, parentOff); err != nil {
			return err
		}
		if err := t.insertSeparator(buf, promoted, rightOff); err != nil {
			return err
		}
		if err := buf.Store(t.pf); err != nil {
			return err
		}
		if err := t.pf.Flush(); err != nil {
			return err
		}

		if buf.Node().KeysUsed < Order {
			return nil
		}
		// buf now holds the parent with KeysUsed == Order: loop,
		// treating it as the next N to split.
	}
}

// splitKeyCounts derives the randomized left/right key counts for a
// single overflow event.
func (t *Tree) splitKeyCounts() (left, right int) {
	q := t.rng.coinToss()
	left = Order/2 - q
	right = Order/2 + q - 1
	return left, right
}

// reparent loads each non-NoBlock offset in childOffs and rewrites its
// Parent field to newParent.
func (t *Tree) reparent(childOffs []Off, newParent Off) error {
	var aux NodeBuffer
	for _, off := range childOffs {
		if off == NoBlock {
			continue
		}
		if err := aux.Load(t.pf, off); err != nil {
			return err
		}
		n := aux.Node()
		n.Parent = newParent
		aux.Set(off, n)
		if err := aux.Store(t.pf); err != nil {
			return err
		}
	}
	return t.pf.Flush()
}

// splitRoot handles a full root: buf holds the root, full at Order
// keys. It appends two fresh siblings and rewrites the root slot in
// place as their 1-key parent.
func (t *Tree) splitRoot(buf *NodeBuffer) error {
	scratch := buf.Node()
	leftKeys, rightKeys := t.splitKeyCounts()
	rootOff := buf.Off() // == t.header.RootOffset, unchanged for the tree's lifetime

	left := emptyNode()
	left.KeysUsed = uint16(leftKeys)
	copy(left.Key[:leftKeys], scratch.Key[:leftKeys])
	copy(left.Child[:leftKeys+1], scratch.Child[:leftKeys+1])
	left.Parent = rootOff
	leftOff, err := t.pf.Append(EncodeNode(left))
	if err != nil {
		return err
	}
	if err := t.reparent(left.Child[:leftKeys+1], leftOff); err != nil {
		return err
	}

	right := emptyNode()
	right.KeysUsed = uint16(rightKeys)
	copy(right.Key[:rightKeys], scratch.Key[leftKeys+1:leftKeys+1+rightKeys])
	copy(right.Child[:rightKeys+1], scratch.Child[leftKeys+1:leftKeys+1+rightKeys+1])
	right.Parent = rootOff
	rightOff, err := t.pf.Append(EncodeNode(right))
	if err != nil {
		return err
	}
	if err := t.reparent(right.Child[:rightKeys+1], rightOff); err != nil {
		return err
	}

	newRoot := emptyNode()
	newRoot.KeysUsed = 1
	newRoot.Key[0] = scratch.Key[leftKeys]
	newRoot.Child[0] = leftOff
	newRoot.Child[1] = rightOff
	newRoot.Parent = NoBlock
	buf.Set(rootOff, newRoot)
	if err := buf.Store(t.pf); err != nil {
		return err
	}
	return t.pf.Flush()
}

// splitNonRoot handles a full non-root node: buf holds node N, full
// at Order keys. N is truncated in place to
// become the left sibling; a fresh right sibling is appended. Returns
// the right sibling's offset and the separator key to promote into
// N's parent. buf is left holding the (now-truncated) left sibling.
func (t *Tree) splitNonRoot(buf *NodeBuffer) (Off, Key, error) {
	scratch := buf.Node()
	leftKeys, rightKeys := t.splitKeyCounts()
	leftOff := buf.Off()

	left := emptyNode()
	left.KeysUsed = uint16(leftKeys)
	copy(left.Key[:leftKeys], scratch.Key[:leftKeys])
	copy(left.Child[:leftKeys+1], scratch.Child[:leftKeys+1])
	left.Parent = scratch.Parent
	buf.Set(leftOff, left)
	if err := buf.Store(t.pf); err != nil {
		return 0, 0, err
	}

	right := emptyNode()
	right.KeysUsed = uint16(rightKeys)
	copy(right.Key[:rightKeys], scratch.Key[leftKeys+1:leftKeys+1+rightKeys])
	copy(right.Child[:rightKeys+1], scratch.Child[leftKeys+1:leftKeys+1+rightKeys+1])
	right.Parent = scratch.Parent
	rightOff, err := t.pf.Append(EncodeNode(right))
	if err != nil {
		return 0, 0, err
	}
	if err := t.reparent(right.Child[:rightKeys+1], rightOff); err != nil {
		return 0, 0, err
	}
	if err := t.pf.Flush(); err != nil {
		return 0, 0, err
	}

	return rightOff, scratch.Key[leftKeys], nil
}

// insertSeparator inserts key at its sorted position in the node held
// by buf (a parent receiving a promoted separator), with rightChild
// as the new child pointer to the key's right. It mutates buf in
// place but does not write to disk — the caller persists once, after
// deciding whether this insertion itself overflowed.
func (t *Tree) insertSeparator(buf *NodeBuffer, key Key, rightChild Off) error {
	n := buf.Node()
	i := findSlot(n, key)
	n.KeysUsed++
	for j := int(n.KeysUsed) - 1; j > i; j-- {
		n.Key[j] = n.Key[j-1]
	}
	n.Key[i] = key
	for j := int(n.KeysUsed); j > i+1; j-- {
		n.Child[j] = n.Child[j-1]
	}
	n.Child[i+1] = rightChild
	buf.Set(buf.Off(), n)
	return nil
}
