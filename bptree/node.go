package bptree

import (
	"encoding/binary"

	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

// LeafView is a zero-copy projection over a leaf page's bytes. It
// borrows the underlying buffer and must not outlive the frame pin that
// backs it.
type LeafView struct {
	buf []byte
}

func newLeafView(buf []byte) LeafView {
	return LeafView{buf: buf}
}

// InitLeaf stamps buf as an empty leaf node.
func InitLeaf(buf []byte, parent, next diskmanager.PageID) LeafView {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint32(buf[leafOffType:], uint32(pageTypeLeaf))
	v := LeafView{buf: buf}
	v.SetNumKeys(0)
	v.SetParentPageID(parent)
	v.SetNextPageID(next)
	return v
}

func (v LeafView) NumKeys() int {
	return int(int32(binary.LittleEndian.Uint32(v.buf[leafOffNumKeys:])))
}

func (v LeafView) SetNumKeys(n int) {
	binary.LittleEndian.PutUint32(v.buf[leafOffNumKeys:], uint32(int32(n)))
}

func (v LeafView) ParentPageID() diskmanager.PageID {
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(v.buf[leafOffParent:])))
}

func (v LeafView) SetParentPageID(id diskmanager.PageID) {
	binary.LittleEndian.PutUint32(v.buf[leafOffParent:], uint32(int32(id)))
}

func (v LeafView) NextPageID() diskmanager.PageID {
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(v.buf[leafOffNext:])))
}

func (v LeafView) SetNextPageID(id diskmanager.PageID) {
	binary.LittleEndian.PutUint32(v.buf[leafOffNext:], uint32(int32(id)))
}

func (v LeafView) entryOffset(i int) int {
	return leafOffEntries + i*leafEntrySize
}

// KeyAt returns the key of the i'th entry.
func (v LeafView) KeyAt(i int) int32 {
	off := v.entryOffset(i)
	return int32(binary.LittleEndian.Uint32(v.buf[off:]))
}

func (v LeafView) setKeyAt(i int, key int32) {
	off := v.entryOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:], uint32(key))
}

// ValueAt returns a copy of the i'th value's VALUE_SIZE bytes.
func (v LeafView) ValueAt(i int) []byte {
	off := v.entryOffset(i) + 4
	out := make([]byte, ValueSize)
	copy(out, v.buf[off:off+ValueSize])
	return out
}

// IsTombstoneAt reports whether the i'th entry's value starts with a
// NUL byte, marking it as deleted.
func (v LeafView) IsTombstoneAt(i int) bool {
	off := v.entryOffset(i) + 4
	return v.buf[off] == 0
}

func (v LeafView) setValueAt(i int, value []byte) {
	off := v.entryOffset(i) + 4
	dst := v.buf[off : off+ValueSize]
	for j := range dst {
		dst[j] = 0
	}
	n := len(value)
	if n > ValueSize-1 {
		n = ValueSize - 1
	}
	copy(dst, value[:n])
}

// setEntry writes key and value at slot i, NUL-padding/truncating value.
func (v LeafView) setEntry(i int, key int32, value []byte) {
	v.setKeyAt(i, key)
	v.setValueAt(i, value)
}

// shiftEntriesRight moves entries [from, numKeys) one slot to the right
// to make room for an insertion at index from. Caller must grow
// NumKeys separately.
func (v LeafView) shiftEntriesRight(from, numKeys int) {
	for i := numKeys; i > from; i-- {
		srcOff := v.entryOffset(i - 1)
		dstOff := v.entryOffset(i)
		copy(v.buf[dstOff:dstOff+leafEntrySize], v.buf[srcOff:srcOff+leafEntrySize])
	}
}

// TombstoneAt zeroes out the value bytes of the i'th entry in place.
func (v LeafView) TombstoneAt(i int) {
	off := v.entryOffset(i) + 4
	dst := v.buf[off : off+ValueSize]
	for j := range dst {
		dst[j] = 0
	}
}

// InternalView is a zero-copy projection over an internal page's bytes.
type InternalView struct {
	buf []byte
}

func newInternalView(buf []byte) InternalView {
	return InternalView{buf: buf}
}

// InitInternal stamps buf as an empty internal node.
func InitInternal(buf []byte, parent diskmanager.PageID) InternalView {
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint32(buf[internalOffType:], uint32(pageTypeInternal))
	v := InternalView{buf: buf}
	v.SetNumKeys(0)
	v.SetParentPageID(parent)
	return v
}

func (v InternalView) NumKeys() int {
	return int(int32(binary.LittleEndian.Uint32(v.buf[internalOffNumKeys:])))
}

func (v InternalView) SetNumKeys(n int) {
	binary.LittleEndian.PutUint32(v.buf[internalOffNumKeys:], uint32(int32(n)))
}

func (v InternalView) ParentPageID() diskmanager.PageID {
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(v.buf[internalOffParent:])))
}

func (v InternalView) SetParentPageID(id diskmanager.PageID) {
	binary.LittleEndian.PutUint32(v.buf[internalOffParent:], uint32(int32(id)))
}

func (v InternalView) childOffset(i int) int {
	return internalOffChildren + i*4
}

func (v InternalView) keyOffset(i int) int {
	return internalOffKeys + i*4
}

// ChildAt returns the i'th child page id (0 <= i <= NumKeys).
func (v InternalView) ChildAt(i int) diskmanager.PageID {
	off := v.childOffset(i)
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(v.buf[off:])))
}

// SetChildAt sets the i'th child page id.
func (v InternalView) SetChildAt(i int, id diskmanager.PageID) {
	off := v.childOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:], uint32(int32(id)))
}

// KeyAt returns the i'th separator key (0 <= i < NumKeys).
func (v InternalView) KeyAt(i int) int32 {
	off := v.keyOffset(i)
	return int32(binary.LittleEndian.Uint32(v.buf[off:]))
}

// SetKeyAt sets the i'th separator key.
func (v InternalView) SetKeyAt(i int, key int32) {
	off := v.keyOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:], uint32(key))
}

// shiftKeysRight moves keys [from, numKeys) one slot right.
func (v InternalView) shiftKeysRight(from, numKeys int) {
	for i := numKeys; i > from; i-- {
		v.SetKeyAt(i, v.KeyAt(i-1))
	}
}

// shiftChildrenRight moves children [from, numChildren) one slot right.
func (v InternalView) shiftChildrenRight(from, numChildren int) {
	for i := numChildren; i > from; i-- {
		v.SetChildAt(i, v.ChildAt(i-1))
	}
}

// pageType reports the tag stored in a page's first 4 bytes.
func pageType(buf []byte) int32 {
	return readPageType(buf)
}
