package bptree

import (
	"encoding/binary"

	"github.com/Anshulkaocde123/bptree-kvstore/bufferpool"
	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

// Tree is a disk-resident B+ tree index over int32 keys and fixed-width
// values, built on top of a bufferpool.Pool. It is the sole caller of
// the pool, which is in turn the sole caller of the disk manager —
// spec.md §2's control-flow diagram.
//
// Grounded on DaemonDB's bplustree.BPlusTree, with insertIntoParent and
// the leaf/internal split pair rewritten around zero-copy page views
// and a page-0 meta page instead of the teacher's in-memory root field
// with no persisted backing.
type Tree struct {
	pool *bufferpool.Pool
	root diskmanager.PageID
}

// KV is one (key, value) pair returned by Scan.
type KV struct {
	Key   int32
	Value string
}

// Open constructs a Tree over pool. If the backing file already has
// pages, the meta page is read to restore the cached root id;
// otherwise the tree starts empty.
func Open(pool *bufferpool.Pool) (*Tree, error) {
	t := &Tree{pool: pool, root: diskmanager.InvalidPageID}

	if pool.NumPages() == 0 {
		return t, nil
	}

	frame, err := pool.FetchPage(MetaPageID)
	if err != nil {
		return nil, err
	}
	t.root = readMetaRoot(frame.Data[:])
	pool.UnpinPage(MetaPageID, false)
	return t, nil
}

// Close flushes every dirty frame, including the meta page if it is
// still resident and dirty, so that reopening the same file rebuilds a
// working index. Spec.md §4.3 calls this out as "on destruction, flush
// the meta page"; flushing the whole pool is a superset that also
// covers any node still resident from a split the caller never forced
// an eviction on.
func (t *Tree) Close() error {
	return t.pool.FlushAllPages()
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree) IsEmpty() bool {
	return t.root == diskmanager.InvalidPageID
}

// Search returns the value stored for key, or ("", false) if key is
// absent or tombstoned.
func (t *Tree) Search(key int32) (string, bool) {
	if t.root == diskmanager.InvalidPageID {
		return "", false
	}

	frame, err := t.findLeaf(key)
	if err != nil || frame == nil {
		return "", false
	}
	defer t.pool.UnpinPage(frame.PageID, false)

	lv := newLeafView(frame.Data[:])
	i := leafLowerBound(lv, key)
	if i >= lv.NumKeys() || lv.KeyAt(i) != key {
		return "", false
	}
	if lv.IsTombstoneAt(i) {
		return "", false
	}
	return valueToString(lv.ValueAt(i)), true
}

// Insert stores value under key, overwriting any existing (even
// tombstoned) entry for key, splitting nodes as needed. Returns false
// when a page cannot be fetched or allocated: no evictable frame, an
// I/O error, or a corrupt page on the descent.
func (t *Tree) Insert(key int32, value string) bool {
	valBytes := []byte(value)

	if t.root == diskmanager.InvalidPageID {
		return t.insertFirst(key, valBytes)
	}

	leafFrame, err := t.findLeaf(key)
	if err != nil || leafFrame == nil {
		return false
	}

	lv := newLeafView(leafFrame.Data[:])
	n := lv.NumKeys()
	i := leafLowerBound(lv, key)

	if i < n && lv.KeyAt(i) == key {
		lv.setEntry(i, key, valBytes)
		t.pool.UnpinPage(leafFrame.PageID, true)
		return true
	}

	if n < LeafMaxEntries {
		lv.shiftEntriesRight(i, n)
		lv.setEntry(i, key, valBytes)
		lv.SetNumKeys(n + 1)
		t.pool.UnpinPage(leafFrame.PageID, true)
		return true
	}

	err = t.splitLeaf(leafFrame, i, key, valBytes)
	t.pool.UnpinPage(leafFrame.PageID, true)
	return err == nil
}

func (t *Tree) insertFirst(key int32, value []byte) bool {
	metaID, metaFrame, err := t.pool.NewPage()
	if err != nil {
		return false
	}

	leafID, leafFrame, err := t.pool.NewPage()
	if err != nil {
		t.pool.UnpinPage(metaID, false)
		return false
	}

	lv := InitLeaf(leafFrame.Data[:], diskmanager.InvalidPageID, diskmanager.InvalidPageID)
	lv.setEntry(0, key, value)
	lv.SetNumKeys(1)

	t.root = leafID
	writeMetaRoot(metaFrame.Data[:], t.root)

	t.pool.UnpinPage(metaID, true)
	t.pool.UnpinPage(leafID, true)
	return true
}

// Remove tombstones the entry for key. Returns true only if a live
// entry was found and tombstoned; a second Remove of the same key is a
// false no-op (spec.md §8 property 8).
func (t *Tree) Remove(key int32) bool {
	if t.root == diskmanager.InvalidPageID {
		return false
	}

	frame, err := t.findLeaf(key)
	if err != nil || frame == nil {
		return false
	}

	lv := newLeafView(frame.Data[:])
	i := leafLowerBound(lv, key)
	if i >= lv.NumKeys() || lv.KeyAt(i) != key || lv.IsTombstoneAt(i) {
		t.pool.UnpinPage(frame.PageID, false)
		return false
	}

	lv.TombstoneAt(i)
	t.pool.UnpinPage(frame.PageID, true)
	return true
}

// Scan returns every live entry with start <= key <= end, in ascending
// key order, by walking the leaf chain from the leaf that would
// contain start.
func (t *Tree) Scan(start, end int32) []KV {
	var results []KV
	if t.root == diskmanager.InvalidPageID || start > end {
		return results
	}

	frame, err := t.findLeaf(start)
	if err != nil || frame == nil {
		return results
	}

	lv := newLeafView(frame.Data[:])
	i := leafLowerBound(lv, start)

	for {
		n := lv.NumKeys()
		for ; i < n; i++ {
			k := lv.KeyAt(i)
			if k > end {
				t.pool.UnpinPage(frame.PageID, false)
				return results
			}
			if k >= start && !lv.IsTombstoneAt(i) {
				results = append(results, KV{Key: k, Value: valueToString(lv.ValueAt(i))})
			}
		}

		nextID := lv.NextPageID()
		t.pool.UnpinPage(frame.PageID, false)
		if nextID == diskmanager.InvalidPageID {
			return results
		}

		frame, err = t.pool.FetchPage(nextID)
		if err != nil {
			return results
		}
		lv = newLeafView(frame.Data[:])
		i = 0
	}
}

// findLeaf descends from the root to the leaf that would contain key,
// unpinning every internal node it passes through and returning the
// leaf still pinned. The caller must unpin it.
func (t *Tree) findLeaf(key int32) (*bufferpool.Frame, error) {
	curID := t.root
	frame, err := t.pool.FetchPage(curID)
	if err != nil {
		return nil, err
	}

	for {
		typ, err := validatePageType(frame.Data[:])
		if err != nil {
			t.pool.UnpinPage(frame.PageID, false)
			return nil, err
		}
		if typ == pageTypeLeaf {
			return frame, nil
		}

		iv := newInternalView(frame.Data[:])
		i := internalChildIndex(iv, key)
		childID := iv.ChildAt(i)
		t.pool.UnpinPage(frame.PageID, false)

		frame, err = t.pool.FetchPage(childID)
		if err != nil {
			return nil, err
		}
	}
}

// internalChildIndex returns the count of keys <= key in v — the
// position of the child subtree to descend into (spec.md §4.3 Search
// step 2).
func internalChildIndex(v InternalView, key int32) int {
	lo, hi := 0, v.NumKeys()
	for lo < hi {
		mid := (lo + hi) / 2
		if v.KeyAt(mid) <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// leafLowerBound returns the index of the first entry with key >= key,
// or NumKeys() if none.
func leafLowerBound(v LeafView, key int32) int {
	lo, hi := 0, v.NumKeys()
	for lo < hi {
		mid := (lo + hi) / 2
		if v.KeyAt(mid) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func valueToString(b []byte) string {
	n := len(b)
	for i, c := range b {
		if c == 0 {
			n = i
			break
		}
	}
	return string(b[:n])
}

func parentPageIDOf(buf []byte) diskmanager.PageID {
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(buf[8:])))
}

func setParentPageIDOf(buf []byte, id diskmanager.PageID) {
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(id)))
}
