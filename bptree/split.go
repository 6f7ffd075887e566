package bptree

import (
	"github.com/Anshulkaocde123/bptree-kvstore/bufferpool"
	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

// splitLeaf splits a full leaf (leafFrame, currently pinned by the
// caller), inserting (newKey, newValue) at insertPos in the merged
// sorted sequence, then promotes the new right leaf's first key to the
// parent by copy-up (spec.md §4.3 "Leaf split").
func (t *Tree) splitLeaf(leafFrame *bufferpool.Frame, insertPos int, newKey int32, newValue []byte) error {
	lv := newLeafView(leafFrame.Data[:])
	oldCount := lv.NumKeys()

	type tempEntry struct {
		key   int32
		value []byte
	}
	temp := make([]tempEntry, oldCount+1)
	for i := 0; i < insertPos; i++ {
		temp[i] = tempEntry{lv.KeyAt(i), lv.ValueAt(i)}
	}
	temp[insertPos] = tempEntry{newKey, newValue}
	for i := insertPos; i < oldCount; i++ {
		temp[i+1] = tempEntry{lv.KeyAt(i), lv.ValueAt(i)}
	}

	split := (oldCount + 1) / 2

	newID, newFrame, err := t.pool.NewPage()
	if err != nil {
		return err
	}
	newLv := InitLeaf(newFrame.Data[:], lv.ParentPageID(), lv.NextPageID())
	lv.SetNextPageID(newID)

	for i := 0; i < split; i++ {
		lv.setEntry(i, temp[i].key, temp[i].value)
	}
	lv.SetNumKeys(split)

	rightCount := len(temp) - split
	for i := 0; i < rightCount; i++ {
		newLv.setEntry(i, temp[split+i].key, temp[split+i].value)
	}
	newLv.SetNumKeys(rightCount)

	separator := newLv.KeyAt(0)
	err = t.insertIntoParent(leafFrame, newFrame, separator)
	t.pool.UnpinPage(newID, true)
	return err
}

// splitInternal splits a full internal node (nodeFrame, pinned by the
// caller) that is about to receive (sepKey, rightChildID) at
// insertIdx, promoting the middle key by move-up (spec.md §4.3
// "Internal split").
func (t *Tree) splitInternal(nodeFrame *bufferpool.Frame, insertIdx int, sepKey int32, rightChildID diskmanager.PageID) error {
	iv := newInternalView(nodeFrame.Data[:])
	oldCount := iv.NumKeys()

	tempKeys := make([]int32, oldCount+1)
	for i := 0; i < insertIdx; i++ {
		tempKeys[i] = iv.KeyAt(i)
	}
	tempKeys[insertIdx] = sepKey
	for i := insertIdx; i < oldCount; i++ {
		tempKeys[i+1] = iv.KeyAt(i)
	}

	tempChildren := make([]diskmanager.PageID, oldCount+2)
	for i := 0; i <= insertIdx; i++ {
		tempChildren[i] = iv.ChildAt(i)
	}
	tempChildren[insertIdx+1] = rightChildID
	for i := insertIdx + 1; i <= oldCount; i++ {
		tempChildren[i+1] = iv.ChildAt(i)
	}

	total := len(tempKeys)
	split := total / 2
	middleKey := tempKeys[split]

	newID, newFrame, err := t.pool.NewPage()
	if err != nil {
		return err
	}
	niv := InitInternal(newFrame.Data[:], iv.ParentPageID())

	for i := 0; i < split; i++ {
		iv.SetKeyAt(i, tempKeys[i])
	}
	for i := 0; i <= split; i++ {
		iv.SetChildAt(i, tempChildren[i])
	}
	iv.SetNumKeys(split)

	rightKeyCount := total - split - 1
	for i := 0; i < rightKeyCount; i++ {
		niv.SetKeyAt(i, tempKeys[split+1+i])
	}
	rightChildCount := len(tempChildren) - (split + 1)
	for i := 0; i < rightChildCount; i++ {
		niv.SetChildAt(i, tempChildren[split+1+i])
	}
	niv.SetNumKeys(rightKeyCount)

	for i := 0; i < rightChildCount; i++ {
		cid := niv.ChildAt(i)
		cframe, err := t.pool.FetchPage(cid)
		if err != nil {
			t.pool.UnpinPage(newID, true)
			return err
		}
		setParentPageIDOf(cframe.Data[:], newID)
		t.pool.UnpinPage(cid, true)
	}

	err = t.insertIntoParent(nodeFrame, newFrame, middleKey)
	t.pool.UnpinPage(newID, true)
	return err
}

// insertIntoParent inserts the separator between leftFrame and
// rightFrame into their parent, creating a new root if leftFrame had
// none, or cascading into splitInternal if the parent is itself full.
// Grounded on DaemonDB's parent_insert.go, generalized so that root
// creation and the overflow path share one parent lookup instead of the
// teacher's two separate call sites.
func (t *Tree) insertIntoParent(leftFrame, rightFrame *bufferpool.Frame, sepKey int32) error {
	parentID := parentPageIDOf(leftFrame.Data[:])

	if parentID == diskmanager.InvalidPageID {
		newRootID, newRootFrame, err := t.pool.NewPage()
		if err != nil {
			return err
		}
		riv := InitInternal(newRootFrame.Data[:], diskmanager.InvalidPageID)
		riv.SetChildAt(0, leftFrame.PageID)
		riv.SetChildAt(1, rightFrame.PageID)
		riv.SetKeyAt(0, sepKey)
		riv.SetNumKeys(1)

		setParentPageIDOf(leftFrame.Data[:], newRootID)
		setParentPageIDOf(rightFrame.Data[:], newRootID)
		t.root = newRootID

		if err := t.saveRoot(); err != nil {
			t.pool.UnpinPage(newRootID, true)
			return err
		}
		t.pool.UnpinPage(newRootID, true)
		return nil
	}

	parentFrame, err := t.pool.FetchPage(parentID)
	if err != nil {
		return err
	}
	setParentPageIDOf(rightFrame.Data[:], parentID)

	piv := newInternalView(parentFrame.Data[:])
	n := piv.NumKeys()
	idx := 0
	for idx <= n && piv.ChildAt(idx) != leftFrame.PageID {
		idx++
	}

	if n < InternalMaxKeys {
		piv.shiftKeysRight(idx, n)
		piv.SetKeyAt(idx, sepKey)
		piv.shiftChildrenRight(idx+1, n+1)
		piv.SetChildAt(idx+1, rightFrame.PageID)
		piv.SetNumKeys(n + 1)
		t.pool.UnpinPage(parentID, true)
		return nil
	}

	err = t.splitInternal(parentFrame, idx, sepKey, rightFrame.PageID)
	t.pool.UnpinPage(parentID, true)
	return err
}

// saveRoot writes the tree's current root id through to the meta page.
func (t *Tree) saveRoot() error {
	metaFrame, err := t.pool.FetchPage(MetaPageID)
	if err != nil {
		return err
	}
	writeMetaRoot(metaFrame.Data[:], t.root)
	t.pool.UnpinPage(MetaPageID, true)
	return nil
}
