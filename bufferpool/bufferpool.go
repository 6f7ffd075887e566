// Package bufferpool caches a bounded number of disk pages in memory,
// pinning them while in use and evicting unpinned pages under an LRU
// policy, writing a dirty page back before its frame is reused.
//
// Grounded on DaemonDB's bplustree/buffer_pool.go, restructured from a
// pool of decoded nodes into a pool of raw-byte Frames addressed by
// frame index, per the spec's Frame/pin/LRU data model. The LRU list
// itself follows alexhholmes-fredb's pagecache.go, which keeps a
// container/list of entries with "front=MRU, back=LRU".
package bufferpool

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

// ErrNoFrame is returned when every resident page is pinned and no
// victim is available for eviction.
var ErrNoFrame = errors.New("bufferpool: no evictable frame")

// Frame is a buffer-pool slot. PageID == diskmanager.InvalidPageID marks
// an empty slot.
type Frame struct {
	PageID   diskmanager.PageID
	Data     [diskmanager.PageSize]byte
	Dirty    bool
	PinCount int
}

// Pool is a fixed-capacity set of frames backed by a disk manager.
type Pool struct {
	disk      *diskmanager.Manager
	frames    []*Frame
	pageTable map[diskmanager.PageID]int
	freeList  []int
	lruList   *list.List
	lruElems  map[int]*list.Element
}

// New creates a pool of size frames over disk.
func New(disk *diskmanager.Manager, size int) *Pool {
	frames := make([]*Frame, size)
	freeList := make([]int, size)
	for i := range frames {
		frames[i] = &Frame{PageID: diskmanager.InvalidPageID}
		freeList[i] = i
	}
	return &Pool{
		disk:      disk,
		frames:    frames,
		pageTable: make(map[diskmanager.PageID]int, size),
		freeList:  freeList,
		lruList:   list.New(),
		lruElems:  make(map[int]*list.Element, size),
	}
}

// Capacity returns the fixed number of frames.
func (p *Pool) Capacity() int {
	return len(p.frames)
}

// NumPages forwards to the disk manager's page count, letting callers
// distinguish a fresh database from one that already has pages without
// reaching past the pool for the disk manager themselves.
func (p *Pool) NumPages() int64 {
	return p.disk.GetNumPages()
}

// Size returns the number of currently resident pages.
func (p *Pool) Size() int {
	return len(p.pageTable)
}

// FetchPage pins and returns the frame holding id, loading it from disk
// if not already resident.
func (p *Pool) FetchPage(id diskmanager.PageID) (*Frame, error) {
	if idx, ok := p.pageTable[id]; ok {
		frame := p.frames[idx]
		frame.PinCount++
		p.removeFromLRU(idx)
		return frame, nil
	}

	idx, err := p.victim()
	if err != nil {
		return nil, err
	}

	frame := p.frames[idx]
	if err := p.evict(idx, frame); err != nil {
		return nil, err
	}

	if err := p.disk.ReadPage(id, frame.Data[:]); err != nil {
		return nil, fmt.Errorf("bufferpool: fetch page %d: %w", id, err)
	}

	frame.PageID = id
	frame.PinCount = 1
	frame.Dirty = false
	p.pageTable[id] = idx
	return frame, nil
}

// UnpinPage decrements the pin count for id and ORs markDirty into its
// dirty flag. Returns false if id is not resident or already unpinned.
func (p *Pool) UnpinPage(id diskmanager.PageID, markDirty bool) bool {
	idx, ok := p.pageTable[id]
	if !ok {
		return false
	}
	frame := p.frames[idx]
	if frame.PinCount <= 0 {
		return false
	}

	frame.PinCount--
	if markDirty {
		frame.Dirty = true
	}
	if frame.PinCount == 0 {
		p.pushLRU(idx)
	}
	return true
}

// FlushPage writes the frame's bytes for id to disk and clears its dirty
// flag, regardless of whether it was dirty.
func (p *Pool) FlushPage(id diskmanager.PageID) error {
	idx, ok := p.pageTable[id]
	if !ok {
		return fmt.Errorf("bufferpool: flush page %d: not resident", id)
	}
	frame := p.frames[idx]
	if err := p.disk.WritePage(id, frame.Data[:]); err != nil {
		return fmt.Errorf("bufferpool: flush page %d: %w", id, err)
	}
	frame.Dirty = false
	return nil
}

// NewPage allocates a fresh page on disk, binds it to a pinned frame
// with zeroed contents, and returns its id and frame.
func (p *Pool) NewPage() (diskmanager.PageID, *Frame, error) {
	idx, err := p.victim()
	if err != nil {
		return diskmanager.InvalidPageID, nil, err
	}

	frame := p.frames[idx]
	if err := p.evict(idx, frame); err != nil {
		return diskmanager.InvalidPageID, nil, err
	}

	id := p.disk.AllocatePage()
	for i := range frame.Data {
		frame.Data[i] = 0
	}
	frame.PageID = id
	frame.PinCount = 1
	frame.Dirty = false
	p.pageTable[id] = idx
	return id, frame, nil
}

// DeletePage removes id from the pool, returning its frame to the free
// list. Succeeds as a no-op if id is not resident; fails if id is
// resident and pinned.
func (p *Pool) DeletePage(id diskmanager.PageID) error {
	idx, ok := p.pageTable[id]
	if !ok {
		return nil
	}
	frame := p.frames[idx]
	if frame.PinCount > 0 {
		return fmt.Errorf("bufferpool: delete page %d: still pinned", id)
	}

	p.removeFromLRU(idx)
	delete(p.pageTable, id)
	frame.PageID = diskmanager.InvalidPageID
	frame.Dirty = false
	p.freeList = append(p.freeList, idx)
	return nil
}

// FlushAllPages writes back every resident dirty frame.
func (p *Pool) FlushAllPages() error {
	for id, idx := range p.pageTable {
		frame := p.frames[idx]
		if !frame.Dirty {
			continue
		}
		if err := p.disk.WritePage(id, frame.Data[:]); err != nil {
			return fmt.Errorf("bufferpool: flush all, page %d: %w", id, err)
		}
		frame.Dirty = false
	}
	return nil
}

// victim selects a frame index for reuse: the free list first, then the
// LRU tail. It does not yet touch disk or the page table.
func (p *Pool) victim() (int, error) {
	if len(p.freeList) > 0 {
		idx := p.freeList[0]
		p.freeList = p.freeList[1:]
		return idx, nil
	}

	elem := p.lruList.Back()
	if elem == nil {
		return 0, ErrNoFrame
	}
	idx := elem.Value.(int)
	p.lruList.Remove(elem)
	delete(p.lruElems, idx)
	return idx, nil
}

// evict writes back the frame's current contents if it holds a dirty
// resident page, then erases its old mapping.
func (p *Pool) evict(idx int, frame *Frame) error {
	if frame.PageID == diskmanager.InvalidPageID {
		return nil
	}
	if frame.Dirty {
		if err := p.disk.WritePage(frame.PageID, frame.Data[:]); err != nil {
			return fmt.Errorf("bufferpool: evict page %d: %w", frame.PageID, err)
		}
	}
	delete(p.pageTable, frame.PageID)
	return nil
}

func (p *Pool) pushLRU(idx int) {
	p.lruElems[idx] = p.lruList.PushFront(idx)
}

func (p *Pool) removeFromLRU(idx int) {
	if elem, ok := p.lruElems[idx]; ok {
		p.lruList.Remove(elem)
		delete(p.lruElems, idx)
	}
}
