// Package bptree lays out a B+ tree directly inside the raw bytes of
// pages borrowed from a bufferpool.Pool, persists its root pointer
// through a reserved meta page, and threads leaves into an ordered
// scan chain.
//
// Grounded on DaemonDB's bplustree package (find_leaf.go, insertion.go,
// deletion.go, split_internal.go, parent_insert.go, node_codec.go,
// iterator.go), rewritten for int32 keys, fixed-width values, and
// zero-copy views over frame bytes per spec.md §9 option (b), instead
// of the teacher's decode-into-struct / encode-back-to-bytes codec.
package bptree

import (
	"encoding/binary"

	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

const (
	// PageSize is the fixed byte length of every page.
	PageSize = diskmanager.PageSize
	// ValueSize is the fixed byte width of every value slot.
	ValueSize = 128

	// MaxPagesInRAM is the default buffer pool capacity.
	MaxPagesInRAM = 64
)

// Page type tags, stored as the first 4 bytes of every non-meta page.
const (
	pageTypeInvalid  int32 = 0
	pageTypeLeaf     int32 = 1
	pageTypeInternal int32 = 2
)

// Leaf header: page_type(4) num_keys(4) parent_page_id(4) next_page_id(4).
const (
	leafHeaderSize = 16
	leafEntrySize  = 4 + ValueSize // key(4) + value(ValueSize)

	leafOffType     = 0
	leafOffNumKeys  = 4
	leafOffParent   = 8
	leafOffNext     = 12
	leafOffEntries  = leafHeaderSize
)

// Internal header: page_type(4) num_keys(4) parent_page_id(4).
const (
	internalHeaderSize = 12

	internalOffType    = 0
	internalOffNumKeys = 4
	internalOffParent  = 8
	internalOffChildren = internalHeaderSize
)

// LeafMaxEntries and InternalMaxKeys are derived from PageSize at package
// init, never hardcoded, per spec.md §9's explicit warning against
// hardcoding fanout.
var (
	LeafMaxEntries = (PageSize - leafHeaderSize) / leafEntrySize
	InternalMaxKeys = (PageSize - internalHeaderSize - 4) / 8
)

var internalOffKeys = internalOffChildren + (InternalMaxKeys+1)*4

func readPageType(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf[0:4]))
}

// MetaPageID is the reserved page holding the persisted root pointer.
const MetaPageID diskmanager.PageID = 0

// FirstRootPageID is the well-known id of the very first leaf root,
// allocated immediately after the meta page on a fresh database.
const FirstRootPageID diskmanager.PageID = 1

func readMetaRoot(buf []byte) diskmanager.PageID {
	return diskmanager.PageID(int32(binary.LittleEndian.Uint32(buf[0:4])))
}

func writeMetaRoot(buf []byte, root diskmanager.PageID) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(root)))
}
