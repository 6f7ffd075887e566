package bptree

import (
	"fmt"
	"io"
	"os"

	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

// InspectIndexFile prints a human-readable dump of an index file's
// page structure to stdout.
func InspectIndexFile(path string) error {
	return InspectIndexFileTo(os.Stdout, path)
}

// InspectIndexFileTo writes a BFS dump of path's pages to w: the meta
// page's root id, then each node's keys and, for leaves, key -> value.
// Grounded on DaemonDB's bplustree/inspect.go, opening its own disk
// manager independent of any live buffer pool on the same file.
func InspectIndexFileTo(w io.Writer, path string) error {
	disk, err := diskmanager.Open(path)
	if err != nil {
		return err
	}
	defer disk.Close()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	p("Index file: %s\n", path)

	if disk.GetNumPages() == 0 {
		pln("  (fresh database, no pages yet)")
		return nil
	}

	metaBuf := make([]byte, PageSize)
	if err := disk.ReadPage(MetaPageID, metaBuf); err != nil {
		return fmt.Errorf("read meta page: %w", err)
	}
	root := readMetaRoot(metaBuf)
	p("  Page 0 (meta): root page id = %d\n", root)

	if root == diskmanager.InvalidPageID {
		pln("  (empty tree)")
		return nil
	}

	queue := []diskmanager.PageID{root}
	level := 0
	buf := make([]byte, PageSize)

	for len(queue) > 0 {
		var next []diskmanager.PageID
		p("  Level %d:\n", level)

		for _, id := range queue {
			if err := disk.ReadPage(id, buf); err != nil {
				p("    [page %d] read error: %v\n", id, err)
				continue
			}

			typ, err := validatePageType(buf)
			if err != nil {
				p("    [page %d] %v\n", id, err)
				continue
			}

			if typ == pageTypeInternal {
				iv := newInternalView(buf)
				keys := make([]int32, iv.NumKeys())
				for i := range keys {
					keys[i] = iv.KeyAt(i)
				}
				children := make([]diskmanager.PageID, iv.NumKeys()+1)
				for i := range children {
					children[i] = iv.ChildAt(i)
					next = append(next, children[i])
				}
				p("    [page %d] INTERNAL keys=%v children=%v\n", id, keys, children)
			} else {
				lv := newLeafView(buf)
				p("    [page %d] LEAF numKeys=%d next=%d\n", id, lv.NumKeys(), lv.NextPageID())
				for i := 0; i < lv.NumKeys(); i++ {
					marker := ""
					if lv.IsTombstoneAt(i) {
						marker = " (tombstoned)"
					}
					p("      %d -> %q%s\n", lv.KeyAt(i), valueToString(lv.ValueAt(i)), marker)
				}
			}
		}

		pln("  ---")
		queue = next
		level++
	}

	return nil
}
