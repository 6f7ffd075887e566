package bufferpool

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.idx")
	disk, err := diskmanager.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })
	return New(disk, size)
}

func TestNewPageThenFetchRoundTrip(t *testing.T) {
	pool := newTestPool(t, 4)

	id, frame, err := pool.NewPage()
	require.NoError(t, err)
	frame.Data[0] = 0x42
	require.True(t, pool.UnpinPage(id, true))

	fetched, err := pool.FetchPage(id)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), fetched.Data[0])
	require.True(t, pool.UnpinPage(id, false))
}

func TestFetchIncrementsPinAndEvictionRespectsIt(t *testing.T) {
	pool := newTestPool(t, 2)

	id1, _, err := pool.NewPage()
	require.NoError(t, err)
	require.True(t, pool.UnpinPage(id1, false))

	id2, frame2, err := pool.NewPage()
	require.NoError(t, err)
	// Keep id2 pinned.

	// Pool is at capacity (2 frames used); id1 is unpinned so it's the
	// only victim. Allocating a third page must evict id1, not id2.
	id3, _, err := pool.NewPage()
	require.NoError(t, err)

	require.Equal(t, 2, pool.Size())
	fetched, err := pool.FetchPage(id2)
	require.NoError(t, err)
	require.Same(t, frame2, fetched)
	require.Equal(t, 2, fetched.PinCount)
	require.True(t, pool.UnpinPage(id2, false))

	_ = id3
}

func TestNoEvictableFrameWhenAllPinned(t *testing.T) {
	pool := newTestPool(t, 2)

	_, _, err := pool.NewPage()
	require.NoError(t, err)
	_, _, err = pool.NewPage()
	require.NoError(t, err)

	_, _, err = pool.NewPage()
	require.ErrorIs(t, err, ErrNoFrame)
}

func TestUnpinMovesFrameToLRUAndFreesForEviction(t *testing.T) {
	pool := newTestPool(t, 1)

	id1, frame1, err := pool.NewPage()
	require.NoError(t, err)
	frame1.Data[0] = 9
	require.True(t, pool.UnpinPage(id1, true))

	id2, _, err := pool.NewPage()
	require.NoError(t, err)
	require.True(t, pool.UnpinPage(id2, false))

	require.Equal(t, 1, pool.Size())

	// id1 was evicted (dirty, so written back) to make room for id2;
	// fetching it again must re-read it from disk intact.
	refetched, err := pool.FetchPage(id1)
	require.NoError(t, err)
	require.Equal(t, byte(9), refetched.Data[0])
	require.True(t, pool.UnpinPage(id1, false))
}

func TestDeletePageFailsWhilePinned(t *testing.T) {
	pool := newTestPool(t, 2)

	id, _, err := pool.NewPage()
	require.NoError(t, err)

	err = pool.DeletePage(id)
	require.Error(t, err)

	require.True(t, pool.UnpinPage(id, false))
	require.NoError(t, pool.DeletePage(id))
	require.Equal(t, 0, pool.Size())
}

func TestDeletePageOnAbsentPageSucceeds(t *testing.T) {
	pool := newTestPool(t, 2)
	require.NoError(t, pool.DeletePage(diskmanager.PageID(999)))
}

func TestFlushAllPagesClearsDirtyFlags(t *testing.T) {
	pool := newTestPool(t, 3)

	id, frame, err := pool.NewPage()
	require.NoError(t, err)
	frame.Data[10] = 7
	frame.Dirty = true
	require.True(t, pool.UnpinPage(id, true))

	require.NoError(t, pool.FlushAllPages())

	fetched, err := pool.FetchPage(id)
	require.NoError(t, err)
	require.False(t, fetched.Dirty)
	require.Equal(t, byte(7), fetched.Data[10])
}
