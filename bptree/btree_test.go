package bptree

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Anshulkaocde123/bptree-kvstore/bufferpool"
	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

func openTestTree(t *testing.T, poolSize int) (*Tree, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.idx")
	disk, err := diskmanager.Open(path)
	require.NoError(t, err)
	pool := bufferpool.New(disk, poolSize)
	tree, err := Open(pool)
	require.NoError(t, err)
	return tree, func() { disk.Close() }
}

func TestEmptyTreeSearchAndScan(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	require.True(t, tree.IsEmpty())
	_, ok := tree.Search(5)
	require.False(t, ok)
	require.Empty(t, tree.Scan(0, 100))
}

func TestInsertSearchBasic(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	require.True(t, tree.Insert(1, "value_1"))
	require.False(t, tree.IsEmpty())

	val, ok := tree.Search(1)
	require.True(t, ok)
	require.Equal(t, "value_1", val)

	_, ok = tree.Search(2)
	require.False(t, ok)
}

func TestInsertUpdateLastWriteWins(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	require.True(t, tree.Insert(7, "a"))
	require.True(t, tree.Insert(7, "b"))

	val, ok := tree.Search(7)
	require.True(t, ok)
	require.Equal(t, "b", val)

	results := tree.Scan(0, 10)
	require.Len(t, results, 1)
	require.Equal(t, KV{Key: 7, Value: "b"}, results[0])
}

func TestRemoveThenSearchAndScan(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	for i := int32(1); i <= 10; i++ {
		require.True(t, tree.Insert(i, fmt.Sprintf("value_%d", i)))
	}

	require.True(t, tree.Remove(5))

	_, ok := tree.Search(5)
	require.False(t, ok)

	v4, ok := tree.Search(4)
	require.True(t, ok)
	require.Equal(t, "value_4", v4)

	v6, ok := tree.Search(6)
	require.True(t, ok)
	require.Equal(t, "value_6", v6)

	results := tree.Scan(1, 10)
	require.Len(t, results, 9)
	for _, kv := range results {
		require.NotEqual(t, int32(5), kv.Key)
	}

	require.False(t, tree.Remove(999))
}

func TestRemoveIdempotent(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	require.True(t, tree.Insert(3, "x"))
	require.True(t, tree.Remove(3))
	require.False(t, tree.Remove(3))
}

func TestRemoveThenReinsert(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	require.True(t, tree.Insert(42, "old"))
	require.True(t, tree.Remove(42))
	require.True(t, tree.Insert(42, "new"))

	val, ok := tree.Search(42)
	require.True(t, ok)
	require.Equal(t, "new", val)
}

func TestScanRangeBoundaries(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	for i := int32(0); i < 300; i++ {
		require.True(t, tree.Insert(i, fmt.Sprintf("v_%d", i)))
	}

	results := tree.Scan(100, 200)
	require.Len(t, results, 101)
	for idx, kv := range results {
		require.Equal(t, int32(100+idx), kv.Key)
		require.Equal(t, fmt.Sprintf("v_%d", 100+idx), kv.Value)
	}

	require.Empty(t, tree.Scan(200, 100))

	single := tree.Scan(150, 150)
	require.Len(t, single, 1)
	require.Equal(t, int32(150), single[0].Key)
}

func TestManyInsertsTriggerSplitsAndPreserveOrder(t *testing.T) {
	tree, cleanup := openTestTree(t, MaxPagesInRAM)
	defer cleanup()

	const n = 2000
	perm := rand.New(rand.NewSource(1)).Perm(n)
	for _, i := range perm {
		require.True(t, tree.Insert(int32(i), fmt.Sprintf("v_%d", i)))
	}

	for i := 0; i < n; i++ {
		val, ok := tree.Search(int32(i))
		require.True(t, ok, "missing key %d", i)
		require.Equal(t, fmt.Sprintf("v_%d", i), val)
	}

	_, ok := tree.Search(-1)
	require.False(t, ok)
	_, ok = tree.Search(999999)
	require.False(t, ok)

	results := tree.Scan(0, int32(n-1))
	require.Len(t, results, n)
	for i, kv := range results {
		require.Equal(t, int32(i), kv.Key)
	}
}

func TestCloseAndReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.idx")

	disk, err := diskmanager.Open(path)
	require.NoError(t, err)
	pool := bufferpool.New(disk, MaxPagesInRAM)
	tree, err := Open(pool)
	require.NoError(t, err)

	for i := int32(0); i < 500; i++ {
		require.True(t, tree.Insert(i, fmt.Sprintf("v_%d", i)))
	}
	require.NoError(t, tree.Close())
	require.NoError(t, disk.Close())

	disk2, err := diskmanager.Open(path)
	require.NoError(t, err)
	defer disk2.Close()
	pool2 := bufferpool.New(disk2, MaxPagesInRAM)
	tree2, err := Open(pool2)
	require.NoError(t, err)

	for i := int32(0); i < 500; i++ {
		val, ok := tree2.Search(i)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("v_%d", i), val)
	}

	results := tree2.Scan(0, 499)
	require.Len(t, results, 500)
}

func TestSmallPoolForcesEvictionDuringBuild(t *testing.T) {
	// Small relative to MaxPagesInRAM, enough to cover this implementation's
	// peak simultaneous pin count (leaf/internal being split, new sibling,
	// parent, and one transiently-pinned child while rewriting parent
	// pointers during a cascading internal split).
	tree, cleanup := openTestTree(t, 8)
	defer cleanup()

	const n = 500
	for i := int32(0); i < n; i++ {
		require.True(t, tree.Insert(i, fmt.Sprintf("v_%d", i)))
	}

	for i := int32(0); i < n; i++ {
		val, ok := tree.Search(i)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("v_%d", i), val)
	}
}
