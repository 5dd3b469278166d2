package btree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellect4all/storage-engines/common"
	"github.com/intellect4all/storage-engines/common/testutil"
)

func newTestTree(t *testing.T, branches int) *BTree {
	t.Helper()
	tree, err := New(Config{Path: "/data.btree", Branches: branches, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return tree
}

func TestSearchOnEmptyTreeReturnsKeyNotFound(t *testing.T) {
	tree := newTestTree(t, 10)
	_, err := tree.Search("anything")
	assert.True(t, errKind(err, KindKeyNotFound))
	assert.True(t, errors.Is(err, common.ErrKeyNotFound), "a caller matching only on the engine-agnostic sentinel should still recognize this")
}

func TestInsertThenSearchSingleKey(t *testing.T) {
	tree := newTestTree(t, 10)

	require.NoError(t, tree.Insert(KeyValuePair{Key: "hello", Value: "world"}))

	kv, err := tree.Search("hello")
	require.NoError(t, err)
	assert.Equal(t, Value("world"), kv.Value)
}

func TestInsertManyThenSearchAll(t *testing.T) {
	tree := newTestTree(t, 10)

	const n = 50
	for i := 0; i < n; i++ {
		key := Key(fmt.Sprintf("k%04d", i))
		require.NoError(t, tree.Insert(KeyValuePair{Key: key, Value: Value(fmt.Sprintf("v%d", i))}))
	}

	for i := 0; i < n; i++ {
		key := Key(fmt.Sprintf("k%04d", i))
		kv, err := tree.Search(key)
		require.NoError(t, err, "key %s should be found", key)
		assert.Equal(t, Value(fmt.Sprintf("v%d", i)), kv.Value)
	}
}

func TestRootSplitsWhenFull(t *testing.T) {
	// branches=2 means a leaf holds at most 3 pairs before splitting.
	tree := newTestTree(t, 2)

	for i := 0; i < 5; i++ {
		key := Key(fmt.Sprintf("k%02d", i))
		require.NoError(t, tree.Insert(KeyValuePair{Key: key, Value: "v"}))
	}

	rootOffset, err := tree.wal.getRoot()
	require.NoError(t, err)
	root, err := tree.readNode(rootOffset)
	require.NoError(t, err)
	assert.Equal(t, KindInternal, root.Kind, "root should have split into an internal node")
	assert.True(t, root.IsRoot)
	assert.Nil(t, root.ParentOffset)

	for i := 0; i < 5; i++ {
		key := Key(fmt.Sprintf("k%02d", i))
		_, err := tree.Search(key)
		assert.NoError(t, err, "key %s should still resolve after split", key)
	}
}

func TestContinuedInsertsDeepenTheTree(t *testing.T) {
	tree := newTestTree(t, 2)

	const n = 60
	for i := 0; i < n; i++ {
		key := Key(fmt.Sprintf("k%03d", i))
		require.NoError(t, tree.Insert(KeyValuePair{Key: key, Value: "v"}))
	}

	depth := 0
	offset, err := tree.wal.getRoot()
	require.NoError(t, err)
	for {
		node, err := tree.readNode(offset)
		require.NoError(t, err)
		if node.Kind == KindLeaf {
			break
		}
		offset = node.Children[0]
		depth++
		require.Less(t, depth, 20, "descent should terminate in a leaf well before this many levels")
	}
	assert.GreaterOrEqual(t, depth, 2, "enough inserts at branches=2 should deepen past a single internal level")

	for i := 0; i < n; i++ {
		key := Key(fmt.Sprintf("k%03d", i))
		_, err := tree.Search(key)
		assert.NoError(t, err, "key %s should resolve at depth %d", key, depth)
	}
}

func TestInsertRejectsKeyOverflow(t *testing.T) {
	tree := newTestTree(t, 10)
	longKey := Key(strings.Repeat("x", KeySize+1))
	err := tree.Insert(KeyValuePair{Key: longKey, Value: "v"})
	assert.True(t, errKind(err, KindKeyOverflow))
}

func TestInsertRejectsValueOverflow(t *testing.T) {
	tree := newTestTree(t, 10)
	longValue := Value(strings.Repeat("x", ValueSize+1))
	err := tree.Insert(KeyValuePair{Key: "k", Value: longValue})
	assert.True(t, errKind(err, KindValueOverflow))
}

func TestSearchMissingKeyAmongPresentOnes(t *testing.T) {
	tree := newTestTree(t, 3)
	for _, k := range []Key{"a", "c", "e", "g"} {
		require.NoError(t, tree.Insert(KeyValuePair{Key: k, Value: "v"}))
	}

	_, err := tree.Search("d")
	assert.True(t, errKind(err, KindKeyNotFound))
}

func TestNewRejectsOutOfRangeBranches(t *testing.T) {
	_, err := New(Config{Path: "/data.btree", Branches: 0, Fs: afero.NewMemMapFs()})
	assert.True(t, errKind(err, KindUnexpected))

	_, err = New(Config{Path: "/data.btree", Branches: 201, Fs: afero.NewMemMapFs()})
	assert.True(t, errKind(err, KindUnexpected))
}

func TestStatsTrackInsertedKeys(t *testing.T) {
	tree := newTestTree(t, 10)
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Insert(KeyValuePair{Key: Key(fmt.Sprintf("k%d", i)), Value: "v"}))
	}
	stats := tree.Stats()
	assert.Equal(t, int64(10), stats.NumKeys)
	assert.Greater(t, stats.TotalDiskSize, int64(0))
}

func TestCloseThenOperateReturnsClosedError(t *testing.T) {
	tree := newTestTree(t, 10)
	require.NoError(t, tree.Close())

	err := tree.Insert(KeyValuePair{Key: "k", Value: "v"})
	assert.True(t, errKind(err, KindUnexpected))
}

func TestCompactIsNoop(t *testing.T) {
	tree := newTestTree(t, 10)
	assert.NoError(t, tree.Compact())
}

func TestAgainstRealFilesystem(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, "data.btree")

	tree, err := New(Config{Path: path, Branches: 3})
	require.NoError(t, err)
	defer tree.Close()

	for i := 0; i < 20; i++ {
		key := Key(fmt.Sprintf("k%02d", i))
		require.NoError(t, tree.Insert(KeyValuePair{Key: key, Value: "v"}))
	}
	require.NoError(t, tree.Sync())

	for i := 0; i < 20; i++ {
		key := Key(fmt.Sprintf("k%02d", i))
		_, err := tree.Search(key)
		assert.NoError(t, err)
	}

	walPath := filepath.Join(dir, "data.btree.wal")
	assert.FileExists(t, walPath)
}
