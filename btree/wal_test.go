package btree

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWALSetRootThenGetRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := newWAL(fs, "/data/data.btree", zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, w.setRoot(Offset(4096)))
	got, err := w.getRoot()
	require.NoError(t, err)
	assert.Equal(t, Offset(4096), got)

	require.NoError(t, w.setRoot(Offset(8192)))
	got, err = w.getRoot()
	require.NoError(t, err)
	assert.Equal(t, Offset(8192), got)
}

func TestWALPathIsSidecarNextToDataFile(t *testing.T) {
	assert.Equal(t, "/data/data.btree.wal", walPathFor("/data/data.btree"))
}

func TestNewWALCreatesFileIfAbsent(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/some/dir/data.btree"
	_, err := newWAL(fs, path, zap.NewNop().Sugar())
	require.NoError(t, err)

	exists, err := afero.Exists(fs, filepath.Join("/some/dir", "data.btree.wal"))
	require.NoError(t, err)
	assert.True(t, exists)
}
