package btree

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// WAL is a durable sidecar holding exactly one logical value: the current
// root page offset. It lives next to the backing data file; when the data
// file's parent directory can't be resolved, it falls back to /tmp
// (spec §4.3/§6).
type WAL struct {
	fs   afero.Fs
	path string
	log  *zap.SugaredLogger
}

// walPathFor derives the sidecar path for a backing data file path, placed
// in its parent directory. Actual fallback to a tmp directory happens in
// newWAL, if that parent turns out not to be usable.
func walPathFor(dataPath string) string {
	dir := filepath.Dir(dataPath)
	return filepath.Join(dir, filepath.Base(dataPath)+".wal")
}

// newWAL opens (creating if absent) the sidecar for dataPath.
func newWAL(fs afero.Fs, dataPath string, log *zap.SugaredLogger) (*WAL, error) {
	path := walPathFor(dataPath)
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warnw("falling back to tmp dir for WAL", "path", path, "error", err)
		path = filepath.Join(os.TempDir(), filepath.Base(dataPath)+".wal")
	}

	w := &WAL{fs: fs, path: path, log: log}
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		f, err := fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, wrapErr(KindUnexpected, "create WAL file", err)
		}
		if err := f.Close(); err != nil {
			return nil, wrapErr(KindUnexpected, "close new WAL file", err)
		}
	}
	return w, nil
}

// setRoot durably records offset as the current root. It returns only
// after the write is flushed, so any subsequent getRoot observes it
// (spec §4.3's single-value get/set contract and §5's linearization
// point).
func (w *WAL) setRoot(offset Offset) error {
	f, err := w.fs.OpenFile(w.path, os.O_RDWR, 0644)
	if err != nil {
		return wrapErr(KindUnexpected, "open WAL for write", err)
	}
	defer f.Close()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(offset))
	if _, err := f.WriteAt(buf[:], 0); err != nil {
		return wrapErr(KindUnexpected, "write WAL root", err)
	}
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return wrapErr(KindUnexpected, "sync WAL root", err)
		}
	}

	w.log.Debugw("committed root offset", "offset", offset)
	return nil
}

// getRoot reads the last offset recorded by setRoot.
func (w *WAL) getRoot() (Offset, error) {
	f, err := w.fs.OpenFile(w.path, os.O_RDONLY, 0644)
	if err != nil {
		return 0, wrapErr(KindUnexpected, "open WAL for read", err)
	}
	defer f.Close()

	var buf [8]byte
	n, err := f.ReadAt(buf[:], 0)
	if err != nil && n < 8 {
		return 0, wrapErr(KindUnexpected, "read WAL root", err)
	}

	offset, err := decodeOffset(buf[:])
	if err != nil {
		return 0, err
	}
	return offset, nil
}

// Close releases any resources held by the WAL. The sidecar has no
// persistent file handle between calls, so this is a no-op kept for
// symmetry with Pager.Close.
func (w *WAL) Close() error {
	return nil
}
