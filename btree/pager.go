package btree

import (
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Pager wraps a single file opened for create/read/write, allocating pages
// at the tail and allowing random-access overwrite of pages previously
// handed out by WritePage. It is not a cache: every GetPage performs a
// read, and every write is flushed through the filesystem layer
// immediately (spec §4.2).
type Pager struct {
	fs     afero.Fs
	file   afero.File
	cursor int64

	log *zap.SugaredLogger
}

// newPager opens (creating, truncating) path through fs and returns a
// Pager positioned with an empty cursor.
func newPager(fs afero.Fs, path string, log *zap.SugaredLogger) (*Pager, error) {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, wrapErr(KindUnexpected, "open backing file", err)
	}
	return &Pager{fs: fs, file: file, log: log}, nil
}

// WritePage appends page to the tail of the file and returns the offset at
// which it was written.
func (p *Pager) WritePage(page []byte) (Offset, error) {
	if len(page) != PageSize {
		return 0, wrapErr(KindUnexpected, "page must be exactly PageSize bytes", nil)
	}

	offset := p.cursor
	if _, err := p.file.WriteAt(page, offset); err != nil {
		return 0, wrapErr(KindUnexpected, "write page at tail", err)
	}
	p.cursor += PageSize

	p.log.Debugw("wrote page", "offset", offset)
	return Offset(offset), nil
}

// WritePageAt overwrites the page at offset, which must have been
// previously returned by WritePage. It does not move the allocation
// cursor.
func (p *Pager) WritePageAt(page []byte, offset Offset) error {
	if len(page) != PageSize {
		return wrapErr(KindUnexpected, "page must be exactly PageSize bytes", nil)
	}
	if _, err := p.file.WriteAt(page, int64(offset)); err != nil {
		return wrapErr(KindUnexpected, "rewrite page", err)
	}
	p.log.Debugw("rewrote page", "offset", offset)
	return nil
}

// GetPage reads exactly PageSize bytes from offset into a fresh buffer.
func (p *Pager) GetPage(offset Offset) ([]byte, error) {
	buf := make([]byte, PageSize)
	if _, err := p.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, wrapErr(KindUnexpected, "read page", err)
	}
	return buf, nil
}

// Close closes the underlying file handle.
func (p *Pager) Close() error {
	return p.file.Close()
}
