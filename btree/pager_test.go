package btree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPager(t *testing.T) *Pager {
	t.Helper()
	fs := afero.NewMemMapFs()
	p, err := newPager(fs, "/data.btree", zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func pageOf(b byte) []byte {
	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

func TestWritePageAppendsAtTail(t *testing.T) {
	p := newTestPager(t)

	off1, err := p.WritePage(pageOf(1))
	require.NoError(t, err)
	assert.Equal(t, Offset(0), off1)

	off2, err := p.WritePage(pageOf(2))
	require.NoError(t, err)
	assert.Equal(t, Offset(PageSize), off2)
}

func TestWritePageRejectsWrongSize(t *testing.T) {
	p := newTestPager(t)
	_, err := p.WritePage(make([]byte, PageSize-1))
	assert.True(t, errKind(err, KindUnexpected))
}

func TestGetPageReturnsWhatWasWritten(t *testing.T) {
	p := newTestPager(t)

	off, err := p.WritePage(pageOf(7))
	require.NoError(t, err)

	got, err := p.GetPage(off)
	require.NoError(t, err)
	assert.Equal(t, pageOf(7), got)
}

func TestWritePageAtOverwritesWithoutMovingCursor(t *testing.T) {
	p := newTestPager(t)

	off, err := p.WritePage(pageOf(1))
	require.NoError(t, err)

	require.NoError(t, p.WritePageAt(pageOf(9), off))

	got, err := p.GetPage(off)
	require.NoError(t, err)
	assert.Equal(t, pageOf(9), got)

	// Cursor is unaffected: the next WritePage still appends past the one
	// page we've written so far.
	next, err := p.WritePage(pageOf(2))
	require.NoError(t, err)
	assert.Equal(t, Offset(PageSize), next)
}
