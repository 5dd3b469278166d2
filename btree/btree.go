package btree

import (
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/intellect4all/storage-engines/common"
)

// Config configures a BTree instance.
type Config struct {
	// Path is the backing data file. Its WAL sidecar is derived from this
	// path (spec §4.3).
	Path string

	// Branches bounds every node to at most 2*Branches-1 routing entries
	// before a split is triggered (spec §4.4). Must be in [1, 200].
	Branches int

	// Fs is the filesystem the pager and WAL operate through. Nil selects
	// the real OS filesystem; tests substitute afero.NewMemMapFs().
	Fs afero.Fs

	// Logger receives structured diagnostics from the pager, WAL, and tree
	// driver. Nil selects a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns a Config for path with a conservative branching
// factor, matching the teacher's DefaultConfig convention.
func DefaultConfig(path string) Config {
	return Config{Path: path, Branches: 128}
}

// BTree is a persistent, disk-backed B-tree keyed by fixed-width 10-byte
// keys. It supports only Insert and Search; deletion, range scans, and
// concurrent writers are out of scope (spec §1 Non-goals).
type BTree struct {
	config Config

	pager *Pager
	wal   *WAL

	mu     sync.Mutex
	closed atomic.Bool
	log    *zap.SugaredLogger

	numKeys    atomic.Int64
	writeCount atomic.Int64
	readCount  atomic.Int64
	userBytes  atomic.Int64
}

// New opens (creating if absent, truncating if present) the B-tree backed
// by config.Path, and writes an initial empty root leaf. config.Branches
// must be in [1, 200]; any other value fails construction.
func New(config Config) (*BTree, error) {
	if config.Branches <= 0 || config.Branches > 200 {
		return nil, wrapErr(KindUnexpected, "branches must be in [1, 200]", nil)
	}

	fs := config.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Sugar()

	pager, err := newPager(fs, config.Path, sugar)
	if err != nil {
		return nil, err
	}
	wal, err := newWAL(fs, config.Path, sugar)
	if err != nil {
		return nil, err
	}

	root := &Node{Kind: KindLeaf, IsRoot: true}
	rootBuf, err := encodePage(root)
	if err != nil {
		return nil, err
	}
	rootOffset, err := pager.WritePage(rootBuf)
	if err != nil {
		return nil, err
	}
	if err := wal.setRoot(rootOffset); err != nil {
		return nil, err
	}

	t := &BTree{config: config, pager: pager, wal: wal, log: sugar}
	t.log.Infow("opened btree", "path", config.Path, "branches", config.Branches)
	return t, nil
}

// readNode loads and decodes the page at offset.
func (t *BTree) readNode(offset Offset) (*Node, error) {
	buf, err := t.pager.GetPage(offset)
	if err != nil {
		return nil, err
	}
	t.readCount.Add(1)
	n, err := decodePage(buf)
	if err != nil {
		return nil, err
	}
	if n.Kind == KindUnexpectedNode {
		return nil, wrapErr(KindUnexpected, "decoded a page of unexpected type", nil)
	}
	return n, nil
}

// writeNewNode encodes n and appends it to the pager, returning its fresh
// offset.
func (t *BTree) writeNewNode(n *Node) (Offset, error) {
	buf, err := encodePage(n)
	if err != nil {
		return 0, err
	}
	offset, err := t.pager.WritePage(buf)
	if err != nil {
		return 0, err
	}
	t.writeCount.Add(1)
	return offset, nil
}

// rewriteNode encodes n and overwrites the page previously allocated at
// offset.
func (t *BTree) rewriteNode(n *Node, offset Offset) error {
	buf, err := encodePage(n)
	if err != nil {
		return err
	}
	if err := t.pager.WritePageAt(buf, offset); err != nil {
		return err
	}
	t.writeCount.Add(1)
	return nil
}

// Insert adds kv to the tree, splitting full nodes along the descent path
// per spec §4.5. Duplicate keys are not de-duplicated (spec §9).
func (t *BTree) Insert(kv KeyValuePair) error {
	if t.closed.Load() {
		return wrapErr(KindUnexpected, "btree is closed", nil)
	}
	if len(kv.Key) > KeySize {
		return wrapErr(KindKeyOverflow, "key exceeds KeySize", nil)
	}
	if len(kv.Value) > ValueSize {
		return wrapErr(KindValueOverflow, "value exceeds ValueSize", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rootOffset, err := t.wal.getRoot()
	if err != nil {
		return err
	}
	root, err := t.readNode(rootOffset)
	if err != nil {
		return err
	}

	newRootOffset := rootOffset
	newRoot := root

	if root.isFull(t.config.Branches) {
		newRootOffset, newRoot, err = t.splitRoot(root)
		if err != nil {
			return err
		}
	} else {
		// Copy-forward the current root before descending, so every write
		// below this point lands on fresh offsets (spec §4.2).
		newRootOffset, err = t.writeNewNode(root)
		if err != nil {
			return err
		}
	}

	if err := t.insertNonFull(newRoot, newRootOffset, kv); err != nil {
		return err
	}
	if err := t.wal.setRoot(newRootOffset); err != nil {
		return err
	}

	t.numKeys.Add(1)
	t.userBytes.Add(int64(len(kv.Key) + len(kv.Value)))
	return nil
}

// splitRoot handles a full root: it allocates the new root's offset first
// (so the old root's parent pointer can reference it), splits the old
// root, writes both halves to fresh offsets, then overwrites the
// pre-allocated offset with the populated new root (spec §4.5 step 1).
func (t *BTree) splitRoot(root *Node) (Offset, *Node, error) {
	placeholder := &Node{Kind: KindInternal, IsRoot: true}
	placeholderBuf, err := encodePage(placeholder)
	if err != nil {
		return 0, nil, err
	}
	newRootOffset, err := t.pager.WritePage(placeholderBuf)
	if err != nil {
		return 0, nil, err
	}
	t.writeCount.Add(1)

	root.IsRoot = false
	root.ParentOffset = &newRootOffset

	medianKey, sibling, err := root.Split(t.config.Branches)
	if err != nil {
		return 0, nil, err
	}

	oldRootOffset, err := t.writeNewNode(root)
	if err != nil {
		return 0, nil, err
	}
	siblingOffset, err := t.writeNewNode(sibling)
	if err != nil {
		return 0, nil, err
	}

	newRoot := &Node{
		Kind:     KindInternal,
		IsRoot:   true,
		Children: []Offset{oldRootOffset, siblingOffset},
		Keys:     []Key{medianKey},
	}
	if err := t.rewriteNode(newRoot, newRootOffset); err != nil {
		return 0, nil, err
	}

	t.log.Debugw("split root", "median", medianKey, "new_root_offset", newRootOffset)
	return newRootOffset, newRoot, nil
}

// insertNonFull descends from node (already copy-forwarded to nodeOffset)
// toward the leaf that should hold kv, pre-splitting any full child it
// passes through (spec §4.5 step 2).
func (t *BTree) insertNonFull(node *Node, nodeOffset Offset, kv KeyValuePair) error {
	if node.Kind == KindLeaf {
		node.Pairs = insertPair(node.Pairs, kv)
		return t.rewriteNode(node, nodeOffset)
	}

	idx := searchKeys(node.Keys, kv.Key)
	child, err := t.readNode(node.Children[idx])
	if err != nil {
		return err
	}

	childOffset, err := t.writeNewNode(child)
	if err != nil {
		return err
	}
	node.Children[idx] = childOffset

	if child.isFull(t.config.Branches) {
		medianKey, sibling, err := child.Split(t.config.Branches)
		if err != nil {
			return err
		}
		if err := t.rewriteNode(child, childOffset); err != nil {
			return err
		}
		siblingOffset, err := t.writeNewNode(sibling)
		if err != nil {
			return err
		}

		node.Children = insertOffsetAt(node.Children, idx+1, siblingOffset)
		node.Keys = insertKeyAt(node.Keys, idx, medianKey)
		if err := t.rewriteNode(node, nodeOffset); err != nil {
			return err
		}

		if kv.Key <= medianKey {
			return t.insertNonFull(child, childOffset, kv)
		}
		return t.insertNonFull(sibling, siblingOffset, kv)
	}

	if err := t.rewriteNode(node, nodeOffset); err != nil {
		return err
	}
	return t.insertNonFull(child, childOffset, kv)
}

// insertKeyAt inserts k into keys at idx, shifting later entries right.
func insertKeyAt(keys []Key, idx int, k Key) []Key {
	keys = append(keys, "")
	copy(keys[idx+1:], keys[idx:])
	keys[idx] = k
	return keys
}

// insertOffsetAt inserts o into offsets at idx, shifting later entries
// right.
func insertOffsetAt(offsets []Offset, idx int, o Offset) []Offset {
	offsets = append(offsets, 0)
	copy(offsets[idx+1:], offsets[idx:])
	offsets[idx] = o
	return offsets
}

// Search looks up key, descending from the current root (spec §4.5).
func (t *BTree) Search(key Key) (KeyValuePair, error) {
	if t.closed.Load() {
		return KeyValuePair{}, wrapErr(KindUnexpected, "btree is closed", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rootOffset, err := t.wal.getRoot()
	if err != nil {
		return KeyValuePair{}, err
	}
	node, err := t.readNode(rootOffset)
	if err != nil {
		return KeyValuePair{}, err
	}

	for node.Kind == KindInternal {
		idx := searchKeys(node.Keys, key)
		node, err = t.readNode(node.Children[idx])
		if err != nil {
			return KeyValuePair{}, err
		}
	}

	idx, found := searchPairs(node.Pairs, key)
	if !found {
		return KeyValuePair{}, wrapErr(KindKeyNotFound, "key not found", nil)
	}
	return node.Pairs[idx], nil
}

// Sync flushes the backing file to stable storage. The WAL is already
// fsync'd on every setRoot, so this only needs to cover the pager.
func (t *BTree) Sync() error {
	return t.pager.file.Sync()
}

// Close releases the pager and WAL. The BTree must not be used afterward.
func (t *BTree) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return common.ErrClosed
	}
	if err := t.pager.Close(); err != nil {
		return err
	}
	return t.wal.Close()
}

// Stats reports instrumentation gathered since the tree was opened.
func (t *BTree) Stats() common.Stats {
	diskSize := t.pager.cursor
	userBytes := t.userBytes.Load()

	var writeAmp, spaceAmp float64
	if userBytes > 0 {
		writeAmp = float64(t.writeCount.Load()*PageSize) / float64(userBytes)
		spaceAmp = float64(diskSize) / float64(userBytes)
	}

	return common.Stats{
		NumKeys:       t.numKeys.Load(),
		NumSegments:   int(diskSize / PageSize),
		TotalDiskSize: diskSize,
		WriteCount:    t.writeCount.Load(),
		ReadCount:     t.readCount.Load(),
		WriteAmp:      writeAmp,
		SpaceAmp:      spaceAmp,
	}
}

// Compact is a no-op: the B-tree has no freelist or background
// compaction to trigger (spec §1 Non-goals). Kept so callers that treat
// engines polymorphically don't need a type switch.
func (t *BTree) Compact() error {
	return nil
}
