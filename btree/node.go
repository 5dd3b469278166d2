package btree

import "sort"

// searchKeys returns the lower-bound insertion index for key within a
// sorted key slice: the first position at which key would be inserted to
// keep the slice sorted. Given keys k0 < k1 < ..., this sends a lookup for
// k_i to index i — the left subtree of k_i — per spec §4.5's descent rule.
func searchKeys(keys []Key, key Key) int {
	return sort.Search(len(keys), func(i int) bool {
		return keys[i] >= key
	})
}

// searchPairs returns the index of the pair with the given key, and
// whether it was found. When not found, index is the position key would
// occupy to keep Pairs sorted.
func searchPairs(pairs []KeyValuePair, key Key) (index int, found bool) {
	i := sort.Search(len(pairs), func(i int) bool {
		return pairs[i].Key >= key
	})
	if i < len(pairs) && pairs[i].Key == key {
		return i, true
	}
	return i, false
}

// insertPair inserts kv into pairs at its sorted position, without
// de-duplicating an existing key (spec §9: the source inserts without
// replacing; duplicate keys accumulate).
func insertPair(pairs []KeyValuePair, kv KeyValuePair) []KeyValuePair {
	idx, _ := searchPairs(pairs, kv.Key)
	pairs = append(pairs, KeyValuePair{})
	copy(pairs[idx+1:], pairs[idx:])
	pairs[idx] = kv
	return pairs
}

// Split divides a full node (2*branches-1 routing entries) into two halves
// around a median, per spec §4.4. It mutates n in place (keeping the left
// half) and returns the promoted median key and the new right sibling.
// The sibling inherits n's parent offset and is never a root.
func (n *Node) Split(branches int) (Key, *Node, error) {
	switch n.Kind {
	case KindLeaf:
		return n.splitLeaf(branches)
	case KindInternal:
		return n.splitInternal(branches)
	default:
		return "", nil, wrapErr(KindUnexpected, "cannot split a node of unexpected type", nil)
	}
}

// splitLeaf: the rightmost branches-1 pairs move to the new sibling; the
// first `branches` pairs (including the median at index branches-1) stay
// in n. The median's key is promoted but its pair remains in the left
// half — search's "key <= median descends left" rule relies on this.
func (n *Node) splitLeaf(branches int) (Key, *Node, error) {
	if len(n.Pairs) != 2*branches-1 {
		return "", nil, wrapErr(KindUnexpected, "splitLeaf requires exactly 2*branches-1 pairs", nil)
	}

	medianKey := n.Pairs[branches-1].Key

	sibling := &Node{
		Kind:         KindLeaf,
		Pairs:        append([]KeyValuePair(nil), n.Pairs[branches:]...),
		IsRoot:       false,
		ParentOffset: n.ParentOffset,
	}
	n.Pairs = n.Pairs[:branches]

	return medianKey, sibling, nil
}

// splitInternal: keys split at branches-1, children split at branches. The
// key at position branches-1 is the median, promoted to the parent and
// removed from both halves.
func (n *Node) splitInternal(branches int) (Key, *Node, error) {
	if len(n.Keys) != 2*branches-1 || len(n.Children) != 2*branches {
		return "", nil, wrapErr(KindUnexpected, "splitInternal requires 2*branches-1 keys and 2*branches children", nil)
	}

	medianKey := n.Keys[branches-1]

	sibling := &Node{
		Kind:         KindInternal,
		Keys:         append([]Key(nil), n.Keys[branches:]...),
		Children:     append([]Offset(nil), n.Children[branches:]...),
		IsRoot:       false,
		ParentOffset: n.ParentOffset,
	}

	n.Keys = n.Keys[:branches-1]
	n.Children = n.Children[:branches]

	return medianKey, sibling, nil
}

// isFull reports whether n already holds the maximum 2*branches-1 routing
// entries permitted outside of a transient split (spec invariant I4).
func (n *Node) isFull(branches int) bool {
	switch n.Kind {
	case KindLeaf:
		return len(n.Pairs) >= 2*branches-1
	case KindInternal:
		return len(n.Keys) >= 2*branches-1
	default:
		return false
	}
}
