package mcts

import "github.com/awesome-archive/cczero/internal/board"

// EdgeIterator walks the parent's edges in order, lazily pairing each
// edge with its materialized node if any. Children are kept in
// ascending index order, so the paired walk advances a single link
// through the child chain and stays O(|edges|) overall.
//
// Iteration and GetOrSpawnNode may be interleaved by concurrent
// workers only under external per-parent serialization (the
// virtual-loss gate).
type EdgeIterator struct {
	list *EdgeList
	link **Node
	idx  int
}

// Edges returns an iterator over the node's edges. Before expansion
// the iteration is empty.
func (n *Node) Edges() EdgeIterator {
	return EdgeIterator{list: n.edges.Load(), link: &n.child, idx: -1}
}

// Next advances to the next edge; it returns false when the edges are
// exhausted.
func (it *EdgeIterator) Next() bool {
	it.idx++
	if it.idx >= it.list.Len() {
		return false
	}
	for *it.link != nil && int((*it.link).index) < it.idx {
		it.link = &(*it.link).sibling
	}
	return true
}

// Edge returns the current edge.
func (it *EdgeIterator) Edge() *Edge {
	return it.list.Get(it.idx)
}

// Move returns the current edge's move in the tree's perspective.
func (it *EdgeIterator) Move() board.Move {
	return it.Edge().Move(false)
}

// Node returns the materialized node of the current edge, or nil.
func (it *EdgeIterator) Node() *Node {
	if n := *it.link; n != nil && int(n.index) == it.idx {
		return n
	}
	return nil
}

// N returns the visit count of the current slot, 0 when no node has
// been materialized for it.
func (it *EdgeIterator) N() int {
	if n := it.Node(); n != nil {
		return n.N()
	}
	return 0
}

// GetOrSpawnNode returns the node of the current slot, allocating it
// and splicing it into the parent's child chain if needed. The chain
// stays in ascending index order.
func (it *EdgeIterator) GetOrSpawnNode(parent *Node) *Node {
	if n := it.Node(); n != nil {
		return n
	}
	node := newChildNode(parent, uint16(it.idx))
	node.sibling = *it.link
	*it.link = node
	return node
}
