// Package mcts implements the search tree: nodes and edges, the
// virtual-loss score-update protocol, subtree reclamation and
// training-data extraction.
package mcts

import (
	"fmt"

	"github.com/awesome-archive/cczero/internal/board"
)

// Edge is a (move, prior probability) pair anchored at a parent node.
// The move is stored in the tree's canonical perspective. P is written
// exactly once after construction, before the expanding worker's
// FinalizeScoreUpdate publishes the node to other workers.
type Edge struct {
	move board.Move
	p    float32
}

// Move returns the edge's move. With asOpponent the move is mirrored
// back to the opponent's perspective.
func (e *Edge) Move(asOpponent bool) board.Move {
	if asOpponent {
		return e.move.Mirror()
	}
	return e.move
}

// P returns the prior probability of the edge.
func (e *Edge) P() float32 {
	return e.p
}

// SetP sets the prior probability of the edge.
func (e *Edge) SetP(p float32) {
	e.p = p
}

// String renders the edge for debugging.
func (e *Edge) String() string {
	return fmt.Sprintf("Move: %v P: %f", e.move, e.p)
}

// EdgeList owns a contiguous buffer of edges, one per legal move of
// the parent's position. The size is fixed at construction; edges are
// never inserted, removed or reordered.
type EdgeList struct {
	edges []Edge
}

// NewEdgeList creates an edge list from moves, in move-generation
// order, with all priors zero.
func NewEdgeList(moves board.MoveList) *EdgeList {
	el := &EdgeList{edges: make([]Edge, len(moves))}
	for i, m := range moves {
		el.edges[i].move = m
	}
	return el
}

// Len returns the number of edges.
func (el *EdgeList) Len() int {
	if el == nil {
		return 0
	}
	return len(el.edges)
}

// Get returns the edge at position i.
func (el *EdgeList) Get(i int) *Edge {
	return &el.edges[i]
}
