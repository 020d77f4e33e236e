package mcts

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/awesome-archive/cczero/internal/board"
)

// TerminalResult is a game result from the side-to-move perspective of
// the terminal node.
type TerminalResult int8

const (
	TerminalLoss TerminalResult = -1
	TerminalDraw TerminalResult = 0
	TerminalWin  TerminalResult = 1
)

// Node holds the per-position statistics of the search tree. Children
// are exclusively owned through the child/sibling chain; parent is a
// plain back-reference used only for back-propagation.
//
// The counters are individually atomic so that search workers can read
// them concurrently, but no lock protects cross-field consistency:
// readers may observe e.g. n updated before q. The selection formula
// tolerates that. Expansion (CreateEdges) and child materialization
// (GetOrSpawnNode) must be serialized per parent by the caller; the
// virtual-loss gate in TryStartScoreUpdate is the mechanism, since only
// the first worker past the gate on an unvisited node expands it.
type Node struct {
	parent  *Node
	index   uint16
	edges   atomic.Pointer[EdgeList]
	child   *Node
	sibling *Node

	n             atomic.Int32
	nInFlight     atomic.Int32
	q             atomic.Uint32 // float32 bits
	visitedPolicy atomic.Uint32 // float32 bits
	maxDepth      atomic.Int32
	fullDepth     atomic.Int32
	terminal      atomic.Bool
}

// NewNode creates a root node with no parent.
func NewNode() *Node {
	return &Node{}
}

func newChildNode(parent *Node, index uint16) *Node {
	return &Node{parent: parent, index: index}
}

// Parent returns the node's parent, nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Index returns the position of the node within its parent's edges.
func (n *Node) Index() uint16 { return n.index }

// N returns the completed visit count.
func (n *Node) N() int { return int(n.n.Load()) }

// NInFlight returns the number of selections currently traversing this
// node whose backup has not completed. Selection treats it as pending
// visits so that in-flight subtrees look less attractive.
func (n *Node) NInFlight() int { return int(n.nInFlight.Load()) }

// Q returns the running mean of backed-up values.
func (n *Node) Q() float32 { return math.Float32frombits(n.q.Load()) }

// VisitedPolicy returns the sum of prior probabilities of child edges
// whose node has been visited at least once.
func (n *Node) VisitedPolicy() float32 { return math.Float32frombits(n.visitedPolicy.Load()) }

// IsTerminal returns true if the node's position ends the game.
func (n *Node) IsTerminal() bool { return n.terminal.Load() }

// MaxDepth returns how deep any path beneath this node has been
// expanded.
func (n *Node) MaxDepth() uint16 { return uint16(n.maxDepth.Load()) }

// FullDepth returns how deep every path beneath this node has been
// expanded.
func (n *Node) FullDepth() uint16 { return uint16(n.fullDepth.Load()) }

// NumEdges returns the number of edges, 0 before expansion.
func (n *Node) NumEdges() int { return n.edges.Load().Len() }

// HasEdges returns true once the node has been expanded.
func (n *Node) HasEdges() bool { return n.edges.Load().Len() > 0 }

// CreateEdges installs the edge list from the legal moves of the
// node's position. Expanding a node twice is a programming error.
func (n *Node) CreateEdges(moves board.MoveList) {
	if n.child != nil {
		panic("mcts: CreateEdges on a node with materialized children")
	}
	if !n.edges.CompareAndSwap(nil, NewEdgeList(moves)) {
		panic("mcts: node expanded twice")
	}
}

// CreateSingleChildNode installs a singleton edge list for the move and
// materializes its one child. Used by NodeTree when a played move has
// no edge in the tree.
func (n *Node) CreateSingleChildNode(move board.Move) *Node {
	n.CreateEdges(board.MoveList{move})
	n.child = newChildNode(n, 0)
	return n.child
}

// GetEdgeToNode returns the edge leading from this node to the given
// child. Passing a node of a different parent is a programming error.
func (n *Node) GetEdgeToNode(node *Node) *Edge {
	if node.parent != n {
		panic("mcts: GetEdgeToNode with a foreign child")
	}
	return n.edges.Load().Get(int(node.index))
}

// TryStartScoreUpdate enters the node during selection. It returns
// false when another worker is already expanding this unvisited node;
// the caller must pick a different path or back off. On true the
// in-flight count has been incremented and the caller owes the node
// either a CancelScoreUpdate or a FinalizeScoreUpdate.
func (n *Node) TryStartScoreUpdate() bool {
	if n.n.Load() == 0 && n.nInFlight.Load() > 0 {
		return false
	}
	n.nInFlight.Add(1)
	return true
}

// CancelScoreUpdate undoes a TryStartScoreUpdate after an aborted
// selection.
func (n *Node) CancelScoreUpdate() {
	if n.nInFlight.Add(-1) < 0 {
		panic("mcts: CancelScoreUpdate without a matching TryStartScoreUpdate")
	}
}

// FinalizeScoreUpdate folds the backed-up value v into the running
// mean, updates the parent's visited policy on the first visit, and
// releases the in-flight slot.
func (n *Node) FinalizeScoreUpdate(v float32) {
	visits := n.n.Load()
	q := n.Q()
	n.q.Store(math.Float32bits(q + (v-q)/float32(visits+1)))
	if visits == 0 && n.parent != nil {
		p := n.parent.edges.Load().Get(int(n.index)).P()
		addFloat32(&n.parent.visitedPolicy, p)
	}
	n.n.Add(1)
	if n.nInFlight.Add(-1) < 0 {
		panic("mcts: FinalizeScoreUpdate without a matching TryStartScoreUpdate")
	}
}

// MakeTerminal marks the node as ending the game with the given result
// for its side to move. The score update still flows through
// FinalizeScoreUpdate.
func (n *Node) MakeTerminal(result TerminalResult) {
	n.terminal.Store(true)
	n.q.Store(math.Float32bits(float32(result)))
}

// UpdateMaxDepth raises the max-depth summary to depth if larger.
func (n *Node) UpdateMaxDepth(depth uint16) {
	for {
		cur := n.maxDepth.Load()
		if int32(depth) <= cur {
			return
		}
		if n.maxDepth.CompareAndSwap(cur, int32(depth)) {
			return
		}
	}
}

// UpdateFullDepth recomputes full_depth as one plus the minimum over
// all edges, where an edge without a materialized node counts as depth
// zero. depth carries the candidate value up the path; the call
// returns true iff the node's own full depth increased, which is the
// signal to continue at the parent.
func (n *Node) UpdateFullDepth(depth *uint16) bool {
	if n.FullDepth() > *depth {
		return false
	}
	d := *depth
	for it := n.Edges(); it.Next(); {
		cd := uint16(0)
		if child := it.Node(); child != nil {
			cd = child.FullDepth()
		}
		if d > cd {
			d = cd
		}
	}
	if d >= n.FullDepth() {
		d++
		n.fullDepth.Store(int32(d))
		*depth = d
		return true
	}
	return false
}

// String renders the node for debugging.
func (n *Node) String() string {
	return fmt.Sprintf("Term:%v Parent:%p Index:%d Child:%p Sibling:%p Q:%f N:%d N_:%d Edges:%d",
		n.IsTerminal(), n.parent, n.index, n.child, n.sibling, n.Q(), n.N(), n.NInFlight(), n.NumEdges())
}

// resetStats clears the node's statistics and children links while
// preserving parent, index and sibling. Callers queue the old children
// to the collector first.
func (n *Node) resetStats() {
	n.edges.Store(nil)
	n.child = nil
	n.n.Store(0)
	n.nInFlight.Store(0)
	n.q.Store(0)
	n.visitedPolicy.Store(0)
	n.maxDepth.Store(0)
	n.fullDepth.Store(0)
	n.terminal.Store(false)
}

// addFloat32 atomically adds delta to a float32 stored as bits.
func addFloat32(a *atomic.Uint32, delta float32) {
	for {
		old := a.Load()
		next := math.Float32bits(math.Float32frombits(old) + delta)
		if a.CompareAndSwap(old, next) {
			return
		}
	}
}
