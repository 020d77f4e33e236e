package mcts

import (
	"sync"
	"testing"

	"github.com/awesome-archive/cczero/internal/board"
	"github.com/stretchr/testify/require"
)

func TestFreshTreeOneExpansion(t *testing.T) {
	tree := NewNodeTree()
	require.NoError(t, tree.ResetToPosition(board.StartFEN, nil))

	head := tree.CurrentHead()
	require.Equal(t, 0, head.N())
	require.False(t, head.HasEdges())

	require.True(t, head.TryStartScoreUpdate())

	moves := tree.HeadPosition().GenerateLegalMoves()
	require.Len(t, moves, 44)
	head.CreateEdges(moves)
	for it := head.Edges(); it.Next(); {
		it.Edge().SetP(1.0 / 44)
	}
	head.FinalizeScoreUpdate(0.1)

	require.Equal(t, 1, head.N())
	require.Equal(t, 0, head.NInFlight())
	require.InDelta(t, 0.1, head.Q(), 1e-6)
	require.Equal(t, 44, head.NumEdges())
	require.Zero(t, head.VisitedPolicy())
}

func TestVirtualLossExclusion(t *testing.T) {
	node := NewNode()

	// Worker A enters the unvisited node.
	require.True(t, node.TryStartScoreUpdate())
	// Worker B must back off while A is expanding.
	require.False(t, node.TryStartScoreUpdate())

	node.FinalizeScoreUpdate(0.5)

	// After A finalized, B succeeds.
	require.True(t, node.TryStartScoreUpdate())
	node.CancelScoreUpdate()
}

func TestCancelFinalizeSymmetry(t *testing.T) {
	parent := NewNode()
	parent.CreateEdges(board.MoveList{board.NewMove(0, 9), board.NewMove(1, 10)})
	it := parent.Edges()
	require.True(t, it.Next())
	it.Edge().SetP(0.7)
	child := it.GetOrSpawnNode(parent)

	// Seed one real visit on both.
	require.True(t, parent.TryStartScoreUpdate())
	require.True(t, child.TryStartScoreUpdate())
	child.FinalizeScoreUpdate(0.25)
	parent.FinalizeScoreUpdate(-0.25)

	type snapshot struct {
		n, inFlight int
		q, vp       float32
	}
	snap := func(n *Node) snapshot {
		return snapshot{n.N(), n.NInFlight(), n.Q(), n.VisitedPolicy()}
	}
	wantParent, wantChild := snap(parent), snap(child)

	for i := 0; i < 10; i++ {
		require.True(t, parent.TryStartScoreUpdate())
		require.True(t, child.TryStartScoreUpdate())
		child.CancelScoreUpdate()
		parent.CancelScoreUpdate()
	}

	require.Equal(t, wantParent, snap(parent))
	require.Equal(t, wantChild, snap(child))
}

func TestWelfordConvergence(t *testing.T) {
	node := NewNode()
	values := []float32{0.5, -0.25, 1, 0, -1, 0.125, 0.75}
	sum := float32(0)
	for _, v := range values {
		require.True(t, node.TryStartScoreUpdate())
		node.FinalizeScoreUpdate(v)
		sum += v
	}
	require.Equal(t, len(values), node.N())
	require.InDelta(t, sum/float32(len(values)), node.Q(), 1e-5)
}

func TestVisitedPolicy(t *testing.T) {
	parent := NewNode()
	parent.CreateEdges(board.MoveList{
		board.NewMove(0, 9), board.NewMove(1, 10), board.NewMove(2, 11),
	})
	ps := []float32{0.5, 0.3, 0.2}
	i := 0
	for it := parent.Edges(); it.Next(); {
		it.Edge().SetP(ps[i])
		i++
	}

	visit := func(idx int) {
		it := parent.Edges()
		for j := 0; j <= idx; j++ {
			require.True(t, it.Next())
		}
		child := it.GetOrSpawnNode(parent)
		require.True(t, child.TryStartScoreUpdate())
		child.FinalizeScoreUpdate(0)
	}

	require.Zero(t, parent.VisitedPolicy())
	visit(1)
	require.InDelta(t, 0.3, parent.VisitedPolicy(), 1e-6)
	visit(0)
	require.InDelta(t, 0.8, parent.VisitedPolicy(), 1e-6)
	// A second visit of the same child does not count twice.
	visit(0)
	require.InDelta(t, 0.8, parent.VisitedPolicy(), 1e-6)
}

func TestChildListAscendingOrder(t *testing.T) {
	parent := NewNode()
	parent.CreateEdges(board.MoveList{
		board.NewMove(0, 9), board.NewMove(1, 10), board.NewMove(2, 11), board.NewMove(3, 12),
	})

	spawn := func(idx int) *Node {
		it := parent.Edges()
		for j := 0; j <= idx; j++ {
			require.True(t, it.Next())
		}
		return it.GetOrSpawnNode(parent)
	}

	// Materialize out of order.
	c2 := spawn(2)
	c0 := spawn(0)
	c3 := spawn(3)
	require.Same(t, c2, spawn(2), "respawn returns the existing node")

	var indices []uint16
	for c := parent.child; c != nil; c = c.sibling {
		indices = append(indices, c.index)
		require.Same(t, parent, c.Parent())
	}
	require.Equal(t, []uint16{0, 2, 3}, indices)
	require.Same(t, c0, parent.child)
	require.Same(t, c3, parent.child.sibling.sibling)
}

func TestIteratorPairsEdgesWithNodes(t *testing.T) {
	parent := NewNode()
	moves := board.MoveList{board.NewMove(0, 9), board.NewMove(1, 10), board.NewMove(2, 11)}
	parent.CreateEdges(moves)

	it := parent.Edges()
	require.True(t, it.Next())
	require.True(t, it.Next())
	middle := it.GetOrSpawnNode(parent)

	seen := 0
	for it := parent.Edges(); it.Next(); {
		require.Equal(t, moves[seen], it.Move())
		if seen == 1 {
			require.Same(t, middle, it.Node())
		} else {
			require.Nil(t, it.Node())
		}
		seen++
	}
	require.Equal(t, len(moves), seen)
}

func TestIterationOnUnexpandedNodeIsEmpty(t *testing.T) {
	node := NewNode()
	it := node.Edges()
	require.False(t, it.Next())
}

func TestDoubleExpansionPanics(t *testing.T) {
	node := NewNode()
	node.CreateEdges(board.MoveList{board.NewMove(0, 9)})
	require.Panics(t, func() {
		node.CreateEdges(board.MoveList{board.NewMove(0, 9)})
	})
}

func TestGetEdgeToNode(t *testing.T) {
	parent := NewNode()
	parent.CreateEdges(board.MoveList{board.NewMove(0, 9), board.NewMove(1, 10)})
	it := parent.Edges()
	require.True(t, it.Next())
	require.True(t, it.Next())
	child := it.GetOrSpawnNode(parent)

	edge := parent.GetEdgeToNode(child)
	require.Equal(t, board.NewMove(1, 10), edge.Move(false))

	other := NewNode()
	require.Panics(t, func() { other.GetEdgeToNode(child) })
}

func TestCancelBelowZeroPanics(t *testing.T) {
	node := NewNode()
	require.Panics(t, func() { node.CancelScoreUpdate() })
}

func TestMakeTerminal(t *testing.T) {
	node := NewNode()
	node.MakeTerminal(TerminalWin)
	require.True(t, node.IsTerminal())
	require.Equal(t, float32(1), node.Q())

	draw := NewNode()
	draw.MakeTerminal(TerminalDraw)
	require.Zero(t, draw.Q())

	loss := NewNode()
	loss.MakeTerminal(TerminalLoss)
	require.Equal(t, float32(-1), loss.Q())
}

func TestUpdateMaxDepth(t *testing.T) {
	node := NewNode()
	node.UpdateMaxDepth(3)
	require.Equal(t, uint16(3), node.MaxDepth())
	node.UpdateMaxDepth(2)
	require.Equal(t, uint16(3), node.MaxDepth())
	node.UpdateMaxDepth(7)
	require.Equal(t, uint16(7), node.MaxDepth())
}

func TestUpdateFullDepth(t *testing.T) {
	parent := NewNode()
	parent.CreateEdges(board.MoveList{board.NewMove(0, 9), board.NewMove(1, 10)})

	it := parent.Edges()
	require.True(t, it.Next())
	first := it.GetOrSpawnNode(parent)

	// First backup: the leaf reaches full depth one; the parent has an
	// unmaterialized edge, so its minimum stays zero and it also stops
	// at one.
	depth := uint16(0)
	require.True(t, first.UpdateFullDepth(&depth))
	require.Equal(t, uint16(1), first.FullDepth())
	require.True(t, parent.UpdateFullDepth(&depth))
	require.Equal(t, uint16(1), parent.FullDepth())

	// A repeat backup along the same path does not increase anything.
	depth = 0
	require.False(t, first.UpdateFullDepth(&depth))

	// Once the second edge is materialized and visited, the parent's
	// full depth can advance.
	it = parent.Edges()
	require.True(t, it.Next())
	require.True(t, it.Next())
	second := it.GetOrSpawnNode(parent)

	depth = 0
	require.True(t, second.UpdateFullDepth(&depth))
	require.True(t, parent.UpdateFullDepth(&depth))
	require.Equal(t, uint16(2), parent.FullDepth())
}

func TestConcurrentScoreUpdates(t *testing.T) {
	node := NewNode()
	// Seed a visit so the virtual-loss gate stays open.
	require.True(t, node.TryStartScoreUpdate())
	node.FinalizeScoreUpdate(0.5)

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				for !node.TryStartScoreUpdate() {
				}
				node.FinalizeScoreUpdate(0.5)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1+workers*perWorker, node.N())
	require.Zero(t, node.NInFlight())
	require.InDelta(t, 0.5, node.Q(), 1e-3)
}
