package mcts

import (
	"fmt"

	"github.com/awesome-archive/cczero/internal/board"
	"github.com/rs/zerolog/log"
)

// NodeTree owns the game's search tree: the root node created at game
// begin and the current head the search runs from. The head always
// lies on the spine from the root; everything the game has moved past
// is kept so training extraction can see the full line.
//
// Edges store moves in a canonical perspective: MakeMove mirrors the
// incoming move when black is to move, and the inverse remapping
// happens at the egress boundaries (training extraction, NN input
// encoding). The position history stays in absolute coordinates.
type NodeTree struct {
	history       board.PositionHistory
	gamebeginNode *Node
	currentHead   *Node
}

// NewNodeTree creates an empty tree. Call ResetToPosition before
// searching.
func NewNodeTree() *NodeTree {
	return &NodeTree{}
}

// CurrentHead returns the node the search runs from.
func (t *NodeTree) CurrentHead() *Node {
	return t.currentHead
}

// GameBeginNode returns the root of the whole tree.
func (t *NodeTree) GameBeginNode() *Node {
	return t.gamebeginNode
}

// History returns the ordered positions from game start to the head.
func (t *NodeTree) History() *board.PositionHistory {
	return &t.history
}

// HeadPosition returns the position at the current head.
func (t *NodeTree) HeadPosition() *board.Position {
	return t.history.Last()
}

// MakeMove advances the head by one move. The move is given in
// absolute board coordinates; it is canonicalised to the tree's
// perspective to find the matching edge. If the head has an edge for
// the move, that edge's node (spawned if not yet materialized) becomes
// the new head; if no edge matches, a singleton child is created (the
// path for book or externally chosen moves). All other children of the
// old head are handed to the collector.
func (t *NodeTree) MakeMove(move board.Move) {
	canonical := move
	if t.HeadPosition().IsBlackToMove() {
		canonical = canonical.Mirror()
	}

	var newHead *Node
	for it := t.currentHead.Edges(); it.Next(); {
		if it.Edge().Move(false) == canonical {
			newHead = it.GetOrSpawnNode(t.currentHead)
			break
		}
	}
	t.currentHead.ReleaseChildrenExceptOne(newHead)
	if newHead == nil {
		log.Debug().Stringer("move", move).Msg("playing a move the tree has not seen")
		newHead = t.currentHead.CreateSingleChildNode(canonical)
	}
	t.currentHead = newHead
	t.history.Append(move)
}

// TrimTreeAtHead clears the head's children and statistics while
// preserving its place in the parent's sibling chain. Used after a
// reset where the previous search state would be misleading.
func (t *NodeTree) TrimTreeAtHead() {
	defaultGC.AddToQueue(t.currentHead.detachChildren())
	sibling := t.currentHead.sibling
	t.currentHead.resetStats()
	t.currentHead.sibling = sibling
}

// ResetToPosition points the tree at the position reached by playing
// moves from the starting FEN. If the starting board differs from the
// current game's, the whole tree is deallocated and rebuilt. Replayed
// moves reuse existing subtrees; when the previous head is not
// re-encountered on the replay path the new head is trimmed so the
// next search starts clean.
func (t *NodeTree) ResetToPosition(startingFen string, moves []board.Move) error {
	start, err := board.ParseFEN(startingFen)
	if err != nil {
		return fmt.Errorf("reset to position: %w", err)
	}

	if t.gamebeginNode != nil {
		prev := t.history.Starting()
		if prev.Board != start.Board || prev.SideToMove != start.SideToMove {
			log.Debug().Msg("starting position changed, deallocating tree")
			t.DeallocateTree()
		}
	}
	if t.gamebeginNode == nil {
		t.gamebeginNode = NewNode()
	}

	t.history.Reset(*start)

	oldHead := t.currentHead
	t.currentHead = t.gamebeginNode
	seenOldHead := t.gamebeginNode == oldHead
	for _, move := range moves {
		t.MakeMove(move)
		if oldHead == t.currentHead {
			seenOldHead = true
		}
	}

	// If the old head was not on the replay path, the new position is
	// shorter than or divergent from the previous line; its subtree
	// statistics would mislead the next search.
	if !seenOldHead {
		t.TrimTreeAtHead()
	}
	return nil
}

// DeallocateTree hands the whole tree to the collector. The actual
// release happens on the collector's goroutine.
func (t *NodeTree) DeallocateTree() {
	defaultGC.AddToQueue(t.gamebeginNode)
	t.gamebeginNode = nil
	t.currentHead = nil
}
