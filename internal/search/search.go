// Package search runs PUCT playouts over the node tree. It is a thin
// driver: selection scoring and worker scheduling live here, all tree
// state and the virtual-loss protocol live in the mcts package.
package search

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/awesome-archive/cczero/internal/board"
	"github.com/awesome-archive/cczero/internal/mcts"
	"github.com/awesome-archive/cczero/internal/nn"
)

// Params configures a search.
type Params struct {
	Workers  int
	Playouts int
	CPuct    float32
}

// DefaultParams returns a small single-threaded configuration.
func DefaultParams() Params {
	return Params{Workers: 1, Playouts: 800, CPuct: 1.25}
}

// Search drives playouts on a shared tree from worker goroutines.
// Selection descents and any other child-chain traversal (the
// full-depth bookkeeping after backup) are serialized under one mutex
// because the tree requires per-parent serialization of GetOrSpawnNode
// and its splices are plain pointer writes; evaluation and backup run
// in parallel, with the in-flight counters spreading the workers
// across siblings.
type Search struct {
	tree   *mcts.NodeTree
	eval   nn.Evaluator
	params Params

	mu       sync.Mutex // serializes selection descents
	playouts atomic.Int32
	stop     atomic.Bool
}

// New creates a search over the tree's current head.
func New(tree *mcts.NodeTree, eval nn.Evaluator, params Params) *Search {
	if params.Workers <= 0 {
		params.Workers = 1
	}
	if params.CPuct <= 0 {
		params.CPuct = 1.25
	}
	return &Search{tree: tree, eval: eval, params: params}
}

// Stop makes workers exit after their current playout.
func (s *Search) Stop() {
	s.stop.Store(true)
}

// Run performs the configured number of playouts and returns once all
// workers are quiescent: every in-flight visit has been finalized or
// cancelled.
func (s *Search) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.params.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	head := s.tree.CurrentHead()
	log.Debug().
		Int32("playouts", s.playouts.Load()).
		Uint16("maxdepth", head.MaxDepth()).
		Float32("q", head.Q()).
		Msg("search finished")
}

func (s *Search) worker(ctx context.Context) {
	for !s.stop.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		// Reserve a playout ticket so the budget is exact.
		if s.playouts.Add(1) > int32(s.params.Playouts) {
			s.playouts.Add(-1)
			return
		}
		if !s.playout() {
			// Collision: give the expanding worker room and retry.
			s.playouts.Add(-1)
			runtime.Gosched()
		}
	}
}

// playout runs one selection-expansion-backup cycle. It returns false
// on a collision with another worker's expansion, which does not count
// against the playout budget.
func (s *Search) playout() bool {
	head := s.tree.CurrentHead()
	history := s.tree.History().Clone()

	s.mu.Lock()
	if !head.TryStartScoreUpdate() {
		s.mu.Unlock()
		return false
	}
	path := []*mcts.Node{head}
	node := head
	leaf := false

	for !node.IsTerminal() {
		if !node.HasEdges() {
			leaf = true
			break
		}
		it := s.pickChild(node)
		child := it.GetOrSpawnNode(node)
		if !child.TryStartScoreUpdate() {
			s.mu.Unlock()
			cancelPath(path)
			return false
		}
		history.Append(it.Edge().Move(history.Last().IsBlackToMove()))
		path = append(path, child)
		node = child
	}
	s.mu.Unlock()

	var value float32
	if leaf {
		value = s.expand(node, &history)
	} else {
		value = node.Q()
	}

	// Back up leaf to root, flipping the value's perspective each ply.
	for i := len(path) - 1; i >= 0; i-- {
		path[i].FinalizeScoreUpdate(value)
		value = -value
	}

	// Every node on the path saw the leaf at its own distance.
	for i := range path {
		path[i].UpdateMaxDepth(uint16(len(path) - 1 - i))
	}

	// UpdateFullDepth walks child chains, so it must share the
	// serialization that guards GetOrSpawnNode's splicing.
	s.mu.Lock()
	depth := uint16(0)
	for i := len(path) - 1; i >= 0; i-- {
		if !path[i].UpdateFullDepth(&depth) {
			break
		}
	}
	s.mu.Unlock()
	return true
}

// expand installs edges and priors at a leaf, or marks it terminal,
// and returns the leaf value. The caller holds the only in-flight
// visit of an unvisited node, so it is the exclusive expander.
func (s *Search) expand(node *mcts.Node, history *board.PositionHistory) float32 {
	pos := history.Last()
	legal := pos.GenerateLegalMoves()

	if outcome := pos.Result(legal); outcome != board.Ongoing {
		node.MakeTerminal(terminalResult(outcome, pos.SideToMove))
		return node.Q()
	}

	priors, value := s.eval.Evaluate(history, legal)

	canonical := legal
	if pos.IsBlackToMove() {
		canonical = make(board.MoveList, len(legal))
		for i, m := range legal {
			canonical[i] = m.Mirror()
		}
	}
	node.CreateEdges(canonical)
	i := 0
	for it := node.Edges(); it.Next(); {
		it.Edge().SetP(priors[i])
		i++
	}
	return value
}

// pickChild selects the edge with the best PUCT score. In-flight
// visits count as pending visits, the virtual loss that makes subtrees
// other workers are descending look less attractive.
func (s *Search) pickChild(node *mcts.Node) mcts.EdgeIterator {
	parentVisits := float64(node.N() + node.NInFlight())
	explore := float64(s.params.CPuct) * math.Sqrt(math.Max(1, parentVisits))

	var best mcts.EdgeIterator
	bestScore := math.Inf(-1)
	for it := node.Edges(); it.Next(); {
		var q float64
		pending := 0
		if child := it.Node(); child != nil {
			// The child's Q is from the child's side to move.
			q = -float64(child.Q())
			pending = child.N() + child.NInFlight()
		}
		u := explore * float64(it.Edge().P()) / float64(1+pending)
		if score := q + u; score > bestScore {
			bestScore = score
			best = it
		}
	}
	return best
}

func cancelPath(path []*mcts.Node) {
	for i := len(path) - 1; i >= 0; i-- {
		path[i].CancelScoreUpdate()
	}
}

func terminalResult(outcome board.Outcome, stm board.Color) mcts.TerminalResult {
	switch outcome {
	case board.RedWon:
		if stm == board.Red {
			return mcts.TerminalWin
		}
		return mcts.TerminalLoss
	case board.BlackWon:
		if stm == board.Black {
			return mcts.TerminalWin
		}
		return mcts.TerminalLoss
	}
	return mcts.TerminalDraw
}

// BestMove returns the most visited move at the head, in absolute
// board coordinates, and false if the head has no visited edges.
func BestMove(tree *mcts.NodeTree) (board.Move, bool) {
	moves, visits := VisitedMoves(tree)
	bestN := -1
	best := board.NoMove
	for i, m := range moves {
		if visits[i] > bestN {
			bestN = visits[i]
			best = m
		}
	}
	return best, bestN > 0
}

// VisitedMoves returns every head move that has a visited child, with
// its visit count, in edge order and absolute coordinates.
func VisitedMoves(tree *mcts.NodeTree) ([]board.Move, []int) {
	head := tree.CurrentHead()
	asOpponent := tree.HeadPosition().IsBlackToMove()
	var moves []board.Move
	var visits []int
	for it := head.Edges(); it.Next(); {
		if n := it.N(); n > 0 {
			moves = append(moves, it.Edge().Move(asOpponent))
			visits = append(visits, n)
		}
	}
	return moves, visits
}
