package mcts

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// GCInterval is how often the collector wakes up to drain its queue.
const GCInterval = 100 * time.Millisecond

// NodeGarbageCollector absorbs detached subtrees and releases them on
// a dedicated goroutine, so that tearing down a several-million-node
// subtree never happens on a search thread. Detaching a subtree at
// game-play or reset time is a single pointer transfer; the collector
// severs the subtree's internal links off the hot path and lets the
// runtime reclaim the nodes.
type NodeGarbageCollector struct {
	mu       sync.Mutex
	subtrees []*Node

	stop atomic.Bool
	done chan struct{}
}

// NewNodeGarbageCollector starts a collector with its own worker
// goroutine.
func NewNodeGarbageCollector() *NodeGarbageCollector {
	gc := &NodeGarbageCollector{done: make(chan struct{})}
	go gc.worker()
	return gc
}

// defaultGC is the process-wide collector used by Node and NodeTree.
var defaultGC = NewNodeGarbageCollector()

// DefaultGC returns the process-wide collector.
func DefaultGC() *NodeGarbageCollector {
	return defaultGC
}

// AddToQueue takes ownership of a detached subtree (a node and its
// whole sibling chain) and returns immediately. Safe to call from any
// goroutine; the caller must hold no tree locks.
func (gc *NodeGarbageCollector) AddToQueue(subtree *Node) {
	if subtree == nil {
		return
	}
	gc.mu.Lock()
	gc.subtrees = append(gc.subtrees, subtree)
	gc.mu.Unlock()
}

// Pending returns the number of queued subtrees.
func (gc *NodeGarbageCollector) Pending() int {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return len(gc.subtrees)
}

// Stop flips the stop flag and waits for the worker to exit. Queued
// subtrees are released during teardown.
func (gc *NodeGarbageCollector) Stop() {
	gc.stop.Store(true)
	<-gc.done
}

func (gc *NodeGarbageCollector) worker() {
	ticker := time.NewTicker(GCInterval)
	defer ticker.Stop()

	for !gc.stop.Load() {
		<-ticker.C
		gc.collect()
	}
	gc.collect()
	close(gc.done)
}

// collect drains the queue, popping one subtree at a time under the
// mutex and releasing it outside, so that the O(|subtree|) teardown
// never blocks producers.
func (gc *NodeGarbageCollector) collect() {
	for {
		var subtree *Node
		gc.mu.Lock()
		if len(gc.subtrees) == 0 {
			gc.mu.Unlock()
			return
		}
		subtree = gc.subtrees[len(gc.subtrees)-1]
		gc.subtrees = gc.subtrees[:len(gc.subtrees)-1]
		gc.mu.Unlock()

		released := releaseSubtree(subtree)
		log.Debug().Int("nodes", released).Msg("gc released subtree")
	}
}

// releaseSubtree iteratively severs all links of the subtree (and its
// sibling chain) so the runtime can reclaim it without deep recursion.
// Returns the number of nodes released.
func releaseSubtree(subtree *Node) int {
	count := 0
	stack := []*Node{subtree}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.child != nil {
			stack = append(stack, n.child)
			n.child = nil
		}
		if n.sibling != nil {
			stack = append(stack, n.sibling)
			n.sibling = nil
		}
		n.parent = nil
		n.edges.Store(nil)
		count++
	}
	return count
}

// ReleaseChildren transfers ownership of the entire child chain to the
// process-wide collector.
func (n *Node) ReleaseChildren() {
	defaultGC.AddToQueue(n.detachChildren())
}

func (n *Node) detachChildren() *Node {
	c := n.child
	n.child = nil
	return c
}

// ReleaseChildrenExceptOne hands every child but keep to the collector;
// keep becomes the sole child. If keep is nil or not found, all
// children are released.
func (n *Node) ReleaseChildrenExceptOne(keep *Node) {
	var saved *Node
	for link := &n.child; *link != nil; link = &(*link).sibling {
		if *link != keep {
			continue
		}
		// Kill the remaining siblings, detach the survivor.
		defaultGC.AddToQueue((*link).sibling)
		(*link).sibling = nil
		saved = *link
		*link = nil
		break
	}
	// Kills the previous siblings (or everything when keep was absent).
	defaultGC.AddToQueue(n.detachChildren())
	n.child = saved
}
