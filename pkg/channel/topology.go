package channel

import (
	"sync"

	"github.com/capwire/capwire/internal/logger"
	"github.com/capwire/capwire/pkg/types"
)

// Loopback creates a channel whose delivery target is itself: anything sent
// on it is visible to its own subscribers, forming a single-node broadcast
// bus.
func Loopback(log *logger.Logger) *Channel {
	return New(nil, log)
}

// Pair creates two channels cross-wired so each one's outgoing frames become
// the other's incoming frames.
func Pair(log *logger.Logger) (*Channel, *Channel) {
	var b *Channel
	// a's target dereferences b at call time; b does not exist yet when a is
	// constructed, but Pair does not return until both are wired.
	a := New(func(f types.Frame) { b.Receive(f) }, log)
	b = New(a.Receive, log)
	return a, b
}

// Cycle creates n channels arranged in a ring: each channel's outgoing
// frames are delivered to its predecessor. Cycle(1) is a loopback.
// Returns nil for n < 1.
func Cycle(n int, log *logger.Logger) []*Channel {
	if n < 1 {
		return nil
	}

	chans := make([]*Channel, n)
	for i := range chans {
		prev := (i - 1 + n) % n
		chans[i] = New(func(f types.Frame) { chans[prev].Receive(f) }, log)
	}
	return chans
}

// Node is one vertex of a spawning tree. Each node holds a growing list of
// channels, one per edge to a neighboring node; Spawn adds a child connected
// through a fresh Pair, building an acyclic graph incrementally.
type Node struct {
	mu       sync.Mutex
	channels []*Channel
	logger   *logger.Logger
}

// NewNode creates a node with no channels
func NewNode(log *logger.Logger) *Node {
	if log == nil {
		log = logger.Global()
	}
	return &Node{logger: log.With("component", "node")}
}

// Spawn creates a child node connected to this node via a fresh channel
// pair. The parent keeps one end, the child the other.
func (n *Node) Spawn() *Node {
	parentEnd, childEnd := Pair(n.logger)

	n.mu.Lock()
	n.channels = append(n.channels, parentEnd)
	n.mu.Unlock()

	child := NewNode(n.logger)
	child.channels = append(child.channels, childEnd)
	return child
}

// Channels returns a snapshot of the node's channels
func (n *Node) Channels() []*Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Channel{}, n.channels...)
}
