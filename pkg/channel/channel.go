package channel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/capwire/capwire/internal/logger"
	"github.com/capwire/capwire/pkg/types"
)

// ReceiveFunc is the capability a channel delivers outgoing frames to.
// A channel's own Receive method satisfies this shape, so two channels can
// be wired directly to each other without either holding a reference to
// the other beyond this single callable.
type ReceiveFunc func(types.Frame)

// slot is one link in the forward-only delivery chain shared by all
// subscribers. A slot is resolved exactly once: its frame, done flag and next
// pointer are written before ready is closed, and never written again.
type slot struct {
	ready chan struct{}
	frame types.Frame
	done  bool
	next  *slot
}

func newSlot() *slot {
	return &slot{ready: make(chan struct{})}
}

// Channel is a broadcast, unbuffered, asynchronous message stream. Every
// frame passed to Send is forwarded to the delivery target fixed at
// construction; every frame passed to Receive is broadcast to all currently
// active subscriptions in delivery order. Frames are never buffered or
// replayed: a subscription only observes frames delivered after it started,
// and frames delivered while no subscription is active are dropped.
//
// A Channel is safe for concurrent use.
type Channel struct {
	mu        sync.Mutex
	target    ReceiveFunc
	pending   *slot
	subs      int
	delivered uint64
	dropped   uint64
	logger    *logger.Logger
}

// New creates a channel delivering to the given target. A nil target puts
// the channel in loopback mode: sends are delivered to the channel's own
// subscribers. The target cannot be re-pointed after construction. A nil
// logger falls back to the global logger.
func New(target ReceiveFunc, log *logger.Logger) *Channel {
	if log == nil {
		log = logger.Global()
	}

	c := &Channel{
		pending: newSlot(),
		logger:  log.With("component", "channel"),
	}
	if target == nil {
		target = c.Receive
	}
	c.target = target
	return c
}

// Send forwards one frame, synchronously and unconditionally, to the
// delivery target. It never fails and never blocks on subscribers.
func (c *Channel) Send(values ...any) {
	c.target(types.NewFrame(values...))
}

// Receive is the channel's inbound entry point, exposable as a capability so
// a peer can be wired directly to it. With no active subscriptions the frame
// is silently dropped. Otherwise the pending slot is resolved with the frame
// and a fresh slot is installed first, so a slot is never resolved twice.
func (c *Channel) Receive(frame types.Frame) {
	c.resolve(frame, false)
}

// Terminate delivers the end-of-stream signal: every currently active
// subscription observes io.EOF and unwinds. Subscriptions started afterwards
// wait for future frames as usual.
func (c *Channel) Terminate() {
	c.resolve(nil, true)
}

func (c *Channel) resolve(frame types.Frame, done bool) {
	c.mu.Lock()
	if c.subs == 0 {
		c.dropped++
		c.mu.Unlock()
		return
	}

	s := c.pending
	c.pending = newSlot()
	s.frame = frame
	s.done = done
	s.next = c.pending
	if !done {
		c.delivered++
	}
	c.mu.Unlock()

	close(s.ready)
}

// Subscribe starts a live broadcast subscription. The subscription captures
// the delivery chain at the current instant: it observes every frame
// delivered from now on, in delivery order, and none delivered before.
func (c *Channel) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs++
	sub := &Subscription{
		id:  types.GenerateID(),
		ch:  c,
		cur: c.pending,
	}

	c.logger.Debug("Subscription started",
		"subscription_id", sub.id,
		"active_subscriptions", c.subs)
	return sub
}

// Stats returns statistics about the channel
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		ActiveSubscriptions: c.subs,
		FramesDelivered:     c.delivered,
		FramesDropped:       c.dropped,
	}
}

// Stats represents channel statistics
type Stats struct {
	ActiveSubscriptions int    `json:"active_subscriptions"`
	FramesDelivered     uint64 `json:"frames_delivered"`
	FramesDropped       uint64 `json:"frames_dropped"`
}

// String returns a string representation of the stats
func (s Stats) String() string {
	return fmt.Sprintf("Stats{Active: %d, Delivered: %d, Dropped: %d}",
		s.ActiveSubscriptions, s.FramesDelivered, s.FramesDropped)
}

// Subscription is one consumer's view of a channel's future frames.
// A Subscription is not safe for concurrent use; each consumer should hold
// its own.
type Subscription struct {
	id       types.ID
	ch       *Channel
	cur      *slot
	finished bool
}

// ID returns the subscription identifier
func (s *Subscription) ID() types.ID {
	return s.id
}

// Next blocks until the next frame is delivered and returns it. It returns
// io.EOF once the channel delivers its end-of-stream signal, after which the
// subscription is finished and every further call returns io.EOF. If the
// context is canceled while waiting, the subscription stays active and the
// wait can be retried.
func (s *Subscription) Next(ctx context.Context) (types.Frame, error) {
	if s.finished {
		return nil, io.EOF
	}

	select {
	case <-s.cur.ready:
	case <-ctx.Done():
		return nil, types.WrapError(types.ErrCodeCanceled, "subscription wait canceled", ctx.Err())
	}

	resolved := s.cur
	s.cur = resolved.next

	if resolved.done {
		s.finish()
		return nil, io.EOF
	}
	return resolved.frame, nil
}

// Cancel detaches the subscription before end-of-stream. Further calls to
// Next return io.EOF. Cancel is idempotent.
func (s *Subscription) Cancel() {
	if !s.finished {
		s.finish()
	}
}

func (s *Subscription) finish() {
	s.finished = true
	s.ch.mu.Lock()
	s.ch.subs--
	s.ch.mu.Unlock()

	s.ch.logger.Debug("Subscription finished", "subscription_id", s.id)
}
