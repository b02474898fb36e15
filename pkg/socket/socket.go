package socket

import (
	"context"
	"fmt"
	"sync"

	"github.com/capwire/capwire/internal/logger"
	"github.com/capwire/capwire/pkg/channel"
	"github.com/capwire/capwire/pkg/types"
)

// Peer bundles the capabilities one socket hands to another during the
// handshake. Receive and Disconnect are the only abilities granted; Offer is
// present only in the initiating three-capability form and lets the
// responder complete the reciprocal link in the same round trip.
type Peer struct {
	ID         types.ID
	Receive    channel.ReceiveFunc
	Disconnect func()
	Offer      Offer
}

// Offer is a one-shot connection-offer capability. A responder hands it to
// exactly one other party; invoking it with that party's capabilities
// completes the connection. A second invocation fails with OFFER_USED.
type Offer func(peer Peer) error

// ConnectCap is the capability a socket hands out so another socket can
// initiate a connection to it. It carries the issuing socket's identity so
// repeated connects to the same peer can be recognized.
type ConnectCap struct {
	peerID types.ID
	offer  func() (Offer, error)
}

// PeerID returns the identity of the socket that issued the capability
func (c ConnectCap) PeerID() types.ID {
	return c.peerID
}

// complement is a socket's record of its current peer's capabilities. All
// fields are zero while disconnected; connected is true if and only if the
// record holds real peer-supplied capabilities.
type complement struct {
	peerID     types.ID
	send       channel.ReceiveFunc
	disconnect func()
}

// Socket wraps one channel and adds connection state, a capability handshake
// to establish a bidirectional link with exactly one peer socket, and
// disconnect propagation. A Socket is safe for concurrent use.
type Socket struct {
	mu         sync.Mutex
	id         types.ID
	ch         *channel.Channel
	logger     *logger.Logger
	connected  bool
	complement complement
}

// New creates a disconnected socket. A nil logger falls back to the global
// logger.
func New(log *logger.Logger) *Socket {
	if log == nil {
		log = logger.Global()
	}

	s := &Socket{
		id: types.GenerateID(),
	}
	s.logger = log.With("component", "socket", "socket_id", s.id)
	// The owned channel's target never changes; it routes to whichever peer
	// the complement currently holds.
	s.ch = channel.New(s.deliver, log)

	s.logger.Debug("Socket created")
	return s
}

// deliver is the owned channel's fixed delivery target
func (s *Socket) deliver(frame types.Frame) {
	s.mu.Lock()
	send := s.complement.send
	s.mu.Unlock()

	if send != nil {
		send(frame)
	}
}

// ID returns the socket's identity
func (s *Socket) ID() types.ID {
	return s.id
}

// IsConnected reports whether the socket is connected to a peer
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Send delivers one frame to the connected peer. It fails with NOT_CONNECTED
// while disconnected.
func (s *Socket) Send(values ...any) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return types.NewError(types.ErrCodeNotConnected, "socket is not connected")
	}
	s.mu.Unlock()

	s.ch.Send(values...)
	return nil
}

// Subscribe starts a broadcast subscription to the socket's inbound frames.
// Available even while disconnected: a subscriber may begin waiting before a
// peer ever connects.
func (s *Socket) Subscribe() *channel.Subscription {
	return s.ch.Subscribe()
}

// ConnectCap returns the capability another socket needs to initiate a
// connection to this one.
func (s *Socket) ConnectCap() ConnectCap {
	return ConnectCap{peerID: s.id, offer: s.Offer}
}

// Offer produces a one-shot connection-offer capability, the responder side
// of the handshake. The caller hands the offer to exactly one other party,
// which completes the connection by invoking it. Fails with
// ALREADY_CONNECTED while connected.
func (s *Socket) Offer() (Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil, types.NewError(types.ErrCodeAlreadyConnected,
			"socket already connected to peer "+s.complement.peerID.String())
	}

	used := false
	return func(peer Peer) error {
		return s.accept(&used, peer)
	}, nil
}

// accept completes a connection offer with the remote's capabilities. If the
// remote presented its own offer (three-capability form), the reciprocal
// link is completed before accept returns, so both ends connect in one round
// trip.
func (s *Socket) accept(used *bool, peer Peer) error {
	s.mu.Lock()
	if s.connected {
		same := s.complement.peerID == peer.ID
		s.mu.Unlock()
		if same {
			return nil
		}
		return types.NewError(types.ErrCodeAlreadyConnected,
			"socket already connected to a different peer")
	}
	if *used {
		s.mu.Unlock()
		return types.NewError(types.ErrCodeOfferUsed, "connection offer already used")
	}
	if peer.Receive == nil || peer.Disconnect == nil {
		s.mu.Unlock()
		return types.NewError(types.ErrCodeInvalidArgument,
			"peer must supply receive and disconnect capabilities")
	}

	*used = true
	s.complement = complement{
		peerID:     peer.ID,
		send:       peer.Receive,
		disconnect: peer.Disconnect,
	}
	s.connected = true
	reciprocal := peer.Offer
	s.mu.Unlock()

	if reciprocal != nil {
		// Complete the remote end with our own two-capability bundle.
		err := reciprocal(Peer{
			ID:         s.id,
			Receive:    s.ch.Receive,
			Disconnect: s.Disconnect,
		})
		if err != nil {
			// The remote never connected; roll back so no torn state remains.
			s.mu.Lock()
			s.connected = false
			s.complement = complement{}
			s.mu.Unlock()
			return err
		}
	}

	s.logger.Debug("Connection established", "peer_id", peer.ID)
	return nil
}

// Connect initiates the handshake against a peer's connect capability.
// Idempotent while connected to the same peer; fails with ALREADY_CONNECTED
// for a different peer. The context bounds the wait on the peer's offer:
// a peer capability that blocks longer than the context allows is abandoned
// and the socket stays disconnected.
func (s *Socket) Connect(ctx context.Context, peerCap ConnectCap) error {
	s.mu.Lock()
	if s.connected {
		same := s.complement.peerID == peerCap.peerID
		s.mu.Unlock()
		if same {
			return nil
		}
		return types.NewError(types.ErrCodeAlreadyConnected,
			"socket already connected to a different peer")
	}
	s.mu.Unlock()

	if peerCap.offer == nil {
		return types.NewError(types.ErrCodeInvalidArgument, "connect capability is empty")
	}

	type offerResult struct {
		offer Offer
		err   error
	}
	resultCh := make(chan offerResult, 1)
	go func() {
		offer, err := peerCap.offer()
		resultCh <- offerResult{offer: offer, err: err}
	}()

	var peerOffer Offer
	select {
	case result := <-resultCh:
		if result.err != nil {
			if types.GetErrorCode(result.err) != "" {
				return result.err
			}
			return types.WrapError(types.ErrCodeUnavailable, "peer refused connection", result.err)
		}
		peerOffer = result.offer
	case <-ctx.Done():
		return types.WrapError(types.ErrCodeCanceled, "connect canceled waiting for peer offer", ctx.Err())
	}

	ownOffer, err := s.Offer()
	if err != nil {
		return err
	}

	// Present the three-capability bundle; the responder installs it and
	// calls our offer back, completing both ends before this returns.
	if err := peerOffer(Peer{
		ID:         s.id,
		Receive:    s.ch.Receive,
		Disconnect: s.Disconnect,
		Offer:      ownOffer,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return types.NewError(types.ErrCodeInternal, "peer offer completed without reciprocal connection")
	}

	s.logger.Debug("Connected to peer", "peer_id", peerCap.peerID)
	return nil
}

// Disconnect tears the connection down on both sides: the peer's disconnect
// capability is invoked and the owned channel delivers end-of-stream to any
// active subscription. A no-op while disconnected.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	peerDisconnect := s.complement.disconnect
	peerID := s.complement.peerID
	s.connected = false
	s.complement = complement{}
	s.mu.Unlock()

	// The peer's disconnect calls back into ours, which is a no-op by now.
	if peerDisconnect != nil {
		peerDisconnect()
	}
	s.ch.Terminate()

	s.logger.Debug("Disconnected", "peer_id", peerID)
}

// Stats returns statistics about the socket
func (s *Socket) Stats() SocketStats {
	s.mu.Lock()
	connected := s.connected
	peerID := s.complement.peerID
	s.mu.Unlock()

	return SocketStats{
		ID:        s.id,
		Connected: connected,
		PeerID:    peerID,
		Channel:   s.ch.Stats(),
	}
}

// String returns a string representation of the socket
func (s *Socket) String() string {
	stats := s.Stats()
	return fmt.Sprintf("Socket{ID: %s, Connected: %t, Peer: %s}",
		stats.ID, stats.Connected, stats.PeerID)
}

// SocketStats represents socket statistics
type SocketStats struct {
	ID        types.ID      `json:"id"`
	Connected bool          `json:"connected"`
	PeerID    types.ID      `json:"peer_id,omitempty"`
	Channel   channel.Stats `json:"channel"`
}

// String returns a string representation of the stats
func (s SocketStats) String() string {
	return fmt.Sprintf("SocketStats{ID: %s, Connected: %t, Peer: %s, %s}",
		s.ID, s.Connected, s.PeerID, s.Channel)
}
