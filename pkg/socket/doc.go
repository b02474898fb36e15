// Package socket layers a connection-establishment handshake and lifecycle
// on top of a broadcast channel.
//
// A Socket owns exactly one channel and is connected to at most one peer
// socket at a time. Two sockets connect by exchanging small sets of callable
// capabilities (receive, disconnect, offer); neither side ever holds a
// reference into the other's internals beyond those capabilities.
//
// The socket system provides:
//
//   - A two-state lifecycle (disconnected/connected) with idempotent,
//     peer-propagating disconnect
//   - A capability handshake that completes both ends in one round trip
//   - One-shot connection offers a responder can hand to exactly one party
//   - Broadcast subscriptions to inbound frames, available even while
//     disconnected
//   - Tagged bridge adapters for external transports (websocket, net.Conn,
//     reader/writer pairs)
//
// Example usage:
//
//	a := socket.New(nil)
//	b := socket.New(nil)
//
//	// Connect a to b; both ends become connected.
//	if err := a.Connect(ctx, b.ConnectCap()); err != nil {
//	    log.Fatal(err)
//	}
//
//	sub := b.Subscribe()
//	a.Send("hello", 42)
//	frame, err := sub.Next(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Tearing down either side tears down both.
//	a.Disconnect()
package socket
