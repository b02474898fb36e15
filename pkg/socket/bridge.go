package socket

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"

	"github.com/capwire/capwire/internal/logger"
	"github.com/capwire/capwire/pkg/types"
	"github.com/gorilla/websocket"
)

// Bridge adapters wire a fresh socket to an external transport: the socket's
// outbound frames go out through the transport's native send mechanism, and
// the transport's inbound data and close events feed the socket's receive
// and disconnect. Each supported transport shape has its own adapter; there
// is no structural inspection.
//
// Bridging is best effort: a mid-stream transport failure is forwarded as a
// disconnect only, with no error propagation to in-flight sends.

// BridgePeer wires a fresh socket to another in-process socket by running
// the ordinary handshake against it.
func BridgePeer(ctx context.Context, external *Socket, log *logger.Logger) (*Socket, error) {
	s := New(log)
	if err := s.Connect(ctx, external.ConnectCap()); err != nil {
		return nil, err
	}
	return s, nil
}

// BridgeWebsocket wires a fresh socket to a websocket connection. Frames are
// carried as JSON arrays, one per websocket message. The caller must not
// write to the connection concurrently; the adapter is the sole writer.
func BridgeWebsocket(conn *websocket.Conn, log *logger.Logger) *Socket {
	var mu sync.Mutex
	s := newBridged(log, "websocket",
		func(frame types.Frame) error {
			mu.Lock()
			defer mu.Unlock()
			return conn.WriteJSON(frame)
		},
		func() {
			conn.Close()
		})

	go func() {
		for {
			var frame types.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				s.logger.Debug("Websocket bridge closed", "error", err)
				s.Disconnect()
				return
			}
			s.ch.Receive(frame)
		}
	}()

	return s
}

// BridgeConn wires a fresh socket to a byte-stream connection, carrying
// frames as a JSON stream.
func BridgeConn(conn net.Conn, log *logger.Logger) *Socket {
	s := bridgeReadWriter(conn, conn, log, "conn", func() {
		conn.Close()
	})
	return s
}

// BridgeStream wires a fresh socket to a readable/writable stream pair,
// carrying frames as a JSON stream. If the writer implements io.Closer it is
// closed on disconnect.
func BridgeStream(r io.Reader, w io.Writer, log *logger.Logger) *Socket {
	closeFn := func() {}
	if c, ok := w.(io.Closer); ok {
		closeFn = func() { c.Close() }
	}
	return bridgeReadWriter(r, w, log, "stream", closeFn)
}

// bridgeReadWriter is the shared JSON-codec adapter behind BridgeConn and
// BridgeStream.
func bridgeReadWriter(r io.Reader, w io.Writer, log *logger.Logger, kind string, closeFn func()) *Socket {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	s := newBridged(log, kind,
		func(frame types.Frame) error {
			mu.Lock()
			defer mu.Unlock()
			return enc.Encode(frame)
		},
		closeFn)

	go func() {
		dec := json.NewDecoder(r)
		for {
			var frame types.Frame
			if err := dec.Decode(&frame); err != nil {
				if err != io.EOF {
					s.logger.Debug("Stream bridge closed", "error", err)
				}
				s.Disconnect()
				return
			}
			s.ch.Receive(frame)
		}
	}()

	return s
}

// newBridged creates a socket already connected to a synthetic peer backed
// by the given write and close functions. A failed write tears the bridge
// down.
func newBridged(log *logger.Logger, kind string, write func(types.Frame) error, closeFn func()) *Socket {
	s := New(log)

	s.mu.Lock()
	s.complement = complement{
		peerID: types.ID(kind + "-" + types.GenerateID().String()),
		send: func(frame types.Frame) {
			if err := write(frame); err != nil {
				s.logger.Warn("Bridge write failed, disconnecting", "transport", kind, "error", err)
				s.Disconnect()
			}
		},
		disconnect: closeFn,
	}
	s.connected = true
	s.mu.Unlock()

	s.logger.Debug("Bridge established", "transport", kind)
	return s
}
