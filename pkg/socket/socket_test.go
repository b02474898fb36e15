package socket

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/capwire/capwire/pkg/channel"
	"github.com/capwire/capwire/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func nextFrame(t *testing.T, sub *channel.Subscription) types.Frame {
	t.Helper()
	frame, err := sub.Next(testContext(t))
	require.NoError(t, err)
	return frame
}

func TestNewSocket(t *testing.T) {
	s := New(nil)
	require.NotNil(t, s)

	assert.False(t, s.IsConnected())
	assert.False(t, s.ID().IsEmpty())

	err := s.Send("anything")
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeNotConnected))
}

func TestHandshakeSymmetry(t *testing.T) {
	a := New(nil)
	b := New(nil)

	subA := a.Subscribe()
	subB := b.Subscribe()

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	assert.True(t, a.IsConnected())
	assert.True(t, b.IsConnected())

	require.NoError(t, a.Send("from-a"))
	frame := nextFrame(t, subB)
	assert.Equal(t, "from-a", frame[0])

	require.NoError(t, b.Send("from-b"))
	frame = nextFrame(t, subA)
	assert.Equal(t, "from-b", frame[0])
}

func TestConnectIdempotentSamePeer(t *testing.T) {
	a := New(nil)
	b := New(nil)

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))
	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	assert.True(t, a.IsConnected())
	assert.True(t, b.IsConnected())
}

func TestCrossConnectRejected(t *testing.T) {
	a := New(nil)
	b := New(nil)
	c := New(nil)

	subB := b.Subscribe()
	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	// Initiating toward a third socket while connected fails and leaves the
	// existing connection intact.
	err := a.Connect(testContext(t), c.ConnectCap())
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeAlreadyConnected))

	assert.True(t, a.IsConnected())
	assert.False(t, c.IsConnected())

	require.NoError(t, a.Send("still-wired"))
	assert.Equal(t, "still-wired", nextFrame(t, subB)[0])

	// The busy responder also rejects a new initiator.
	err = c.Connect(testContext(t), a.ConnectCap())
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeAlreadyConnected))
	assert.False(t, c.IsConnected())
}

func TestDisconnectPropagatesAndIsIdempotent(t *testing.T) {
	a := New(nil)
	b := New(nil)

	subA := a.Subscribe()
	subB := b.Subscribe()

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	a.Disconnect()
	assert.False(t, a.IsConnected())
	assert.False(t, b.IsConnected())

	// Both sides' subscriptions observe end-of-stream.
	_, err := subA.Next(testContext(t))
	assert.Equal(t, io.EOF, err)
	_, err = subB.Next(testContext(t))
	assert.Equal(t, io.EOF, err)

	// Further disconnects on either side are no-ops.
	a.Disconnect()
	b.Disconnect()
	assert.False(t, a.IsConnected())
	assert.False(t, b.IsConnected())
}

func TestDisconnectFromResponderSide(t *testing.T) {
	a := New(nil)
	b := New(nil)

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	b.Disconnect()
	assert.False(t, a.IsConnected())
	assert.False(t, b.IsConnected())

	err := a.Send("too-late")
	assert.True(t, types.IsErrCode(err, types.ErrCodeNotConnected))
}

func TestReconnectAfterDisconnect(t *testing.T) {
	a := New(nil)
	b := New(nil)
	c := New(nil)

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))
	a.Disconnect()

	// Reconnect to a different peer.
	require.NoError(t, a.Connect(testContext(t), c.ConnectCap()))
	assert.True(t, a.IsConnected())
	assert.True(t, c.IsConnected())
	assert.False(t, b.IsConnected())

	// And back to the original peer after another teardown.
	c.Disconnect()
	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))
	assert.True(t, a.IsConnected())
	assert.True(t, b.IsConnected())
}

func TestSubscribeBeforeConnect(t *testing.T) {
	a := New(nil)
	b := New(nil)

	// Subscribing is allowed while disconnected; the subscriber just waits.
	subB := b.Subscribe()

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))
	require.NoError(t, a.Send("first-contact"))

	assert.Equal(t, "first-contact", nextFrame(t, subB)[0])
}

func TestOfferOneShot(t *testing.T) {
	b := New(nil)

	offer, err := b.Offer()
	require.NoError(t, err)

	other := New(nil)
	require.NoError(t, offer(Peer{
		ID:         other.ID(),
		Receive:    func(types.Frame) {},
		Disconnect: func() {},
	}))
	assert.True(t, b.IsConnected())

	// Re-presenting the same peer is idempotent.
	require.NoError(t, offer(Peer{
		ID:         other.ID(),
		Receive:    func(types.Frame) {},
		Disconnect: func() {},
	}))

	// Once the socket is free again the spent offer stays spent.
	b.Disconnect()
	err = offer(Peer{
		ID:         New(nil).ID(),
		Receive:    func(types.Frame) {},
		Disconnect: func() {},
	})
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeOfferUsed))
	assert.False(t, b.IsConnected())
}

func TestOfferWhileConnected(t *testing.T) {
	a := New(nil)
	b := New(nil)

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	_, err := b.Offer()
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeAlreadyConnected))
}

func TestOfferRejectsIncompletePeer(t *testing.T) {
	b := New(nil)

	offer, err := b.Offer()
	require.NoError(t, err)

	err = offer(Peer{ID: types.GenerateID()})
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeInvalidArgument))
	assert.False(t, b.IsConnected())

	// A rejected presentation does not consume the offer.
	require.NoError(t, offer(Peer{
		ID:         types.GenerateID(),
		Receive:    func(types.Frame) {},
		Disconnect: func() {},
	}))
}

func TestConnectTimeout(t *testing.T) {
	a := New(nil)

	block := make(chan struct{})
	defer close(block)

	stuck := ConnectCap{
		peerID: types.GenerateID(),
		offer: func() (Offer, error) {
			<-block
			return nil, types.NewError(types.ErrCodeUnavailable, "never reached")
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := a.Connect(ctx, stuck)
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeCanceled))
	assert.False(t, a.IsConnected())
}

func TestConnectEmptyCapability(t *testing.T) {
	a := New(nil)

	err := a.Connect(testContext(t), ConnectCap{})
	require.Error(t, err)
	assert.True(t, types.IsErrCode(err, types.ErrCodeInvalidArgument))
}

func TestSendScenario(t *testing.T) {
	a := New(nil)
	b := New(nil)

	subB := b.Subscribe()
	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	require.NoError(t, a.Send("x"))
	require.NoError(t, a.Send("y"))

	assert.Equal(t, types.NewFrame("x"), nextFrame(t, subB))
	assert.Equal(t, types.NewFrame("y"), nextFrame(t, subB))

	// Nothing else arrives until further sends or disconnect.
	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := subB.Next(short)
	assert.True(t, types.IsErrCode(err, types.ErrCodeCanceled))

	a.Disconnect()
	_, err = subB.Next(testContext(t))
	assert.Equal(t, io.EOF, err)
}

func TestSocketStats(t *testing.T) {
	a := New(nil)
	b := New(nil)

	stats := a.Stats()
	assert.False(t, stats.Connected)
	assert.True(t, stats.PeerID.IsEmpty())

	require.NoError(t, a.Connect(testContext(t), b.ConnectCap()))

	stats = a.Stats()
	assert.True(t, stats.Connected)
	assert.Equal(t, b.ID(), stats.PeerID)

	assert.Contains(t, a.String(), string(a.ID()))
}

func TestConnectCapPeerID(t *testing.T) {
	b := New(nil)
	assert.Equal(t, b.ID(), b.ConnectCap().PeerID())
}
