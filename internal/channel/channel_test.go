package channel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for channel event")
	}
	return Event{}
}

func kinds(t *testing.T, sub *Subscription, n int) []EventKind {
	t.Helper()
	out := make([]EventKind, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, nextEvent(t, sub).Kind)
	}
	return out
}

func connected(t *testing.T) (*Channel, *MemoryTransport, *Subscription) {
	t.Helper()
	tr := NewMemoryTransport()
	ch := New(tr, nil)
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))
	require.Equal(t, EventOpen, nextEvent(t, sub).Kind)
	t.Cleanup(func() { ch.Close() })
	return ch, tr, sub
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "open", EventOpen.String())
	assert.Equal(t, "message", EventMessage.String())
	assert.Equal(t, "close", EventClose.String())
	assert.Equal(t, "error", EventError.String())
	assert.Equal(t, "EventKind(9)", EventKind(9).String())
}

func TestChannel_ConnectDeliversMessagesInOrder(t *testing.T) {
	ch, tr, sub := connected(t)
	assert.True(t, ch.Connected())
	assert.True(t, ch.Running())

	ctx := context.Background()
	for _, frame := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		require.True(t, tr.Inject(ctx, []byte(frame)))
	}
	for _, want := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		ev := nextEvent(t, sub)
		require.Equal(t, EventMessage, ev.Kind)
		assert.Equal(t, want, string(ev.Data))
		assert.False(t, ev.Time.IsZero())
	}
}

func TestChannel_FanOut(t *testing.T) {
	ch, tr, first := connected(t)
	second := ch.Subscribe()

	require.True(t, tr.Inject(context.Background(), []byte("x")))
	assert.Equal(t, "x", string(nextEvent(t, first).Data))
	assert.Equal(t, "x", string(nextEvent(t, second).Data))
}

func TestChannel_Send(t *testing.T) {
	ch, tr, _ := connected(t)
	require.NoError(t, ch.Send(context.Background(), []byte(`{"type":"command"}`)))
	require.Len(t, tr.Sent(), 1)
	assert.Equal(t, `{"type":"command"}`, string(tr.Sent()[0]))

	tr.SendErr = ErrWriteFailed
	assert.ErrorIs(t, ch.Send(context.Background(), []byte("y")), ErrWriteFailed)
}

func TestChannel_SendWhileDisconnected(t *testing.T) {
	tr := NewMemoryTransport()
	ch := New(tr, nil)
	assert.ErrorIs(t, ch.Send(context.Background(), []byte("x")), ErrClosed)
	assert.Empty(t, tr.Sent())
}

func TestChannel_RemoteClose(t *testing.T) {
	ch, tr, sub := connected(t)
	require.True(t, tr.CloseRemote(context.Background()))
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
	require.Eventually(t, func() bool { return !ch.Running() }, waitTimeout, 5*time.Millisecond)
	assert.False(t, ch.Connected())
}

func TestChannel_TransportFailure(t *testing.T) {
	ch, tr, sub := connected(t)
	boom := errors.New("link lost")
	require.True(t, tr.Fail(context.Background(), boom))

	ev := nextEvent(t, sub)
	require.Equal(t, EventError, ev.Kind)
	assert.ErrorIs(t, ev.Err, boom)
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
	require.Eventually(t, func() bool { return !ch.Running() }, waitTimeout, 5*time.Millisecond)
}

func TestChannel_RefusedConnection(t *testing.T) {
	tr := NewMemoryTransport()
	tr.Refuse = errors.New("connection refused")
	ch := New(tr, nil)
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))

	assert.Equal(t, []EventKind{EventError, EventClose}, kinds(t, sub, 2))
	require.Eventually(t, func() bool { return !ch.Running() }, waitTimeout, 5*time.Millisecond)
	assert.False(t, ch.Connected())
}

func TestChannel_ConnectTwice(t *testing.T) {
	ch, _, _ := connected(t)
	assert.ErrorIs(t, ch.Connect(context.Background()), ErrAlreadyRunning)
}

func TestChannel_DisconnectAndReconnect(t *testing.T) {
	ch, tr, sub := connected(t)
	ch.Disconnect()
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
	assert.False(t, ch.Running())
	assert.False(t, tr.Open())

	require.NoError(t, ch.Connect(context.Background()))
	assert.Equal(t, EventOpen, nextEvent(t, sub).Kind)
	assert.True(t, ch.Connected())
}

func TestChannel_DisconnectWhenIdle(t *testing.T) {
	ch := New(NewMemoryTransport(), nil)
	ch.Disconnect()
	assert.False(t, ch.Running())
}

func TestSubscription_Unsubscribe(t *testing.T) {
	_, tr, sub := connected(t)
	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	default:
		t.Fatal("done not closed after unsubscribe")
	}
	// Delivery to the remaining zero subscribers must not block.
	require.True(t, tr.Inject(context.Background(), []byte("after")))
}

func TestSubscription_LossyDropsWhenFull(t *testing.T) {
	ch, tr, _ := connected(t)
	lossy := ch.Subscribe(Lossy(), Buffer(1))

	ctx := context.Background()
	require.True(t, tr.Inject(ctx, []byte("1")))
	require.True(t, tr.Inject(ctx, []byte("2")))
	require.True(t, tr.Inject(ctx, []byte("3")))

	assert.Equal(t, "1", string(nextEvent(t, lossy).Data))
	assert.Equal(t, uint64(2), lossy.Dropped())
}

func TestChannel_CloseEndsSubscriptions(t *testing.T) {
	tr := NewMemoryTransport()
	ch := New(tr, nil)
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))
	nextEvent(t, sub)

	require.NoError(t, ch.Close())
	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription not ended by Close")
	}
	assert.False(t, ch.Running())
}

func TestDisabledTransport(t *testing.T) {
	ch := New(DisabledTransport{}, nil)
	sub := ch.Subscribe()
	require.NoError(t, ch.Connect(context.Background()))

	ev := nextEvent(t, sub)
	require.Equal(t, EventError, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrDisabled)
	assert.Equal(t, EventClose, nextEvent(t, sub).Kind)
	assert.ErrorIs(t, DisabledTransport{}.Send(context.Background(), nil), ErrDisabled)
	assert.Equal(t, "disabled", ch.Transport().Name())
}
