package broadcaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeReceivesBroadcast(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	defer h.Unsubscribe(sub)

	h.Broadcast(42)

	select {
	case v := <-sub.C():
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("did not receive broadcast value")
	}
}

func TestHub_BroadcastFansOutToAllSubscribers(t *testing.T) {
	h := NewHub[string]()
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Broadcast("hello")

	require.Equal(t, "hello", <-a.C())
	require.Equal(t, "hello", <-b.C())
}

func TestHub_BroadcastDropsOnFullBuffer(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	defer h.Unsubscribe(sub)

	h.Broadcast(1)
	h.Broadcast(2) // buffer full, dropped rather than blocking

	assert.Equal(t, 1, <-sub.C())
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	_, ok := <-sub.C()
	assert.False(t, ok)
}

func TestHub_BroadcastAfterUnsubscribeIsNoOp(t *testing.T) {
	h := NewHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	assert.NotPanics(t, func() { h.Broadcast(99) })
}
