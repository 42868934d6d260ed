package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Frame{Channel: "0", Raw: []byte("hi")})

	select {
	case f := <-ch:
		require.Equal(t, "hi", string(f.Raw))
	case <-time.After(time.Second):
		require.Fail(t, "no frame received")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(4)
	require.Equal(t, 1, b.SubscriberCount())
	unsub()
	require.Equal(t, 0, b.SubscriberCount())
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	for i := 0; i < 10; i++ {
		b.Publish(Frame{Channel: "0", Raw: []byte{byte(i)}})
	}
	require.Len(t, ch, 1)
}
