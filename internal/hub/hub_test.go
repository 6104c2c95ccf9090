package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receiveOne(t *testing.T, sub *Subscriber) []byte {
	t.Helper()
	select {
	case payload := <-sub.C:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	req := require.New(t)
	h := New()

	s1 := h.Subscribe(TopicMessages)
	s2 := h.Subscribe(TopicMessages)

	h.Publish(TopicMessages, []byte("hello"))

	req.Equal("hello", string(receiveOne(t, s1)))
	req.Equal("hello", string(receiveOne(t, s2)))
}

func TestHub_TopicIsolation(t *testing.T) {
	req := require.New(t)
	h := New()

	messages := h.Subscribe(TopicMessages)
	typing := h.Subscribe(TopicTyping)

	h.Publish(TopicMessages, []byte("hello"))

	req.Equal("hello", string(receiveOne(t, messages)))
	req.Empty(typing.C)
}

func TestHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	h := New()

	// stalledは一切読まない。相方には全件届くこと
	stalled := h.Subscribe(TopicMessages)
	healthy := h.Subscribe(TopicMessages)

	total := subscriberBuffer + 50
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			h.Publish(TopicMessages, []byte(fmt.Sprintf("m%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a stalled subscriber")
	}

	for i := 0; i < total; i++ {
		req.Equal(fmt.Sprintf("m%d", i), string(receiveOne(t, healthy)))
	}

	// stalled側はバッファ分で頭打ち
	req.Len(stalled.C, subscriberBuffer)
}

func TestHub_PerSubscriberPublishOrder(t *testing.T) {
	req := require.New(t)
	h := New()

	sub := h.Subscribe(TopicMessages)
	for i := 0; i < 20; i++ {
		h.Publish(TopicMessages, []byte(fmt.Sprintf("m%d", i)))
	}
	for i := 0; i < 20; i++ {
		req.Equal(fmt.Sprintf("m%d", i), string(receiveOne(t, sub)))
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	req := require.New(t)
	h := New()

	sub := h.Subscribe(TopicMessages, TopicTyping)
	req.Equal(1, h.SubscriberCount(TopicMessages))

	h.Unsubscribe(sub)
	req.Equal(0, h.SubscriberCount(TopicMessages))
	req.Equal(0, h.SubscriberCount(TopicTyping))

	_, open := <-sub.C
	req.False(open)

	// 二重解除は何もしない
	h.Unsubscribe(sub)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	h := New()
	// 購読者ゼロのトピックへのpublishはpanicせず捨てられる
	h.Publish(TopicOnlineUsers, []byte("nobody listens"))
	h.Publish("unknown-topic", []byte("nobody listens"))
}

func TestHub_UnsubscribedStopsReceiving(t *testing.T) {
	req := require.New(t)
	h := New()

	sub := h.Subscribe(TopicMessages)
	remaining := h.Subscribe(TopicMessages)

	h.Unsubscribe(sub)
	h.Publish(TopicMessages, []byte("after"))

	req.Equal("after", string(receiveOne(t, remaining)))
}
