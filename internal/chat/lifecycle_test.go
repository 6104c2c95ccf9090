package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kotonoha/internal/hub"
	"kotonoha/internal/model"
	"kotonoha/internal/presence"
)

func newTestLifecycle() (*Lifecycle, *presence.Tracker, *hub.Hub) {
	tracker := presence.NewTracker()
	h := hub.New()
	return NewLifecycle(tracker, h), tracker, h
}

func TestLifecycle_ConnectRegistersAndBroadcasts(t *testing.T) {
	req := require.New(t)
	lc, tracker, h := newTestLifecycle()
	sub := h.Subscribe(hub.TopicOnlineUsers)

	req.True(lc.Connect("conn-1", "alice"))
	req.True(tracker.IsOnline("alice"))

	var event model.PresenceEvent
	decodeEvent(t, sub, &event)
	req.Equal(model.EventOnlineUsers, event.Type)
	req.Equal([]string{"alice"}, event.OnlineUsers)
}

func TestLifecycle_ConnectTrimsUsername(t *testing.T) {
	req := require.New(t)
	lc, tracker, _ := newTestLifecycle()

	req.True(lc.Connect("conn-1", "  alice  "))
	req.True(tracker.IsOnline("alice"))
}

func TestLifecycle_BlankUsernameSkipsPresence(t *testing.T) {
	req := require.New(t)
	lc, tracker, h := newTestLifecycle()
	sub := h.Subscribe(hub.TopicOnlineUsers)

	// 空白のみのユーザー名は在席登録されず配信もされない
	req.False(lc.Connect("conn-1", "   "))
	req.False(lc.Connect("conn-2", ""))

	req.Empty(tracker.OnlineUsernames())
	req.Empty(sub.C)

	// 未登録接続の切断も同様に静か
	lc.Disconnect("conn-1")
	req.Empty(sub.C)
}

func TestLifecycle_DisconnectRemovesAndBroadcasts(t *testing.T) {
	req := require.New(t)
	lc, tracker, h := newTestLifecycle()

	req.True(lc.Connect("conn-alice", "alice"))
	req.True(lc.Connect("conn-bob", "bob"))

	sub := h.Subscribe(hub.TopicOnlineUsers)

	lc.Disconnect("conn-alice")
	req.False(tracker.IsOnline("alice"))
	req.True(tracker.IsOnline("bob"))

	var event model.PresenceEvent
	decodeEvent(t, sub, &event)
	req.Equal([]string{"bob"}, event.OnlineUsers)
}

func TestLifecycle_DisconnectExactlyOnce(t *testing.T) {
	req := require.New(t)
	lc, _, h := newTestLifecycle()

	req.True(lc.Connect("conn-1", "alice"))

	sub := h.Subscribe(hub.TopicOnlineUsers)

	lc.Disconnect("conn-1")
	req.Len(sub.C, 1)
	<-sub.C

	// 2回目の切断は何も配信しない
	lc.Disconnect("conn-1")
	req.Empty(sub.C)
}

func TestLifecycle_SharedDisplayName(t *testing.T) {
	req := require.New(t)
	lc, tracker, h := newTestLifecycle()

	req.True(lc.Connect("conn-1", "alice"))
	req.True(lc.Connect("conn-2", "alice"))

	sub := h.Subscribe(hub.TopicOnlineUsers)

	// 片方の接続が切れてもaliceは在席のまま
	lc.Disconnect("conn-1")
	req.True(tracker.IsOnline("alice"))

	var event model.PresenceEvent
	decodeEvent(t, sub, &event)
	req.Equal([]string{"alice"}, event.OnlineUsers)
}
