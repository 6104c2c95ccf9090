package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_AddAndList(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Add("conn-1", "alice")
	req.Equal([]string{"alice"}, tracker.OnlineUsernames())

	tracker.Add("conn-2", "bob")
	req.ElementsMatch([]string{"alice", "bob"}, tracker.OnlineUsernames())
}

func TestTracker_LastWriteWinsPerConnection(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Add("conn-1", "alice")
	tracker.Add("conn-1", "alicia")

	req.Equal([]string{"alicia"}, tracker.OnlineUsernames())
	req.False(tracker.IsOnline("alice"))
}

func TestTracker_DeduplicatesDisplayNames(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	// 同じ表示名で2接続
	tracker.Add("conn-1", "alice")
	tracker.Add("conn-2", "alice")

	req.Equal([]string{"alice"}, tracker.OnlineUsernames())

	// 片方を切断してもaliceはまだオンライン
	tracker.Remove("conn-1")
	req.Equal([]string{"alice"}, tracker.OnlineUsernames())
	req.True(tracker.IsOnline("alice"))

	tracker.Remove("conn-2")
	req.Empty(tracker.OnlineUsernames())
	req.False(tracker.IsOnline("alice"))
}

func TestTracker_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Add("conn-1", "alice")
	tracker.Remove("conn-1")
	tracker.Remove("conn-1")
	tracker.Remove("never-added")

	req.Empty(tracker.OnlineUsernames())
}

func TestTracker_ListOrderIsDeterministic(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Add("conn-3", "carol")
	tracker.Add("conn-1", "alice")
	tracker.Add("conn-2", "bob")

	first := tracker.OnlineUsernames()
	for i := 0; i < 10; i++ {
		req.Equal(first, tracker.OnlineUsernames())
	}
	req.Equal([]string{"alice", "bob", "carol"}, first)
}

func TestTracker_ConnectDisconnectScenario(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.Add("conn-alice", "alice")
	req.Equal([]string{"alice"}, tracker.OnlineUsernames())

	tracker.Add("conn-bob", "bob")
	req.ElementsMatch([]string{"alice", "bob"}, tracker.OnlineUsernames())

	tracker.Remove("conn-alice")
	req.Equal([]string{"bob"}, tracker.OnlineUsernames())
}

func TestTracker_ConcurrentAddRemove(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			name := fmt.Sprintf("user-%d", n)
			tracker.Add(connID, name)
			tracker.OnlineUsernames()
			if n%2 == 0 {
				tracker.Remove(connID)
			}
		}(i)
	}
	wg.Wait()

	// 静止後は奇数番の接続だけが残る
	names := tracker.OnlineUsernames()
	req.Len(names, workers/2)
	for i := 1; i < workers; i += 2 {
		req.True(tracker.IsOnline(fmt.Sprintf("user-%d", i)))
	}
}
