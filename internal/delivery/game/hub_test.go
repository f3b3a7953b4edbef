package game

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goban/internal/domain/game"
	"goban/internal/session"
)

// dialTestPeer spins up a websocket endpoint that registers every incoming
// connection with the hub and returns the client side plus the peer handle.
func dialTestPeer(t *testing.T, hub *Hub, gameID string) (*websocket.Conn, *Peer) {
	t.Helper()
	ready := make(chan *Peer, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ready <- hub.Register(gameID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case p := <-ready:
		return client, p
	case <-time.After(2 * time.Second):
		t.Fatal("peer was not registered")
		return nil, nil
	}
}

func readEvent(t *testing.T, client *websocket.Conn) session.Event {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	var ev session.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubBroadcastsToPeers(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	client, peer := dialTestPeer(t, hub, "game-1")

	hub.Send("game-1", session.Event{Type: session.EventMoveMade, Payload: map[string]int{"x": 3}})
	ev := readEvent(t, client)
	require.Equal(t, session.EventMoveMade, ev.Type)

	// Чужая партия этому peer ничего не шлёт.
	hub.Send("game-2", session.Event{Type: session.EventGameFinished})
	hub.Send("game-1", session.Event{Type: session.EventTimeUpdate})
	ev = readEvent(t, client)
	require.Equal(t, session.EventTimeUpdate, ev.Type)

	hub.Unregister("game-1", peer)
	// Отписанный peer больше не получает событий; Send не паникует.
	hub.Send("game-1", session.Event{Type: session.EventMoveMade})
}

func TestPeerSendTo(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())
	client, peer := dialTestPeer(t, hub, "game-1")

	peer.SendTo(session.Event{Type: "error", Payload: map[string]string{"message": "not your turn"}})
	ev := readEvent(t, client)
	require.Equal(t, "error", ev.Type)
}

func TestHubObserverSeesEveryEvent(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	var mu sync.Mutex
	var seen []string
	hub.SetObserver(func(sessionID string, event session.Event) {
		mu.Lock()
		seen = append(seen, sessionID+":"+event.Type)
		mu.Unlock()
	})

	hub.Send("g1", session.Event{Type: session.EventMoveMade})
	hub.Send("g2", session.Event{Type: session.EventGameFinished})

	// Наблюдатель работает на своей горутине, порядок очереди сохраняется.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"g1:moveMade", "g2:gameFinished"}, seen)
	mu.Unlock()
}

// Наблюдатель в проде берёт мьютекс сессии (Snapshot для SGF-кэша), а Send
// вызывается из-под этого же мьютекса. Ход обязан завершаться, а не виснуть.
func TestHubObserverMayLockSession(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	s := session.New(zap.NewNop().Sugar(), hub, session.Config{
		BoardSize: 9,
		Ruleset:   game.RulesetChinese,
	}, "00001", nil)

	snapshots := make(chan session.Snapshot, 8)
	hub.SetObserver(func(sessionID string, event session.Event) {
		if event.Type == session.EventMoveMade {
			snapshots <- s.Snapshot()
		}
	})

	_, err := s.Join("alice", game.Black)
	require.NoError(t, err)
	_, err = s.Join("bob", game.White)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.ApplyMove("alice", game.Position{X: 4, Y: 4}) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ApplyMove did not return: observer blocked the session")
	}

	select {
	case snap := <-snapshots:
		require.Len(t, snap.History, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("observer never saw the move event")
	}
}
