package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goban/internal/session"
)

const (
	peerSendBuffer     = 32
	observerQueueSize  = 256
	wsIdlePingInterval = 30 * time.Second
	wsWriteTimeout     = 10 * time.Second
)

// Hub fans session events out to every websocket peer of a game. It
// implements session.EventSink; Send never blocks the session (slow peers
// drop frames) and never calls back into it: the observer runs on its own
// goroutine, fed through notify.
type Hub struct {
	log      *zap.SugaredLogger
	mu       sync.Mutex
	peers    map[string]map[*Peer]struct{}
	notify   chan observedEvent
	observer func(sessionID string, event session.Event)
}

type observedEvent struct {
	sessionID string
	event     session.Event
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:    log,
		peers:  make(map[string]map[*Peer]struct{}),
		notify: make(chan observedEvent, observerQueueSize),
	}
}

// SetObserver registers a side-channel notified of every event (SGF cache
// refresh). Called once at wiring time. Наблюдатель может блокироваться и
// брать мьютекс сессии, поэтому события идут через очередь, а не со стека
// отправителя.
func (h *Hub) SetObserver(fn func(sessionID string, event session.Event)) {
	h.observer = fn
	go h.runObserver()
}

func (h *Hub) runObserver() {
	for n := range h.notify {
		h.observer(n.sessionID, n.event)
	}
}

type Peer struct {
	conn *websocket.Conn
	send chan []byte
}

func (h *Hub) Send(sessionID string, event session.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("event marshal failed", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	for p := range h.peers[sessionID] {
		select {
		case p.send <- data:
		default:
			h.log.Warnw("slow peer, frame dropped", "game", sessionID, "type", event.Type)
		}
	}
	h.mu.Unlock()

	if h.observer != nil {
		select {
		case h.notify <- observedEvent{sessionID: sessionID, event: event}:
		default:
			h.log.Warnw("observer queue full, event dropped", "game", sessionID, "type", event.Type)
		}
	}
}

// Register attaches a connection to a game and starts its write pump.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) *Peer {
	p := &Peer{conn: conn, send: make(chan []byte, peerSendBuffer)}
	h.mu.Lock()
	if h.peers[sessionID] == nil {
		h.peers[sessionID] = make(map[*Peer]struct{})
	}
	h.peers[sessionID][p] = struct{}{}
	h.mu.Unlock()

	go p.writePump()
	return p
}

func (h *Hub) Unregister(sessionID string, p *Peer) {
	h.mu.Lock()
	if set, ok := h.peers[sessionID]; ok {
		if _, present := set[p]; present {
			delete(set, p)
			close(p.send)
		}
		if len(set) == 0 {
			delete(h.peers, sessionID)
		}
	}
	h.mu.Unlock()
}

// SendTo pushes one frame to a single peer (per-requester errors).
func (p *Peer) SendTo(event session.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case p.send <- data:
	default:
	}
}

// writePump serializes all writes to the connection and pings idle peers.
func (p *Peer) writePump() {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	defer p.conn.Close()

	lastWrite := time.Now()
	for {
		select {
		case msg, ok := <-p.send:
			if !ok {
				return
			}
			p.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			p.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			lastWrite = time.Now()
		}
	}
}
