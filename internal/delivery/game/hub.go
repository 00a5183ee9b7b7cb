package game

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	gameuc "pylos/internal/usecase/game"
)

const (
	sendBuffer       = 64
	idlePingInterval = 20 * time.Second
	writeWait        = 10 * time.Second
)

// connection is one websocket of a client. A client may have several.
type connection struct {
	clientUUID string
	ws         *websocket.Conn
	send       chan []byte
	log        *zap.SugaredLogger

	mu         sync.Mutex
	subs       map[string]*gameuc.Subscriber
	forwarders sync.WaitGroup
}

func newConnection(clientUUID string, ws *websocket.Conn, log *zap.SugaredLogger) *connection {
	return &connection{
		clientUUID: clientUUID,
		ws:         ws,
		send:       make(chan []byte, sendBuffer),
		log:        log,
		subs:       make(map[string]*gameuc.Subscriber),
	}
}

func (c *connection) sendFrame(tag string, payload any) {
	data, err := encodeFrame(tag, payload)
	if err != nil {
		c.log.Errorw("failed to encode frame", "tag", tag, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warnw("send buffer full, frame dropped", "client", c.clientUUID, "tag", tag)
	}
}

// watch forwards every snapshot of s to this connection until unwatchAll.
func (c *connection) watch(s *gameuc.Session) {
	c.mu.Lock()
	if _, ok := c.subs[s.ID()]; ok {
		c.mu.Unlock()
		return
	}
	sub := s.Subscribe(c.clientUUID)
	c.subs[s.ID()] = sub
	c.mu.Unlock()

	c.forwarders.Add(1)
	go func() {
		defer c.forwarders.Done()
		for ev := range sub.Events() {
			c.sendFrame(TagGameState, GameStateResponse{GameUUID: ev.GameUUID, GameState: ev.Snapshot})
		}
	}()
}

func (c *connection) subscription(gameUUID string) *gameuc.Subscriber {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[gameUUID]
}

// unwatchAll stops every forwarder. After it returns nothing but the hub writes to c.send.
func (c *connection) unwatchAll(lobby *gameuc.Lobby) {
	c.mu.Lock()
	for id, sub := range c.subs {
		if s, err := lobby.Get(id); err == nil {
			s.Unsubscribe(sub)
		}
		delete(c.subs, id)
	}
	c.mu.Unlock()
	c.forwarders.Wait()
}

// writePump owns all writes to the socket and pings when the connection is idle.
func (c *connection) writePump() error {
	ticker := time.NewTicker(idlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return nil
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < idlePingInterval {
				continue
			}
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}

// Hub tracks live connections by client so that game events can reach every socket of a client.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*connection]struct{})}
}

func (h *Hub) Register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.clientUUID]
	if !ok {
		set = make(map[*connection]struct{})
		h.conns[c.clientUUID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[c.clientUUID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.conns, c.clientUUID)
	}
}

func (h *Hub) SendTo(clientUUID, tag string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns[clientUUID] {
		c.sendFrame(tag, payload)
	}
}
