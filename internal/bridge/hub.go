package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/mhacwifi/internal/logging"
	"github.com/muurk/mhacwifi/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	subscriberSend = 32
)

// Update is a characteristic value change pushed to subscribers
type Update struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// subscriber is one websocket connection. Writes happen only on the
// writer goroutine.
type subscriber struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// hub tracks subscribers and the last broadcast value of each characteristic
type hub struct {
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[*subscriber]struct{}
	last    map[string]float64
}

func newHub(m *metrics.Metrics) *hub {
	return &hub{
		metrics: m,
		clients: make(map[*subscriber]struct{}),
		last:    make(map[string]float64),
	}
}

// add registers a connection and queues the known values for it
func (h *hub) add(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberSend)}

	h.mu.Lock()
	h.clients[sub] = struct{}{}
	for name, value := range h.last {
		if data, err := json.Marshal(Update{Name: name, Value: value}); err == nil {
			select {
			case sub.send <- data:
			default:
			}
		}
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SubscriberConnected()
	}
	return sub
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.clients[sub]
	delete(h.clients, sub)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	if h.metrics != nil {
		h.metrics.SubscriberDisconnected()
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// apply records values and returns the ones that changed since the last call
func (h *hub) apply(values map[string]float64) []Update {
	h.mu.Lock()
	defer h.mu.Unlock()

	var changed []Update
	for name, value := range values {
		if prev, ok := h.last[name]; ok && prev == value {
			continue
		}
		h.last[name] = value
		changed = append(changed, Update{Name: name, Value: value})
	}
	return changed
}

// broadcast queues updates for every subscriber. A subscriber whose queue
// is full is disconnected.
func (h *hub) broadcast(updates ...Update) {
	if len(updates) == 0 {
		return
	}

	payloads := make([][]byte, 0, len(updates))
	for _, u := range updates {
		data, err := json.Marshal(u)
		if err != nil {
			continue
		}
		payloads = append(payloads, data)
	}

	h.mu.Lock()
	var slow []*subscriber
	for sub := range h.clients {
		for _, data := range payloads {
			select {
			case sub.send <- data:
			default:
				slow = append(slow, sub)
			}
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		logging.Warn("Dropping slow subscriber", zap.String("remote_addr", sub.conn.RemoteAddr().String()))
		h.remove(sub)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.clients))
	for sub := range h.clients {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub)
	}
}

// writePump sends queued messages and pings until the queue is closed
func (h *hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case data, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge shutting down"))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// readPump discards client messages and detects disconnects
func (h *hub) readPump(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
