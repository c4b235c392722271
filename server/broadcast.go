package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/models"
)

const broadcastInterval = 5 * time.Second

// LogSource supplies the current transaction log snapshot.
type LogSource func() []models.TransactionLogEntry

type logFrame struct {
	Type string                       `json:"type"`
	Data []models.TransactionLogEntry `json:"data"`
}

// Broadcaster pushes transaction log snapshots to every connected
// WebSocket client on a fixed interval. It runs its own HTTP listener
// so the push channel survives API server restarts.
type Broadcaster struct {
	log      logrus.FieldLogger
	source   LogSource
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	running bool
	stopCh  chan struct{}
	srv     *http.Server
}

// NewBroadcaster builds a stopped broadcaster around a log source.
func NewBroadcaster(log logrus.FieldLogger, source LogSource) *Broadcaster {
	return &Broadcaster{
		log:      log,
		source:   source,
		interval: broadcastInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the API layer owns origin policy; the push channel is open
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: map[*websocket.Conn]struct{}{},
	}
}

// Handler upgrades an HTTP request and registers the client.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		b.register(conn)
		go b.readUntilClosed(conn)
	})
}

// Start begins listening on addr and arms the broadcast timer. Starting
// a running broadcaster is a no-op.
func (b *Broadcaster) Start(addr string) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.stopCh = make(chan struct{})
	stop := b.stopCh
	b.srv = &http.Server{Addr: addr, Handler: b.Handler()}
	srv := b.srv
	b.mu.Unlock()

	b.log.WithField("addr", addr).Info("websocket broadcaster listening")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.log.WithError(err).Error("websocket listener failed")
		}
	}()
	go b.loop(stop)
}

// Stop shuts the listener, disconnects all clients and halts the timer.
// Idempotent.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopCh)
	b.stopCh = nil
	srv := b.srv
	b.srv = nil
	for conn := range b.clients {
		conn.Close()
	}
	b.clients = map[*websocket.Conn]struct{}{}
	b.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func (b *Broadcaster) register(conn *websocket.Conn) {
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	n := len(b.clients)
	b.mu.Unlock()
	b.log.WithField("clients", n).Info("websocket client connected")
}

func (b *Broadcaster) unregister(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// readUntilClosed drains inbound frames so pings are answered and the
// peer's close is noticed promptly.
func (b *Broadcaster) readUntilClosed(conn *websocket.Conn) {
	defer b.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.broadcast()
		}
	}
}

func (b *Broadcaster) broadcast() {
	logs := b.source()
	if logs == nil {
		logs = []models.TransactionLogEntry{}
	}
	payload, err := json.Marshal(logFrame{Type: "transaction_logs", Data: logs})
	if err != nil {
		b.log.WithError(err).Error("marshal log frame")
		return
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.log.WithError(err).Warn("dropping websocket client")
			b.unregister(conn)
		}
	}
}
