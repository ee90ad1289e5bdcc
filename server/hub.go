package main

import (
	"sync"

	"gravity-artillery/duel"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	auth    *Auth
	metrics *Metrics
}

// NewHub creates a new Hub whose rooms play with cfg. See NewSessionManager
// for how seed is used.
func NewHub(cfg duel.Config, seed uint64) *Hub {
	metrics := NewMetrics()
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(cfg, seed, metrics),
		ipConns:    make(map[string]int),
		auth:       NewAuth(),
		metrics:    metrics,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// A dropped connection keeps its seat so the player can resume
			if client.sessionID != "" {
				h.sessions.Disconnect(client.sessionID, client.playerID)
			}
		}
	}
}

// Shutdown stops every room and the metrics aggregator
func (h *Hub) Shutdown() {
	h.sessions.StopAll()
	h.metrics.Stop()
}

// Stats returns the live counters served on /stats
func (h *Hub) Stats() MetricsSnapshot {
	s := h.metrics.Snapshot()
	s.Sessions = h.sessions.Count()
	s.Conns = h.TotalConns()
	return s
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
