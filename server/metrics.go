package main

import (
	"sync"
	"time"
)

// Event types for live metrics
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtPlayerJoin   = "player_join"
	EvtRoundStart   = "round_start"
	EvtRoundEnd     = "round_end"
	EvtMatchEnd     = "match_end"
)

// MetricsEvent represents a single trackable event
type MetricsEvent struct {
	Type      string
	Detail    string // e.g. round outcome or match winner
	Timestamp time.Time
}

// Metrics counts events with a background aggregator so the game loop
// never waits on it
type Metrics struct {
	events chan MetricsEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu       sync.RWMutex
	counts   map[string]int
	details  map[string]int // "type/detail" -> count
	lastSeen time.Time
}

// MetricsSnapshot is served on /stats
type MetricsSnapshot struct {
	Events    map[string]int `json:"events"`
	Details   map[string]int `json:"details"`
	LastEvent time.Time      `json:"last_event"`
	Sessions  int            `json:"sessions"`
	Conns     int            `json:"conns"`
}

// NewMetrics creates and starts the aggregator
func NewMetrics() *Metrics {
	m := &Metrics{
		events:  make(chan MetricsEvent, 1024),
		stop:    make(chan struct{}),
		counts:  make(map[string]int),
		details: make(map[string]int),
	}
	m.wg.Add(1)
	go m.aggregator()
	return m
}

// Track enqueues an event (non-blocking)
func (m *Metrics) Track(evtType, detail string) {
	select {
	case m.events <- MetricsEvent{Type: evtType, Detail: detail, Timestamp: time.Now().UTC()}:
	default:
		// Channel full, drop the event
	}
}

// Stop drains pending events and shuts down the aggregator
func (m *Metrics) Stop() {
	m.once.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

// Snapshot returns a copy of the counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := MetricsSnapshot{
		Events:    make(map[string]int, len(m.counts)),
		Details:   make(map[string]int, len(m.details)),
		LastEvent: m.lastSeen,
	}
	for k, v := range m.counts {
		s.Events[k] = v
	}
	for k, v := range m.details {
		s.Details[k] = v
	}
	return s
}

// Count returns the number of events of one type seen so far
func (m *Metrics) Count(evtType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[evtType]
}

func (m *Metrics) aggregator() {
	defer m.wg.Done()
	for {
		select {
		case evt := <-m.events:
			m.record(evt)
		case <-m.stop:
			for {
				select {
				case evt := <-m.events:
					m.record(evt)
				default:
					return
				}
			}
		}
	}
}

func (m *Metrics) record(evt MetricsEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[evt.Type]++
	if evt.Detail != "" {
		m.details[evt.Type+"/"+evt.Detail]++
	}
	m.lastSeen = evt.Timestamp
}
