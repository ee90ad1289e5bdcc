package main

import (
	"log"
	"sync"
	"time"

	"gravity-artillery/duel"
)

const maxSessions = 100

// SessionIdleTimeout is how long a room with no connected player is kept
// around for a resume before it is torn down.
var SessionIdleTimeout = 60 * time.Second

// Session represents a duel room that two players can join
type Session struct {
	ID       string
	Name     string
	Game     *Game
	passHash string
	idle     *time.Timer
}

// Locked reports whether joining requires a passcode
func (s *Session) Locked() bool {
	return s.passHash != ""
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      duel.Config
	seed     uint64
	metrics  *Metrics
}

// NewSessionManager creates a new SessionManager. A zero seed picks a
// time-based seed per room; otherwise rooms are seeded seed, seed+1, ...
func NewSessionManager(cfg duel.Config, seed uint64, metrics *Metrics) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		seed:     seed,
		metrics:  metrics,
	}
}

func (sm *SessionManager) nextSeed() uint64 {
	if sm.seed == 0 {
		return uint64(time.Now().UnixNano())
	}
	s := sm.seed
	sm.seed++
	return s
}

// CreateSession creates a new room. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name, passHash string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	game, err := NewGame(sm.cfg, sm.nextSeed(), sm.metrics)
	if err != nil {
		log.Printf("create session: %v", err)
		return nil
	}
	sess := &Session{
		ID:       GenerateUUID(),
		Name:     name,
		Game:     game,
		passHash: passHash,
	}
	sm.sessions[sess.ID] = sess
	go game.Run()

	// A room nobody joins is reclaimed like an abandoned one
	sm.scheduleIdle(sess)
	if sm.metrics != nil {
		sm.metrics.Track(EvtSessionStart, "")
	}
	log.Printf("session %s (%q) created", sess.ID, name)
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive cancels a pending idle teardown
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok && sess.idle != nil {
		sess.idle.Stop()
		sess.idle = nil
	}
}

// Disconnect detaches a dropped connection from its seat
func (sm *SessionManager) Disconnect(sessionID, playerID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.Detach(playerID)
	sm.checkIdle(sess)
}

// RemovePlayer frees a player's seat in a session
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemovePlayer(playerID)
	sm.checkIdle(sess)
}

func (sm *SessionManager) checkIdle(sess *Session) {
	if sess.Game.ConnectedCount() > 0 {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[sess.ID]; ok {
		sm.scheduleIdle(sess)
	}
}

// scheduleIdle arms the teardown timer. Callers hold sm.mu.
func (sm *SessionManager) scheduleIdle(sess *Session) {
	if sess.idle != nil {
		sess.idle.Stop()
	}
	id := sess.ID
	sess.idle = time.AfterFunc(SessionIdleTimeout, func() {
		sm.reap(id)
	})
}

func (sm *SessionManager) reap(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if !ok || sess.Game.ConnectedCount() > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()

	sess.Game.Stop()
	if sm.metrics != nil {
		sm.metrics.Track(EvtSessionEnd, "")
	}
	log.Printf("session %s removed (idle)", id)
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Locked:  sess.Locked(),
		})
	}
	return list
}

// StopAll tears down every session
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		if sess.idle != nil {
			sess.idle.Stop()
		}
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}
