package main

import (
	"testing"
	"time"

	"gravity-artillery/duel"
)

func newTestSessions(t *testing.T) *SessionManager {
	t.Helper()
	cfg := duel.DefaultConfig()
	cfg.BodyCount = 0
	sm := NewSessionManager(cfg, 7, nil)
	t.Cleanup(sm.StopAll)
	return sm
}

func TestSessionIDIsUUID(t *testing.T) {
	sm := newTestSessions(t)
	sess := sm.CreateSession("TestArena", "")
	if sess == nil {
		t.Fatal("CreateSession returned nil")
	}
	if !uuidRegex.MatchString(sess.ID) {
		t.Errorf("session ID %q is not a valid UUID v4", sess.ID)
	}
	if sess.Locked() {
		t.Error("room without a passcode should be open")
	}
}

func TestSessionLimit(t *testing.T) {
	sm := newTestSessions(t)
	for i := 0; i < maxSessions; i++ {
		if sm.CreateSession("Room", "") == nil {
			t.Fatalf("session %d rejected below the limit", i)
		}
	}
	if sm.CreateSession("Overflow", "") != nil {
		t.Error("expected nil once the limit is reached")
	}
	if n := len(sm.ListSessions()); n != maxSessions {
		t.Errorf("expected %d listed sessions, got %d", maxSessions, n)
	}
}

func TestSessionSeedsAreSequential(t *testing.T) {
	sm := newTestSessions(t)
	if s := sm.nextSeed(); s != 7 {
		t.Errorf("expected first seed 7, got %d", s)
	}
	if s := sm.nextSeed(); s != 8 {
		t.Errorf("expected second seed 8, got %d", s)
	}
}

func TestSessionIdleRemoval(t *testing.T) {
	prev := SessionIdleTimeout
	SessionIdleTimeout = 50 * time.Millisecond
	defer func() { SessionIdleTimeout = prev }()

	sm := newTestSessions(t)
	sess := sm.CreateSession("Idle", "")
	seat, _ := sess.Game.AddPlayer("Alice", &mockBroadcaster{})
	sm.MarkActive(sess.ID)

	time.Sleep(100 * time.Millisecond)
	if sm.GetSession(sess.ID) == nil {
		t.Fatal("room with a connected player must not be removed")
	}

	sm.Disconnect(sess.ID, seat.ID)
	if !sess.Game.HasPlayer(seat.ID) {
		t.Error("disconnect should keep the seat reserved")
	}
	time.Sleep(150 * time.Millisecond)
	if sm.GetSession(sess.ID) != nil {
		t.Error("idle room should have been removed")
	}
}

func TestSessionResumeCancelsRemoval(t *testing.T) {
	prev := SessionIdleTimeout
	SessionIdleTimeout = 80 * time.Millisecond
	defer func() { SessionIdleTimeout = prev }()

	sm := newTestSessions(t)
	sess := sm.CreateSession("Resume", "")
	seat, pid := sess.Game.AddPlayer("Alice", &mockBroadcaster{})
	sm.MarkActive(sess.ID)
	sm.Disconnect(sess.ID, seat.ID)

	if err := sess.Game.Reattach(pid, seat.ID, &mockBroadcaster{}); err != nil {
		t.Fatalf("Reattach: %v", err)
	}
	sm.MarkActive(sess.ID)
	time.Sleep(150 * time.Millisecond)
	if sm.GetSession(sess.ID) == nil {
		t.Error("resumed room should survive")
	}
}
