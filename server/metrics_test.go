package main

import "testing"

func TestMetricsCounts(t *testing.T) {
	m := NewMetrics()
	m.Track(EvtRoundEnd, "void")
	m.Track(EvtRoundEnd, "both")
	m.Track(EvtRoundEnd, "void")
	m.Track(EvtMatchEnd, "player1")
	m.Stop()

	if n := m.Count(EvtRoundEnd); n != 3 {
		t.Errorf("expected 3 round ends, got %d", n)
	}
	s := m.Snapshot()
	if s.Details["round_end/void"] != 2 || s.Details["match_end/player1"] != 1 {
		t.Errorf("unexpected details %v", s.Details)
	}
	if s.LastEvent.IsZero() {
		t.Error("last event time should be set")
	}

	// Snapshot is a copy
	s.Events[EvtRoundEnd] = 99
	if m.Count(EvtRoundEnd) != 3 {
		t.Error("snapshot should not alias the counters")
	}
}

func TestMetricsStopTwice(t *testing.T) {
	m := NewMetrics()
	m.Stop()
	m.Stop()
}
