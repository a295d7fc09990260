package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "POST", 201, 2*time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, 4*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")

	snap := m.Snapshot()
	if len(snap.Requests) != 2 {
		t.Fatalf("expected 2 request rows, got %d", len(snap.Requests))
	}
	if snap.Requests[0].Key != "/auth/login|POST|401" {
		t.Fatalf("rows not sorted: %+v", snap.Requests)
	}
	tickets := snap.Requests[1]
	if tickets.Count != 2 || tickets.AvgLatencyMS != 3 {
		t.Fatalf("unexpected ticket row %+v", tickets)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Count != 1 {
		t.Fatalf("unexpected errors %+v", snap.Errors)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "E")
	if snap := m.Snapshot(); len(snap.Requests) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}
