package services

import (
	"testing"
	"time"
)

func TestCloseStaleSessionsClosesOnlyAbandoned(t *testing.T) {
	svc := newSessionService(t)

	staleTS := time.Now().UTC().Add(-30 * time.Minute)
	if _, err := svc.IngestSample("u1", "valorant", 50, 2, 0, staleTS); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := svc.IngestSample("u1", "cs2", 80, 2, 0, time.Now().UTC()); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	closed, err := svc.CloseStaleSessions(5 * time.Minute)
	if err != nil {
		t.Fatalf("CloseStaleSessions failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed %d sessions, want 1", closed)
	}

	stale, err := svc.GetOpenSession("u1", "valorant")
	if err != nil {
		t.Fatalf("GetOpenSession failed: %v", err)
	}
	if stale != nil {
		t.Error("abandoned session should be closed")
	}

	fresh, err := svc.GetOpenSession("u1", "cs2")
	if err != nil {
		t.Fatalf("GetOpenSession failed: %v", err)
	}
	if fresh == nil {
		t.Error("active session must stay open")
	}

	// End time is backdated to the last sample, not the reap time.
	sessions, err := svc.ListSessions("u1", "valorant")
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].EndTime == nil {
		t.Fatalf("expected one closed valorant session, got %+v", sessions)
	}
	if sessions[0].EndTime.Sub(staleTS).Abs() > time.Second {
		t.Errorf("end_time %v, want last sample time %v", sessions[0].EndTime, staleTS)
	}
}

func TestCloseStaleSessionsIdempotent(t *testing.T) {
	svc := newSessionService(t)

	if _, err := svc.IngestSample("u1", "valorant", 50, 2, 0, time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if _, err := svc.CloseStaleSessions(5 * time.Minute); err != nil {
		t.Fatalf("first reap failed: %v", err)
	}
	closed, err := svc.CloseStaleSessions(5 * time.Minute)
	if err != nil {
		t.Fatalf("second reap failed: %v", err)
	}
	if closed != 0 {
		t.Errorf("second reap closed %d sessions, want 0", closed)
	}
}
