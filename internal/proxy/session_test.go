package proxy

import (
	"net"
	"testing"
)

func TestSessionCloseIdempotent(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	c := &closeCountingConn{Conn: a}
	s := NewSession(c)

	if len(s.ID) != 16 {
		t.Fatalf("session ID %q, want 16 hex chars", s.ID)
	}

	first := s.Close()
	if err := s.Close(); err != first {
		t.Fatalf("second Close returned %v, first %v", err, first)
	}
	if n := c.closes.Load(); n != 1 {
		t.Fatalf("underlying conn closed %d times", n)
	}
}

func TestSessionIDsDiffer(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := newSessionID()
		if seen[id] {
			t.Fatalf("duplicate session ID %q", id)
		}
		seen[id] = true
	}
}
