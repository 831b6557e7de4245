package proxy

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"sync"
)

// Session is one accepted client connection. Close is idempotent and every
// caller gets the result of the first close.
type Session struct {
	net.Conn

	// ID correlates log lines; nothing interprets it.
	ID string

	closeOnce sync.Once
	closeErr  error
}

func NewSession(conn net.Conn) *Session {
	return &Session{Conn: conn, ID: newSessionID()}
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Conn.Close()
	})
	return s.closeErr
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
