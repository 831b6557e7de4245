package proxy

import (
	"net"
	"time"

	"github.com/die-net/socks5d/internal/dialer"
)

type Config struct {
	// NegotiationTimeout bounds the greeting and request phase. Zero means
	// no deadline.
	NegotiationTimeout time.Duration

	// BindAcceptTimeout bounds how long BIND waits for the peer. Zero waits
	// until the session or server ends.
	BindAcceptTimeout time.Duration

	// BindIP is the address BIND listens on. Nil uses the local address the
	// client connected to.
	BindIP net.IP

	KeepAlive net.KeepAliveConfig

	Dialer   dialer.Dialer
	Resolver dialer.Resolver
}
