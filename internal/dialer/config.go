package dialer

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds DNS lookups and TCP connects. Zero leaves the
	// platform default in place.
	DialTimeout time.Duration

	// NegotiationTimeout bounds the handshake with an upstream SOCKS5 proxy.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	// DNSServer, when set, is queried directly instead of the system
	// resolver. A missing port defaults to 53.
	DNSServer string
}
