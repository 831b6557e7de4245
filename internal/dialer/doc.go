// Package dialer provides the outbound side of socks5d: dialers that open
// the remote stream for CONNECT, either directly or through an upstream
// SOCKS5 proxy, and resolvers that turn domain-name targets into addresses
// before any dial is attempted.
package dialer
