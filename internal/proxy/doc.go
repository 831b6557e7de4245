// Package proxy implements the socks5d session handler and its relay.
//
// SOCKS5Server accepts client connections and runs one session per
// connection: negotiation, request parsing, CONNECT or BIND dispatch, and a
// Relay that splices the client stream with the remote stream until either
// side ends or the server context is canceled.
package proxy
