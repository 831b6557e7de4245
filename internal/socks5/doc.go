// Package socks5 implements the SOCKS5 wire format used by socks5d.
//
// It covers the server side of method negotiation (no-auth only), request
// parsing with classification of malformed input into reply codes, reply
// encoding, and the mapping of dial/listen/accept failures to reply codes.
// A small client side built on github.com/txthinking/socks5 is used for
// chaining through an upstream SOCKS5 proxy and by tests.
//
// Protocol constants are taken from github.com/txthinking/socks5 so the two
// sides agree on every byte value.
package socks5
