package socks5

import (
	"errors"
	"fmt"
)

// ErrVersionMismatch is returned when a peer speaks a protocol version other
// than 5.
var ErrVersionMismatch = errors.New("socks5: unsupported protocol version")

// ProtocolError reports a malformed or unsupported request. Reply is the
// code that must be sent to the client before the session is closed.
type ProtocolError struct {
	Reply Reply
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("socks5 request: %v (%s)", e.Err, e.Reply)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ReplyError is returned by the client helpers when a server answers with
// anything but success.
type ReplyError struct {
	Reply Reply
}

func (e *ReplyError) Error() string {
	return "socks5 server replied: " + e.Reply.String()
}
