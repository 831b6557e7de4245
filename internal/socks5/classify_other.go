//go:build !unix

package socks5

// No portable errno values here; ReplyForError falls back to timeouts and
// the error text.
var (
	errConnRefused    error
	errTimedOut       error
	errNetUnreachable error
)
