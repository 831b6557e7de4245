package socks5

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ReplyForError maps a failed dial, listen or accept to the reply code sent
// to the client. The first matching rule wins:
//
//  1. connection refused        -> ReplyConnectionRefused
//  2. operation/connect timeout -> ReplyTTLExpired
//  3. network unreachable       -> ReplyNetworkUnreachable
//  4. anything else             -> ReplyGeneralFailure
//
// Errno values are checked first; the error text is only inspected for
// errors that carry no structured cause. A *ReplyError from an upstream
// SOCKS5 server passes its code through unchanged.
func ReplyForError(err error) Reply {
	if err == nil {
		return ReplySucceeded
	}

	var rerr *ReplyError
	if errors.As(err, &rerr) {
		return rerr.Reply
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, errConnRefused) || strings.Contains(msg, "connection refused"):
		return ReplyConnectionRefused
	case isTimeout(err) || strings.Contains(msg, "operation timed out") || strings.Contains(msg, "connection timed out"):
		return ReplyTTLExpired
	case errors.Is(err, errNetUnreachable) || strings.Contains(msg, "network is unreachable"):
		return ReplyNetworkUnreachable
	default:
		return ReplyGeneralFailure
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, errTimedOut) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
