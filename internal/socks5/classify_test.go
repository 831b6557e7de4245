package socks5

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
)

func TestReplyForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Reply
	}{
		{name: "nil", err: nil, want: ReplySucceeded},
		{name: "refused message", err: errors.New("dial tcp 10.0.0.1:80: Connection refused"), want: ReplyConnectionRefused},
		{name: "operation timed out message", err: errors.New("Operation timed out"), want: ReplyTTLExpired},
		{name: "connection timed out message", err: errors.New("connect: connection timed out"), want: ReplyTTLExpired},
		{name: "deadline exceeded", err: fmt.Errorf("dial: %w", context.DeadlineExceeded), want: ReplyTTLExpired},
		{name: "net timeout", err: &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}, want: ReplyTTLExpired},
		{name: "network unreachable message", err: errors.New("connect: Network is unreachable"), want: ReplyNetworkUnreachable},
		{name: "dns failure", err: &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, want: ReplyGeneralFailure},
		{name: "other", err: errors.New("boom"), want: ReplyGeneralFailure},
		{name: "canceled", err: context.Canceled, want: ReplyGeneralFailure},
		{name: "upstream reply", err: fmt.Errorf("socks5 proxy dial: %w", &ReplyError{Reply: ReplyHostUnreachable}), want: ReplyHostUnreachable},
		{name: "refused wins over timeout", err: errors.New("connection refused after connection timed out"), want: ReplyConnectionRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ReplyForError(tt.err); got != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}
