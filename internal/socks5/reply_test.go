package socks5

import (
	"bytes"
	"net"
	"testing"

	txsocks5 "github.com/txthinking/socks5"
)

func TestWriteReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rep  Reply
		bind Addr
		want []byte
	}{
		{
			name: "success ipv4",
			rep:  ReplySucceeded,
			bind: Addr{IP: net.IP{127, 0, 0, 1}, Port: 40000},
			want: []byte{0x05, 0x00, 0x00, 0x01, 127, 0, 0, 1, 0x9c, 0x40},
		},
		{
			name: "refused zero ipv4",
			rep:  ReplyConnectionRefused,
			bind: ZeroAddr(ATYPIPv4),
			want: []byte{0x05, 0x05, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "ttl expired zero ipv6",
			rep:  ReplyTTLExpired,
			bind: ZeroAddr(ATYPIPv6),
			want: []byte{0x05, 0x06, 0x00, 0x04, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "command not supported",
			rep:  ReplyCommandNotSupported,
			bind: ZeroAddr(ATYPDomain),
			want: []byte{0x05, 0x07, 0x00, 0x01, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := WriteReply(&buf, tt.rep, tt.bind); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf.Bytes(), tt.want) {
				t.Fatalf("got % x want % x", buf.Bytes(), tt.want)
			}

			// Decode with an independent implementation.
			rep, err := txsocks5.NewReplyFrom(bytes.NewReader(tt.want))
			if err != nil {
				t.Fatal(err)
			}
			if Reply(rep.Rep) != tt.rep {
				t.Fatalf("decoded rep %#x want %#x", rep.Rep, byte(tt.rep))
			}
		})
	}
}

func TestReplyCodes(t *testing.T) {
	t.Parallel()

	want := map[Reply]byte{
		ReplySucceeded:               0x00,
		ReplyGeneralFailure:          0x01,
		ReplyConnectionNotAllowed:    0x02,
		ReplyNetworkUnreachable:      0x03,
		ReplyHostUnreachable:         0x04,
		ReplyConnectionRefused:       0x05,
		ReplyTTLExpired:              0x06,
		ReplyCommandNotSupported:     0x07,
		ReplyAddressTypeNotSupported: 0x08,
	}
	for rep, b := range want {
		if byte(rep) != b {
			t.Errorf("%s = %#x, want %#x", rep, byte(rep), b)
		}
	}
}
