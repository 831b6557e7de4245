package socks5

import (
	"errors"
	"fmt"
	"io"

	txsocks5 "github.com/txthinking/socks5"
)

// Request is a parsed SOCKS5 command request.
type Request struct {
	Cmd  byte
	Addr Addr
}

func (r *Request) String() string {
	return commandName(r.Cmd) + " " + r.Addr.String()
}

// ServerNegotiate reads the client greeting (VER NMETHODS METHODS) and
// answers with the no-auth method. The offered methods are not consulted.
// A version other than 5 returns an error wrapping ErrVersionMismatch without
// writing anything.
func ServerNegotiate(rw io.ReadWriter) error {
	var b [1]byte
	if _, err := io.ReadFull(rw, b[:]); err != nil {
		return fmt.Errorf("read negotiation version: %w", err)
	}
	if b[0] != Version {
		return fmt.Errorf("%w: got %#02x", ErrVersionMismatch, b[0])
	}

	if _, err := io.ReadFull(rw, b[:]); err != nil {
		return fmt.Errorf("read negotiation methods: %w", err)
	}
	methods := make([]byte, int(b[0]))
	if _, err := io.ReadFull(rw, methods); err != nil {
		return fmt.Errorf("read negotiation methods: %w", err)
	}

	if _, err := txsocks5.NewNegotiationReply(MethodNone).WriteTo(rw); err != nil {
		return fmt.Errorf("negotiation reply: %w", err)
	}
	return nil
}

// ReadRequest reads VER CMD RSV ATYP DST.ADDR DST.PORT.
//
// It returns either a request or an error, never both. Malformed or
// unsupported input yields a *ProtocolError whose Reply must be sent back;
// any other error means the stream itself failed. An unsupported command
// takes precedence over an unsupported address type.
func ReadRequest(r io.Reader) (*Request, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	if hdr[0] != Version {
		return nil, &ProtocolError{
			Reply: ReplyGeneralFailure,
			Err:   fmt.Errorf("%w: got %#02x", ErrVersionMismatch, hdr[0]),
		}
	}

	cmd, atyp := hdr[1], hdr[3]
	addr, err := ReadAddr(r, atyp)

	if cmd != CmdConnect && cmd != CmdBind {
		var perr *ProtocolError
		if err != nil && !errors.As(err, &perr) {
			return nil, err
		}
		return nil, &ProtocolError{
			Reply: ReplyCommandNotSupported,
			Err:   fmt.Errorf("unsupported command %#02x", cmd),
		}
	}
	if err != nil {
		return nil, err
	}

	return &Request{Cmd: cmd, Addr: addr}, nil
}
