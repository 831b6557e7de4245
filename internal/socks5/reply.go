package socks5

import (
	"fmt"
	"io"
)

// WriteReply writes VER REP RSV ATYP BND.ADDR BND.PORT with a single Write.
func WriteReply(w io.Writer, rep Reply, bind Addr) error {
	b, err := bind.AppendBinary([]byte{Version, byte(rep), 0x00})
	if err != nil {
		return fmt.Errorf("%s reply: %w", rep, err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("%s reply: %w", rep, err)
	}
	return nil
}

// WriteErrorReply writes rep with the unspecified bound address of the
// family selected by atyp.
func WriteErrorReply(w io.Writer, rep Reply, atyp byte) error {
	return WriteReply(w, rep, ZeroAddr(atyp))
}
