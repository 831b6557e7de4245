package socks5

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	txsocks5 "github.com/txthinking/socks5"
)

// Auth configures optional username/password authentication towards an
// upstream SOCKS5 server.
type Auth struct {
	Username string
	Password string
}

// ClientDial negotiates on conn and issues CONNECT for address. It returns
// the bound address reported by the server.
func ClientDial(conn net.Conn, auth Auth, address string) (Addr, error) {
	if err := ClientNegotiate(conn, auth); err != nil {
		return Addr{}, err
	}
	return ClientRequest(conn, CmdConnect, address)
}

func ClientNegotiate(conn net.Conn, auth Auth) error {
	methods := []byte{txsocks5.MethodNone}
	if auth.Username != "" {
		methods = append(methods, txsocks5.MethodUsernamePassword)
	}

	if _, err := txsocks5.NewNegotiationRequest(methods).WriteTo(conn); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(conn)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	switch neg.Method {
	case txsocks5.MethodNone:
		return nil
	case txsocks5.MethodUsernamePassword:
		if auth.Username == "" {
			return errors.New("server requires username/password")
		}

		if _, err := txsocks5.NewUserPassNegotiationRequest([]byte(auth.Username), []byte(auth.Password)).WriteTo(conn); err != nil {
			return fmt.Errorf("write userpass: %w", err)
		}
		rep, err := txsocks5.NewUserPassNegotiationReplyFrom(conn)
		if err != nil {
			return fmt.Errorf("read userpass: %w", err)
		}
		if rep.Status != txsocks5.UserPassStatusSuccess {
			return errors.New("auth failed")
		}
		return nil
	default:
		return fmt.Errorf("unsupported negotiation method: %d", neg.Method)
	}
}

// ClientRequest writes a cmd request for address and reads one reply.
func ClientRequest(conn net.Conn, cmd byte, address string) (Addr, error) {
	atyp, dstAddr, dstPort, err := txsocks5.ParseAddress(address)
	if err != nil {
		return Addr{}, fmt.Errorf("parse address: %w", err)
	}
	if atyp == txsocks5.ATYPDomain {
		dstAddr = dstAddr[1:]
	}

	if _, err := txsocks5.NewRequest(cmd, atyp, dstAddr, dstPort).WriteTo(conn); err != nil {
		return Addr{}, fmt.Errorf("write request: %w", err)
	}

	return ClientReadReply(conn)
}

// ClientReadReply reads one reply. A non-success code is returned as a
// *ReplyError. BIND produces two replies; the second is read with another
// call.
func ClientReadReply(conn net.Conn) (Addr, error) {
	rep, err := txsocks5.NewReplyFrom(conn)
	if err != nil {
		return Addr{}, fmt.Errorf("read reply: %w", err)
	}
	if rep.Rep != txsocks5.RepSuccess {
		return Addr{}, &ReplyError{Reply: Reply(rep.Rep)}
	}

	a := Addr{}
	if len(rep.BndPort) == 2 {
		a.Port = binary.BigEndian.Uint16(rep.BndPort)
	}
	switch rep.Atyp {
	case txsocks5.ATYPIPv4, txsocks5.ATYPIPv6:
		a.IP = net.IP(rep.BndAddr)
	case txsocks5.ATYPDomain:
		if len(rep.BndAddr) > 0 {
			a.FQDN = string(rep.BndAddr[1:])
		}
	}
	return a, nil
}
