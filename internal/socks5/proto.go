package socks5

import (
	"fmt"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	// Version is the only protocol version accepted.
	Version = txsocks5.Ver

	// MethodNone is the "no authentication required" method.
	MethodNone = txsocks5.MethodNone

	CmdConnect = txsocks5.CmdConnect
	CmdBind    = txsocks5.CmdBind

	ATYPIPv4   = txsocks5.ATYPIPv4
	ATYPDomain = txsocks5.ATYPDomain
	ATYPIPv6   = txsocks5.ATYPIPv6
)

// Reply is the REP field of a SOCKS5 reply.
type Reply byte

const (
	ReplySucceeded               = Reply(txsocks5.RepSuccess)
	ReplyGeneralFailure          = Reply(txsocks5.RepServerFailure)
	ReplyConnectionNotAllowed    = Reply(txsocks5.RepNotAllowed)
	ReplyNetworkUnreachable      = Reply(txsocks5.RepNetworkUnreachable)
	ReplyHostUnreachable         = Reply(txsocks5.RepHostUnreachable)
	ReplyConnectionRefused       = Reply(txsocks5.RepConnectionRefused)
	ReplyTTLExpired              = Reply(txsocks5.RepTTLExpired)
	ReplyCommandNotSupported     = Reply(txsocks5.RepCommandNotSupported)
	ReplyAddressTypeNotSupported = Reply(txsocks5.RepAddressNotSupported)
)

func (r Reply) String() string {
	switch r {
	case ReplySucceeded:
		return "succeeded"
	case ReplyGeneralFailure:
		return "general SOCKS server failure"
	case ReplyConnectionNotAllowed:
		return "connection not allowed by ruleset"
	case ReplyNetworkUnreachable:
		return "network unreachable"
	case ReplyHostUnreachable:
		return "host unreachable"
	case ReplyConnectionRefused:
		return "connection refused"
	case ReplyTTLExpired:
		return "TTL expired"
	case ReplyCommandNotSupported:
		return "command not supported"
	case ReplyAddressTypeNotSupported:
		return "address type not supported"
	default:
		return fmt.Sprintf("reply(%#02x)", byte(r))
	}
}

func commandName(cmd byte) string {
	switch cmd {
	case CmdConnect:
		return "CONNECT"
	case CmdBind:
		return "BIND"
	default:
		return fmt.Sprintf("command(%#02x)", cmd)
	}
}
