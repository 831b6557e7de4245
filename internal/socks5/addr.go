package socks5

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
)

const maxDomainLen = 255

// Addr is a SOCKS5 address: exactly one of IP or FQDN is set.
//
// The wire type follows the stored form: a 4-byte IP is encoded as IPv4 and a
// 16-byte IP as IPv6, so a parsed address re-encodes to the same bytes.
type Addr struct {
	IP   net.IP
	FQDN string
	Port uint16
}

// Type returns the ATYP byte used to encode a.
func (a Addr) Type() byte {
	switch {
	case a.FQDN != "":
		return ATYPDomain
	case len(a.IP) == net.IPv6len:
		return ATYPIPv6
	default:
		return ATYPIPv4
	}
}

// Host returns the domain name or the textual IP.
func (a Addr) Host() string {
	if a.FQDN != "" {
		return a.FQDN
	}
	if a.IP == nil {
		return net.IPv4zero.String()
	}
	return a.IP.String()
}

func (a Addr) String() string {
	return net.JoinHostPort(a.Host(), strconv.Itoa(int(a.Port)))
}

// AppendBinary appends ATYP, the address and the big-endian port to b.
func (a Addr) AppendBinary(b []byte) ([]byte, error) {
	switch a.Type() {
	case ATYPDomain:
		if len(a.FQDN) > maxDomainLen {
			return b, fmt.Errorf("socks5: domain name too long (%d bytes)", len(a.FQDN))
		}
		b = append(b, ATYPDomain, byte(len(a.FQDN)))
		b = append(b, a.FQDN...)
	case ATYPIPv6:
		b = append(b, ATYPIPv6)
		b = append(b, a.IP...)
	default:
		ip := a.IP.To4()
		if ip == nil {
			ip = net.IPv4zero.To4()
		}
		b = append(b, ATYPIPv4)
		b = append(b, ip...)
	}
	return binary.BigEndian.AppendUint16(b, a.Port), nil
}

// ReadAddr reads the address body of type atyp followed by the port. An
// unknown atyp yields a *ProtocolError with ReplyAddressTypeNotSupported and
// consumes nothing.
func ReadAddr(r io.Reader, atyp byte) (Addr, error) {
	var n int
	switch atyp {
	case ATYPIPv4:
		n = net.IPv4len
	case ATYPIPv6:
		n = net.IPv6len
	case ATYPDomain:
		var l [1]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return Addr{}, fmt.Errorf("read domain length: %w", err)
		}
		n = int(l[0])
	default:
		return Addr{}, &ProtocolError{
			Reply: ReplyAddressTypeNotSupported,
			Err:   fmt.Errorf("unsupported address type %#02x", atyp),
		}
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Addr{}, fmt.Errorf("read address: %w", err)
	}

	a := Addr{Port: binary.BigEndian.Uint16(buf[n:])}
	if atyp == ATYPDomain {
		a.FQDN = string(buf[:n])
	} else {
		a.IP = net.IP(buf[:n])
	}
	return a, nil
}

// AddrFromNet converts a socket address to an Addr. IPv4 addresses are
// normalized to their 4-byte form. A nil address yields 0.0.0.0:0.
func AddrFromNet(na net.Addr) Addr {
	switch v := na.(type) {
	case nil:
		return ZeroAddr(ATYPIPv4)
	case *net.TCPAddr:
		if v == nil {
			return ZeroAddr(ATYPIPv4)
		}
		return addrFromIP(v.IP, v.Port)
	case *net.UDPAddr:
		if v == nil {
			return ZeroAddr(ATYPIPv4)
		}
		return addrFromIP(v.IP, v.Port)
	}

	host, port, err := net.SplitHostPort(na.String())
	if err != nil {
		return ZeroAddr(ATYPIPv4)
	}
	p, _ := strconv.ParseUint(port, 10, 16)
	if ip := net.ParseIP(host); ip != nil {
		return addrFromIP(ip, int(p))
	}
	return Addr{FQDN: host, Port: uint16(p)}
}

// ZeroAddr returns the unspecified address with port 0, in the IPv6 family
// when atyp is ATYPIPv6 and IPv4 otherwise.
func ZeroAddr(atyp byte) Addr {
	if atyp == ATYPIPv6 {
		return Addr{IP: net.IPv6zero}
	}
	return Addr{IP: net.IPv4zero.To4()}
}

func addrFromIP(ip net.IP, port int) Addr {
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	} else if ip == nil {
		ip = net.IPv4zero.To4()
	}
	return Addr{IP: ip, Port: uint16(port)}
}
