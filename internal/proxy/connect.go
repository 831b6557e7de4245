package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/die-net/socks5d/internal/socks5"
)

// connect dials the request target and relays on success. Exactly one reply
// is written whatever the outcome.
func (s *SOCKS5Server) connect(ctx context.Context, sess *Session, req *socks5.Request) error {
	target, err := s.resolve(ctx, req.Addr)
	if err != nil {
		if werr := socks5.WriteErrorReply(sess, socks5.ReplyHostUnreachable, req.Addr.Type()); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	up, err := s.cfg.Dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		rep := socks5.ReplyForError(err)
		if werr := socks5.WriteErrorReply(sess, rep, req.Addr.Type()); werr != nil {
			return errors.Join(err, werr)
		}
		return fmt.Errorf("connect %s (%s): %w", req.Addr, rep, err)
	}

	if err := socks5.WriteReply(sess, socks5.ReplySucceeded, socks5.AddrFromNet(up.LocalAddr())); err != nil {
		_ = up.Close()
		return err
	}

	return s.relay(ctx, sess, sess, up)
}

// resolve turns a domain-name target into an IP:port. IP targets pass
// through untouched.
func (s *SOCKS5Server) resolve(ctx context.Context, a socks5.Addr) (string, error) {
	if a.FQDN == "" {
		return a.String(), nil
	}

	ips, err := s.cfg.Resolver.LookupIP(ctx, a.FQDN)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("resolve %s: no addresses", a.FQDN)
	}
	return net.JoinHostPort(ips[0].String(), strconv.Itoa(int(a.Port))), nil
}
