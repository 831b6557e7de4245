package proxy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/die-net/socks5d/internal/dialer"
	"github.com/die-net/socks5d/internal/socks5"
)

// SOCKS5Server runs SOCKS5 sessions on accepted connections.
type SOCKS5Server struct {
	ctx     context.Context
	cfg     Config
	verbose bool
	bufs    *BufferPool
}

// NewSOCKS5Server returns a server whose sessions end when ctx is canceled.
// A nil Dialer dials directly and a nil Resolver uses the system resolver.
func NewSOCKS5Server(ctx context.Context, cfg Config, verbose bool) *SOCKS5Server {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = dialer.NewDirectDialer(dialer.Config{KeepAlive: cfg.KeepAlive})
	}
	if cfg.Resolver == nil {
		cfg.Resolver = dialer.NewSystemResolver(dialer.Config{})
	}
	return &SOCKS5Server{
		ctx:     ctx,
		cfg:     cfg,
		verbose: verbose,
		bufs:    NewBufferPool(relayBufferSize),
	}
}

// Serve accepts connections on ln and handles each on its own goroutine.
// Canceling the server context closes ln; Serve then returns nil once every
// session has finished.
func (s *SOCKS5Server) Serve(ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(s.ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Go(func() {
			if err := s.ServeConn(s.ctx, c); err != nil && s.verbose {
				log.Print(err)
			}
		})
	}
}

// ServeConn runs one session on conn and closes it before returning, on
// every path. Nothing the session does escapes as a panic.
func (s *SOCKS5Server) ServeConn(ctx context.Context, conn net.Conn) (err error) {
	sess := NewSession(conn)
	defer sess.Close()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("socks5[%s]: panic: %v\n%s", sess.ID, r, debug.Stack())
			err = fmt.Errorf("socks5[%s]: panic: %v", sess.ID, r)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock whatever the session is waiting on when the server shuts down.
	stop := context.AfterFunc(ctx, func() {
		_ = sess.Close()
	})
	defer stop()

	if err := s.handle(ctx, sess); err != nil {
		return fmt.Errorf("socks5[%s] %s: %w", sess.ID, sess.RemoteAddr(), err)
	}
	return nil
}

func (s *SOCKS5Server) handle(ctx context.Context, sess *Session) error {
	if s.cfg.NegotiationTimeout > 0 {
		_ = sess.SetDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	if err := socks5.ServerNegotiate(sess); err != nil {
		return err
	}

	req, err := socks5.ReadRequest(sess)
	if err != nil {
		var perr *socks5.ProtocolError
		if errors.As(err, &perr) {
			if werr := socks5.WriteErrorReply(sess, perr.Reply, socks5.ATYPIPv4); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}

	_ = sess.SetDeadline(time.Time{})

	if s.verbose {
		log.Printf("socks5[%s]: %s", sess.ID, req)
	}

	switch req.Cmd {
	case socks5.CmdConnect:
		return s.connect(ctx, sess, req)
	case socks5.CmdBind:
		return s.bind(ctx, sess, req)
	default:
		return fmt.Errorf("unhandled command %#02x", req.Cmd)
	}
}

// relay splices client, the session or a wrapper around it, with peer and
// blocks until the relay stops or ctx ends. The relay owns and closes both
// connections.
func (s *SOCKS5Server) relay(ctx context.Context, sess *Session, client, peer net.Conn) error {
	r := NewRelay(client, peer, s.bufs)
	r.Start()
	err := r.Wait(ctx)

	if s.verbose {
		log.Printf("socks5[%s]: relay with %s done, %d bytes out, %d bytes in",
			sess.ID, peer.RemoteAddr(), r.BytesLeftToRight(), r.BytesRightToLeft())
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}
