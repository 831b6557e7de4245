package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/die-net/socks5d/internal/socks5"
)

// bind listens for one inbound peer on behalf of the client. The first
// reply carries the listening address, the second the local address of the
// accepted connection as seen from this side. Only the requested port is
// honored; the listening IP comes from the config or the session's local
// address. The wait for the peer ends early if the client goes away.
func (s *SOCKS5Server) bind(ctx context.Context, sess *Session, req *socks5.Request) error {
	addr := net.JoinHostPort(s.bindHost(sess), strconv.Itoa(int(req.Addr.Port)))

	ln, err := ListenTCP(ctx, "tcp", addr, s.cfg.KeepAlive)
	if err != nil {
		return s.bindFailed(sess, req, err)
	}
	defer ln.Close()

	if err := socks5.WriteReply(sess, socks5.ReplySucceeded, socks5.AddrFromNet(ln.Addr())); err != nil {
		return err
	}
	if s.verbose {
		log.Printf("socks5[%s]: bind listening on %s", sess.ID, ln.Addr())
	}

	acceptCtx, cancelAccept := context.WithCancelCause(ctx)
	defer cancelAccept(nil)

	w := watchClient(sess, cancelAccept)
	peer, err := s.acceptOne(acceptCtx, ln)
	early := w.stop()
	if err != nil {
		if cause := context.Cause(acceptCtx); errors.Is(cause, errClientGone) {
			err = cause
		}
		return s.bindFailed(sess, req, fmt.Errorf("accept on %s: %w", ln.Addr(), err))
	}
	_ = ln.Close()

	if err := socks5.WriteReply(sess, socks5.ReplySucceeded, socks5.AddrFromNet(peer.LocalAddr())); err != nil {
		_ = peer.Close()
		return err
	}

	var client net.Conn = sess
	if len(early) > 0 {
		client = &prefixConn{Conn: sess, r: io.MultiReader(bytes.NewReader(early), sess)}
	}
	return s.relay(ctx, sess, client, peer)
}

func (s *SOCKS5Server) bindHost(sess *Session) string {
	if s.cfg.BindIP != nil {
		return s.cfg.BindIP.String()
	}
	if la, ok := sess.LocalAddr().(*net.TCPAddr); ok && la.IP != nil {
		return la.IP.String()
	}
	return ""
}

// acceptOne waits for a single connection on ln, giving up when ctx ends or
// BindAcceptTimeout elapses.
func (s *SOCKS5Server) acceptOne(ctx context.Context, ln net.Listener) (net.Conn, error) {
	if s.cfg.BindAcceptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BindAcceptTimeout)
		defer cancel()
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	c, err := ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return c, nil
}

func (s *SOCKS5Server) bindFailed(sess *Session, req *socks5.Request, err error) error {
	rep := socks5.ReplyForError(err)
	if werr := socks5.WriteErrorReply(sess, rep, req.Addr.Type()); werr != nil {
		return errors.Join(err, werr)
	}
	return fmt.Errorf("bind (%s): %w", rep, err)
}

var errClientGone = errors.New("client closed the session")

// maxEarlyBytes caps what the client may send before the BIND peer arrives.
// Past it the watcher stops reading and leaves the rest in the socket.
const maxEarlyBytes = relayBufferSize

// clientWatcher reads the session while BIND waits for a peer so that a
// client hanging up cancels the wait. Bytes read meanwhile are kept and
// handed back by stop.
type clientWatcher struct {
	sess *Session
	wg   sync.WaitGroup
	buf  []byte
}

func watchClient(sess *Session, cancel context.CancelCauseFunc) *clientWatcher {
	w := &clientWatcher{sess: sess}
	w.wg.Go(func() {
		b := make([]byte, 4096)
		for len(w.buf) < maxEarlyBytes {
			n, err := sess.Read(b[:min(len(b), maxEarlyBytes-len(w.buf))])
			w.buf = append(w.buf, b[:n]...)
			if err != nil {
				if !errors.Is(err, os.ErrDeadlineExceeded) {
					cancel(fmt.Errorf("%w: %w", errClientGone, err))
				}
				return
			}
		}
	})
	return w
}

// stop ends the watch and returns the bytes the client sent so far.
func (w *clientWatcher) stop() []byte {
	_ = w.sess.SetReadDeadline(time.Unix(1, 0))
	w.wg.Wait()
	_ = w.sess.SetReadDeadline(time.Time{})
	return w.buf
}

// prefixConn replays bytes consumed from Conn before reading from it again.
type prefixConn struct {
	net.Conn
	r io.Reader
}

func (c *prefixConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}
