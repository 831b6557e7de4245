package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const relayBufferSize = 32 * 1024

// RelayState is the lifecycle of a Relay: Idle -> Running -> Stopped.
type RelayState int32

const (
	RelayIdle RelayState = iota
	RelayRunning
	RelayStopped
)

func (s RelayState) String() string {
	switch s {
	case RelayIdle:
		return "idle"
	case RelayRunning:
		return "running"
	case RelayStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Relay copies bytes between two connections in both directions.
//
// Half-close is not preserved: when either direction reaches EOF or fails,
// both connections are closed and the other direction unblocks. Each
// connection is closed exactly once by the relay.
type Relay struct {
	left, right net.Conn
	bufs        *BufferPool

	mu    sync.Mutex
	state RelayState
	err   error
	done  chan struct{}

	closeOnce sync.Once

	leftToRight atomic.Int64
	rightToLeft atomic.Int64
}

// NewRelay returns an idle relay. A nil pool allocates per-direction
// buffers.
func NewRelay(left, right net.Conn, pool *BufferPool) *Relay {
	if pool == nil {
		pool = NewBufferPool(relayBufferSize)
	}
	return &Relay{
		left:  left,
		right: right,
		bufs:  pool,
		done:  make(chan struct{}),
	}
}

// Start launches both copy directions. Calling it on a relay that is not
// idle does nothing.
func (r *Relay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RelayIdle {
		return
	}
	r.state = RelayRunning

	var g errgroup.Group
	g.Go(func() error {
		return r.pipe(r.right, r.left, &r.leftToRight)
	})
	g.Go(func() error {
		return r.pipe(r.left, r.right, &r.rightToLeft)
	})

	go func() {
		err := g.Wait()

		r.mu.Lock()
		r.err = err
		r.state = RelayStopped
		r.mu.Unlock()

		close(r.done)
	}()
}

// Stop closes both connections, which terminates any copy in progress. It
// is safe to call more than once and before Start.
func (r *Relay) Stop() {
	r.closeBoth()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RelayIdle {
		r.state = RelayStopped
		close(r.done)
	}
}

// Done is closed once the relay has stopped.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the relay stops. If ctx ends first, Wait stops the relay,
// waits for both directions to exit and returns ctx.Err().
func (r *Relay) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		r.Stop()
		<-r.done
		return ctx.Err()
	}
}

func (r *Relay) Running() bool {
	return r.State() == RelayRunning
}

func (r *Relay) State() RelayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the first copy error other than the one caused by the relay's
// own teardown. It is nil until the relay has stopped.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// BytesLeftToRight reports bytes copied from left to right. The count is
// final once the relay has stopped.
func (r *Relay) BytesLeftToRight() int64 {
	return r.leftToRight.Load()
}

// BytesRightToLeft reports bytes copied from right to left.
func (r *Relay) BytesRightToLeft() int64 {
	return r.rightToLeft.Load()
}

func (r *Relay) pipe(dst, src net.Conn, count *atomic.Int64) error {
	defer r.closeBoth()

	buf := r.bufs.Get()
	defer r.bufs.Put(buf)

	n, err := io.CopyBuffer(dst, src, *buf)
	count.Add(n)
	if isClosedConn(err) {
		return nil
	}
	return err
}

func (r *Relay) closeBoth() {
	r.closeOnce.Do(func() {
		_ = r.left.Close()
		_ = r.right.Close()
	})
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
