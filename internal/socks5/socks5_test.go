package socks5

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestClientDialToServer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	bound := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}

	g := errgroup.Group{}
	g.Go(func() error {
		if err := ServerNegotiate(serverConn); err != nil {
			return err
		}

		req, err := ReadRequest(serverConn)
		if err != nil {
			return err
		}
		if req.Cmd != CmdConnect {
			return fmt.Errorf("unexpected command: %d", req.Cmd)
		}
		if req.Addr.String() != "127.0.0.1:80" {
			return fmt.Errorf("unexpected address: %s", req.Addr)
		}

		return WriteReply(serverConn, ReplySucceeded, AddrFromNet(bound))
	})

	got, err := ClientDial(clientConn, Auth{}, "127.0.0.1:80")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got.String() != bound.String() {
		t.Fatalf("bound address: got %s want %s", got, bound)
	}
}

func TestClientBindTwoReplies(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	listening := Addr{IP: net.IP{192, 0, 2, 1}, Port: 40001}
	peer := Addr{IP: net.IP{198, 51, 100, 7}, Port: 51000}

	g := errgroup.Group{}
	g.Go(func() error {
		if err := ServerNegotiate(serverConn); err != nil {
			return err
		}
		req, err := ReadRequest(serverConn)
		if err != nil {
			return err
		}
		if req.Cmd != CmdBind {
			return fmt.Errorf("unexpected command: %d", req.Cmd)
		}
		if err := WriteReply(serverConn, ReplySucceeded, listening); err != nil {
			return err
		}
		return WriteReply(serverConn, ReplySucceeded, peer)
	})

	if err := ClientNegotiate(clientConn, Auth{}); err != nil {
		t.Fatal(err)
	}
	first, err := ClientRequest(clientConn, CmdBind, "0.0.0.0:0")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ClientReadReply(clientConn)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if first.String() != listening.String() {
		t.Fatalf("first reply: got %s want %s", first, listening)
	}
	if second.String() != peer.String() {
		t.Fatalf("second reply: got %s want %s", second, peer)
	}
}

func TestClientReadsErrorReply(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		if err := ServerNegotiate(serverConn); err != nil {
			return err
		}
		if _, err := ReadRequest(serverConn); err != nil {
			return err
		}
		return WriteErrorReply(serverConn, ReplyNetworkUnreachable, ATYPIPv4)
	})

	_, err := ClientDial(clientConn, Auth{}, "203.0.113.9:443")
	var rerr *ReplyError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v want ReplyError", err)
	}
	if rerr.Reply != ReplyNetworkUnreachable {
		t.Fatalf("got %s want %s", rerr.Reply, ReplyNetworkUnreachable)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
