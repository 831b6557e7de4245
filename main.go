package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // Intentionally exposed on debug port.
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/socks5d/internal/dialer"
	"github.com/die-net/socks5d/internal/proxy"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := loadOptions(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.SOCKS5Listen == "" {
		return errors.New("no listener enabled (set --socks5-listen)")
	}

	ka, err := parseTCPKeepAlive(opts.TCPKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	var bindIP net.IP
	if opts.BindIP != "" {
		if bindIP = net.ParseIP(opts.BindIP); bindIP == nil {
			return fmt.Errorf("invalid --bind-ip: %q", opts.BindIP)
		}
	}

	dialCfg := dialer.Config{
		DialTimeout:        opts.DialTimeout,
		NegotiationTimeout: opts.NegotiationTimeout,
		KeepAlive:          ka,
		DNSServer:          opts.DNSServer,
	}

	cfg := proxy.Config{
		NegotiationTimeout: opts.NegotiationTimeout,
		BindAcceptTimeout:  opts.BindAcceptTimeout,
		BindIP:             bindIP,
		KeepAlive:          ka,
		Resolver:           dialer.NewResolver(dialCfg),
	}

	cfg.Dialer, err = dialer.New(dialCfg, opts.Upstream)
	if err != nil {
		return fmt.Errorf("invalid --upstream: %w", err)
	}

	g, ctx := errgroup.WithContext(context.Background())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DebugListen != "" {
		debugSrv := &http.Server{Handler: http.DefaultServeMux} //nolint:gosec // Not concerned about timeouts on debug port.
		lc := net.ListenConfig{KeepAliveConfig: ka}
		debugLn, err := lc.Listen(ctx, "tcp", opts.DebugListen)
		if err != nil {
			return fmt.Errorf("debug listen: %w", err)
		}
		context.AfterFunc(ctx, func() {
			_ = debugSrv.Close()
			_ = debugLn.Close()
		})

		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil {
				return fmt.Errorf("debug serve: %w", err)
			}
			return nil
		})
		log.Printf("debug listening on %s", opts.DebugListen)
	}

	ln, err := proxy.ListenTCP(ctx, "tcp", opts.SOCKS5Listen, ka)
	if err != nil {
		return fmt.Errorf("socks5 listen: %w", err)
	}
	s5 := proxy.NewSOCKS5Server(ctx, cfg, opts.Verbose)

	g.Go(func() error {
		if err := s5.Serve(ln); err != nil {
			return fmt.Errorf("socks5 serve: %w", err)
		}
		return nil
	})
	log.Printf("socks5 proxy listening on %s, upstream %s", ln.Addr(), redactUpstream(opts.Upstream))

	err = g.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	log.Print("shutting down")
	return err
}
