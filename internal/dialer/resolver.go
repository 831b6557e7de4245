package dialer

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
	"golang.org/x/sync/singleflight"
)

// Resolver turns a host name into addresses. A successful lookup returns at
// least one IP.
type Resolver interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
}

// NewResolver returns a DNS-server resolver when cfg.DNSServer is set and
// the system resolver otherwise.
func NewResolver(cfg Config) Resolver {
	if cfg.DNSServer != "" {
		return NewDNSResolver(cfg.DNSServer, cfg)
	}
	return NewSystemResolver(cfg)
}

// SystemResolver uses net.Resolver and collapses concurrent lookups of the
// same name into one. A caller whose context ends stops waiting; the shared
// lookup carries on for the others.
type SystemResolver struct {
	cfg   Config
	r     *net.Resolver
	group singleflight.Group
}

func NewSystemResolver(cfg Config) *SystemResolver {
	return &SystemResolver{cfg: cfg, r: net.DefaultResolver}
}

func (s *SystemResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	ch := s.group.DoChan(host, func() (any, error) {
		// The lookup is shared, so it must not die with the first caller.
		lctx := context.WithoutCancel(ctx)
		if s.cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, s.cfg.DialTimeout)
			defer cancel()
		}
		return s.r.LookupIP(lctx, "ip", host)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("resolve %s: %w", host, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, res.Err)
	}

	ips := res.Val.([]net.IP)
	if len(ips) == 0 {
		return nil, notFound(host)
	}
	return ips, nil
}

// DNSResolver queries one DNS server for A and AAAA records.
type DNSResolver struct {
	server string
	client *dns.Client
}

func NewDNSResolver(server string, cfg Config) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: cfg.DialTimeout},
	}
}

func (d *DNSResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	var ips []net.IP
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)
		m.RecursionDesired = true

		in, _, err := d.client.ExchangeContext(ctx, m, d.server)
		if err != nil {
			return nil, fmt.Errorf("resolve %s via %s: %w", host, d.server, err)
		}
		if in.Rcode == dns.RcodeNameError {
			return nil, notFound(host)
		}
		if in.Rcode != dns.RcodeSuccess {
			continue
		}

		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				ips = append(ips, v.A)
			case *dns.AAAA:
				ips = append(ips, v.AAAA)
			}
		}
	}

	if len(ips) == 0 {
		return nil, notFound(host)
	}
	return ips, nil
}

func notFound(host string) error {
	return &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}
