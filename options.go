package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SOCKS5D"

type options struct {
	SOCKS5Listen       string
	Upstream           string
	DebugListen        string
	DialTimeout        time.Duration
	NegotiationTimeout time.Duration
	BindAcceptTimeout  time.Duration
	BindIP             string
	DNSServer          string
	TCPKeepAlive       string
	Verbose            bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("socks5d", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.String("socks5-listen", "", "SOCKS5 proxy listen address (e.g. 127.0.0.1:1080)")
	fs.String("upstream", defaultUpstream(), "Upstream forwarding target URL: direct:// | socks5://[user:pass@]host:port")
	fs.String("debug-listen", "", "Debug HTTP listen address exposing /debug/pprof (e.g. 127.0.0.1:6060). Empty disables.")
	fs.Duration("dial-timeout", 0, "Timeout for outbound TCP connect. Zero uses the system default.")
	fs.Duration("negotiation-timeout", 10*time.Second, "Timeout for the SOCKS5 greeting and request")
	fs.Duration("bind-accept-timeout", 0, "How long BIND waits for the inbound peer. Zero waits until the session ends.")
	fs.String("bind-ip", "", "Address BIND listens on. Empty uses the address the client connected to.")
	fs.String("dns-server", "", "DNS server (host[:port]) for resolving domain targets. Empty uses the system resolver.")
	fs.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
	fs.Bool("verbose", false, "Enable per-connection error logging")
	fs.String("config", "", "Optional YAML, TOML or JSON config file with the same keys as the flags")

	return fs
}

// loadOptions parses args and overlays them on the environment and an
// optional config file. Precedence is flag, then env, then file, then
// default.
func loadOptions(args []string) (options, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return options{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return options{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return options{
		SOCKS5Listen:       v.GetString("socks5-listen"),
		Upstream:           v.GetString("upstream"),
		DebugListen:        v.GetString("debug-listen"),
		DialTimeout:        v.GetDuration("dial-timeout"),
		NegotiationTimeout: v.GetDuration("negotiation-timeout"),
		BindAcceptTimeout:  v.GetDuration("bind-accept-timeout"),
		BindIP:             v.GetString("bind-ip"),
		DNSServer:          v.GetString("dns-server"),
		TCPKeepAlive:       v.GetString("tcp-keepalive"),
		Verbose:            v.GetBool("verbose"),
	}, nil
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveInt(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveInt(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(keepIdle) * time.Second,
		Interval: time.Duration(keepIntvl) * time.Second,
		Count:    keepCnt,
	}, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultUpstream() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "direct://"
}

// redactUpstream hides any password in an upstream URL for logging.
func redactUpstream(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	return u.Redacted()
}
