package schedule

import (
	"context"
	"net"
	"net/url"
	"time"
)

// TCPProbe returns a Probe that succeeds when addr (host:port) accepts a TCP
// connection within timeout.
func TCPProbe(addr string, timeout time.Duration) Probe {
	return func(ctx context.Context) bool {
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

// ProbeAddress picks the host:port to probe: host when set, else the host of
// baseURL on its scheme's default port.
func ProbeAddress(host, baseURL string) string {
	if host != "" {
		return host
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	if u.Port() != "" {
		return u.Host
	}
	port := "443"
	if u.Scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
