package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/yllada/mullvad-ping/common"
)

// Resolver resolves relay hostnames. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// NewResolver returns the system resolver when server is empty and a
// DNSResolver querying server otherwise.
func NewResolver(server string) Resolver {
	if server == "" {
		return net.DefaultResolver
	}
	return NewDNSResolver(server)
}

// DNSResolver asks one DNS server directly for A records, bypassing the
// system resolver and its search domains.
type DNSResolver struct {
	// Server is host:port of the DNS server.
	Server string
	// Client performs the exchange.
	Client *dns.Client
}

// NewDNSResolver creates a DNSResolver. Port 53 is assumed when server
// carries no port.
func NewDNSResolver(server string) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSResolver{
		Server: server,
		Client: &dns.Client{Net: "udp", Timeout: 5 * time.Second},
	}
}

// LookupHost implements Resolver.
func (r *DNSResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(host), dns.TypeA)
	query.RecursionDesired = true

	reply, _, err := r.Client.ExchangeContext(ctx, query, r.Server)
	if err != nil {
		return nil, fmt.Errorf("dns lookup of %s via %s: %w", host, r.Server, err)
	}
	if reply.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: dns lookup of %s: %s", common.ErrProbeUnreachable, host, dns.RcodeToString[reply.Rcode])
	}

	var addrs []string
	for _, rr := range reply.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no A records for %s", common.ErrProbeUnreachable, host)
	}
	return addrs, nil
}

// resolveIPv4 returns the first IPv4 address for address.
func resolveIPv4(ctx context.Context, resolver Resolver, address string) (net.IP, error) {
	if ip := net.ParseIP(address); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%w: %s is not an IPv4 address", common.ErrProbeUnreachable, address)
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupHost(ctx, address)
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			return ip.To4(), nil
		}
	}
	return nil, fmt.Errorf("%w: no IPv4 address for %s", common.ErrProbeUnreachable, address)
}

// resolvingPinger resolves hostnames with its own Resolver before
// handing an IPv4 address to the wrapped Pinger.
type resolvingPinger struct {
	resolver Resolver
	pinger   Pinger
}

// WithResolver wraps p so hostnames are resolved through r first.
func WithResolver(p Pinger, r Resolver) Pinger {
	return &resolvingPinger{resolver: r, pinger: p}
}

// Ping implements Pinger.
func (p *resolvingPinger) Ping(ctx context.Context, address string) (time.Duration, error) {
	ip, err := resolveIPv4(ctx, p.resolver, address)
	if err != nil {
		return 0, err
	}
	return p.pinger.Ping(ctx, ip.String())
}
