package system

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	probing "github.com/prometheus-community/pro-bing"
	"github.com/vishvananda/netlink"
)

// DefaultProbeName is the name resolved when checking a DNS server.
const DefaultProbeName = "raspberrypi.org"

// Check names reported by Network.
const (
	CheckAddress = "address"
	CheckGateway = "gateway"
	CheckDNS     = "dns"
	CheckService = "service"
)

// CheckResult is the outcome of one post-apply connectivity check.
type CheckResult struct {
	Check  string
	Target string
	OK     bool
	Detail string
}

func (r CheckResult) String() string {
	status := "ok"
	if !r.OK {
		status = "FAILED"
	}
	if r.Detail == "" {
		return fmt.Sprintf("%s %s: %s", r.Check, r.Target, status)
	}
	return fmt.Sprintf("%s %s: %s (%s)", r.Check, r.Target, status, r.Detail)
}

// Network inspects the live network state of the host.
type Network struct {
	Timeout   time.Duration
	ProbeName string

	// Replaceable for tests.
	ListAddrs func(iface string) ([]*net.IPNet, error)
	Ping      func(host string, timeout time.Duration) error
	Resolve   func(ctx context.Context, server, name string, timeout time.Duration) error
}

// NewNetwork creates a new Network instance
func NewNetwork() *Network {
	return &Network{
		Timeout:   2 * time.Second,
		ProbeName: DefaultProbeName,
		ListAddrs: linkAddrs,
		Ping:      pingHost,
		Resolve:   queryServer,
	}
}

// CheckInterfaceAddress reports whether iface currently carries cidr
// (same address and prefix length).
func (n *Network) CheckInterfaceAddress(iface, cidr string) CheckResult {
	result := CheckResult{Check: CheckAddress, Target: fmt.Sprintf("%s on %s", cidr, iface)}

	want, wantNet, err := net.ParseCIDR(cidr)
	if err != nil {
		result.Detail = fmt.Sprintf("invalid address: %v", err)
		return result
	}
	wantOnes, _ := wantNet.Mask.Size()

	addrs, err := n.ListAddrs(iface)
	if err != nil {
		result.Detail = err.Error()
		return result
	}

	var have []string
	for _, addr := range addrs {
		ones, _ := addr.Mask.Size()
		if addr.IP.Equal(want) && ones == wantOnes {
			result.OK = true
			return result
		}
		have = append(have, addr.String())
	}

	if len(have) == 0 {
		result.Detail = "no IPv4 address assigned"
	} else {
		result.Detail = fmt.Sprintf("interface has %v", have)
	}
	return result
}

// CheckGateway pings the router once.
func (n *Network) CheckGateway(router string) CheckResult {
	result := CheckResult{Check: CheckGateway, Target: router}
	if err := n.Ping(router, n.Timeout); err != nil {
		result.Detail = err.Error()
		return result
	}
	result.OK = true
	return result
}

// CheckDNSServer resolves the probe name against server directly.
func (n *Network) CheckDNSServer(ctx context.Context, server string) CheckResult {
	result := CheckResult{Check: CheckDNS, Target: server}
	if err := n.Resolve(ctx, server, n.ProbeName, n.Timeout); err != nil {
		result.Detail = err.Error()
		return result
	}
	result.OK = true
	return result
}

// Verify runs every check for the given configuration, in order: the
// interface address, the gateway, then each DNS server.
func (n *Network) Verify(ctx context.Context, iface, cidr, router string, servers []string) []CheckResult {
	results := []CheckResult{
		n.CheckInterfaceAddress(iface, cidr),
		n.CheckGateway(router),
	}
	for _, server := range servers {
		if ctx.Err() != nil {
			results = append(results, CheckResult{Check: CheckDNS, Target: server, Detail: ctx.Err().Error()})
			continue
		}
		results = append(results, n.CheckDNSServer(ctx, server))
	}
	return results
}

func linkAddrs(iface string) ([]*net.IPNet, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return nil, fmt.Errorf("failed to get interface %s: %w", iface, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses for %s: %w", iface, err)
	}

	out := make([]*net.IPNet, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IPNet != nil {
			out = append(out, addr.IPNet)
		}
	}
	return out, nil
}

func pingHost(host string, timeout time.Duration) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return fmt.Errorf("failed to create pinger: %w", err)
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.Run(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", host, err)
	}

	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no reply from %s", host)
	}
	return nil
}

func queryServer(ctx context.Context, server, name string, timeout time.Duration) error {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)
	m.RecursionDesired = true

	c := &dns.Client{Timeout: timeout}
	r, _, err := c.ExchangeContext(ctx, m, net.JoinHostPort(server, "53"))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", server, err)
	}

	if r.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%s answered %s for %s", server, dns.RcodeToString[r.Rcode], name)
	}
	return nil
}
