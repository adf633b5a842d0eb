package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/yllada/mullvad-ping/common"
)

// protocolICMP is the IANA protocol number for ICMP over IPv4.
const protocolICMP = 1

// ICMPPinger sends one ICMP echo request per probe.
//
// By default it uses an unprivileged datagram socket, which on Linux
// requires the process group to be inside net.ipv4.ping_group_range.
// Privileged uses a raw socket instead and needs CAP_NET_RAW.
type ICMPPinger struct {
	// Resolver turns hostnames into addresses; nil means the system resolver.
	Resolver Resolver
	// Privileged selects a raw ip4:icmp socket.
	Privileged bool

	seq atomic.Uint32
}

// Ping implements Pinger.
func (p *ICMPPinger) Ping(ctx context.Context, address string) (time.Duration, error) {
	ip, err := resolveIPv4(ctx, p.Resolver, address)
	if err != nil {
		return 0, err
	}

	network, dst := "udp4", net.Addr(&net.UDPAddr{IP: ip})
	if p.Privileged {
		network, dst = "ip4:icmp", &net.IPAddr{IP: ip}
	}

	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return 0, fmt.Errorf("failed to open icmp socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: []byte(common.AppName),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return 0, err
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			return 0, err
		}

		reply, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// the kernel rewrites the ID on datagram sockets; match on seq
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq || !peerIs(peer, ip) {
			continue
		}
		return time.Since(start), nil
	}
}

func peerIs(peer net.Addr, ip net.IP) bool {
	switch addr := peer.(type) {
	case *net.UDPAddr:
		return addr.IP.Equal(ip)
	case *net.IPAddr:
		return addr.IP.Equal(ip)
	default:
		return false
	}
}
