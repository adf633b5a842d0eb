package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/yllada/mullvad-ping/common"
)

// TCPPinger measures the time to complete a TCP handshake with the relay.
// It works without raw sockets or a ping binary.
type TCPPinger struct {
	// Port is the relay port to dial.
	Port int
	// Dialer is used for the connection; nil means a zero net.Dialer.
	Dialer *net.Dialer
}

// NewTCPPinger returns a TCPPinger for port, or the default port when
// port is not positive.
func NewTCPPinger(port int) *TCPPinger {
	if port <= 0 {
		port = common.DefaultTCPPort
	}
	return &TCPPinger{Port: port}
}

// Ping implements Pinger.
func (p *TCPPinger) Ping(ctx context.Context, address string) (time.Duration, error) {
	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(p.Port)))
	if err != nil {
		return 0, err
	}
	latency := time.Since(start)
	conn.Close()

	return latency, nil
}
