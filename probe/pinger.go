package probe

import (
	"fmt"
	"strings"

	"github.com/yllada/mullvad-ping/common"
)

// PingerOptions selects and configures a Pinger.
type PingerOptions struct {
	// Method is one of common.MethodSystem, MethodICMP or MethodTCP.
	Method string
	// TCPPort is used by the tcp method.
	TCPPort int
	// Privileged selects raw sockets for the icmp method.
	Privileged bool
	// DNSServer, when set, resolves hostnames against this server.
	DNSServer string
}

// NewPinger builds the Pinger described by opts.
func NewPinger(opts PingerOptions) (Pinger, error) {
	var pinger Pinger

	switch strings.ToLower(opts.Method) {
	case common.MethodSystem, "":
		pinger = NewSystemPinger()
	case common.MethodICMP:
		// the icmp pinger resolves on its own
		return &ICMPPinger{Resolver: NewResolver(opts.DNSServer), Privileged: opts.Privileged}, nil
	case common.MethodTCP:
		pinger = NewTCPPinger(opts.TCPPort)
	default:
		return nil, fmt.Errorf("%w: unknown ping method %q", common.ErrInvalidConfig, opts.Method)
	}

	if opts.DNSServer != "" {
		pinger = WithResolver(pinger, NewResolver(opts.DNSServer))
	}
	return pinger, nil
}
