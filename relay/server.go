package relay

import (
	"strings"

	"github.com/yllada/mullvad-ping/common"
)

// Server is a single relay entry from the Mullvad relay list.
type Server struct {
	Hostname         string `json:"hostname"`
	FQDN             string `json:"fqdn,omitempty"`
	CountryCode      string `json:"country_code"`
	CountryName      string `json:"country_name"`
	CityCode         string `json:"city_code"`
	CityName         string `json:"city_name"`
	Provider         string `json:"provider"`
	Type             string `json:"type"`
	Active           bool   `json:"active"`
	Owned            bool   `json:"owned"`
	IPv4AddrIn       string `json:"ipv4_addr_in,omitempty"`
	IPv6AddrIn       string `json:"ipv6_addr_in,omitempty"`
	NetworkPortSpeed int    `json:"network_port_speed,omitempty"`
}

// State returns the state or province abbreviation carried in the city
// name, e.g. "GA" for "Atlanta, GA". It returns "" when there is none.
func (s Server) State() string {
	idx := strings.LastIndex(s.CityName, ", ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(s.CityName[idx+2:])
}

// Address returns the host to probe: the published IPv4 address when
// present, otherwise the FQDN, otherwise the bare Hostname.
func (s Server) Address() string {
	if s.IPv4AddrIn != "" {
		return s.IPv4AddrIn
	}
	if s.FQDN != "" {
		return s.FQDN
	}
	return s.Hostname
}

// IsWireGuard reports whether the relay is a WireGuard relay.
func (s Server) IsWireGuard() bool {
	return strings.Contains(strings.ToLower(s.Type), common.TypeWireGuard)
}

// IsOpenVPN reports whether the relay is an OpenVPN relay.
func (s Server) IsOpenVPN() bool {
	return strings.Contains(strings.ToLower(s.Type), common.TypeOpenVPN)
}

// withDomain fills FQDN for entries published without one.
func withDomain(servers []Server, domain string) {
	if domain == "" {
		return
	}
	domain = strings.TrimPrefix(domain, ".")
	for i := range servers {
		if servers[i].FQDN == "" && servers[i].Hostname != "" {
			servers[i].FQDN = servers[i].Hostname + "." + domain
		}
	}
}
