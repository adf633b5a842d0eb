// Package common provides shared constants, types, and utilities
// used across mullvad-ping.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "mullvad-ping"
	// ConfigDirName is the name of the configuration and cache directory.
	ConfigDirName = "mullvad-ping"
)

// File names used by the application.
const (
	ConfigFileName = "config.yaml"
	CacheFileName  = "relays.db"
	LogFileName    = "mullvad-ping.log"
)

// Relay list source.
const (
	// DefaultRelayAPIURL is the endpoint publishing every Mullvad relay.
	DefaultRelayAPIURL = "https://api.mullvad.net/www/relays/all/"
	// DefaultRelayDomain is appended to bare hostnames that carry no FQDN.
	DefaultRelayDomain = "mullvad.net"
	// CatalogFetchTimeout bounds the relay list download.
	CatalogFetchTimeout = 30 * time.Second
	// DefaultCacheTTL is how long a cached relay list is considered fresh.
	DefaultCacheTTL = 1 * time.Hour
)

// Probe defaults.
const (
	// DefaultMaxConcurrentPings is the default concurrency cap.
	DefaultMaxConcurrentPings = 10
	// DefaultPingTimeout is the per-probe timeout.
	DefaultPingTimeout = 5 * time.Second
	// DefaultNextFastest is how many relays the "next fastest" table shows.
	DefaultNextFastest = 10
	// DefaultTCPPort is probed by the tcp method. Mullvad relays accept 443.
	DefaultTCPPort = 443
)

// Ping methods.
const (
	MethodSystem = "system"
	MethodICMP   = "icmp"
	MethodTCP    = "tcp"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

// Relay tunnel types as published by the API.
const (
	TypeWireGuard = "wireguard"
	TypeOpenVPN   = "openvpn"
	TypeBridge    = "bridge"
)
