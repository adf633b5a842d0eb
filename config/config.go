// Package config provides configuration management for mullvad-ping.
// Settings come from a YAML file; command-line flags override them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/mullvad-ping/common"
)

// Config represents the application configuration.
type Config struct {
	// APIURL is the relay list endpoint.
	APIURL string `yaml:"api_url"`
	// RelayDomain is appended to hostnames that come without an FQDN.
	RelayDomain string `yaml:"relay_domain"`
	// MaxConcurrentPings caps the number of probes in flight.
	MaxConcurrentPings int `yaml:"max_concurrent_pings"`
	// PingTimeout is the per-probe timeout.
	PingTimeout time.Duration `yaml:"ping_timeout"`
	// PingMethod is one of "system", "icmp" or "tcp".
	PingMethod string `yaml:"ping_method"`
	// PrivilegedICMP uses a raw socket for the icmp method.
	PrivilegedICMP bool `yaml:"privileged_icmp"`
	// TCPPort is the port dialed by the tcp method.
	TCPPort int `yaml:"tcp_port"`
	// DNSServer, when set ("1.1.1.1:53"), resolves relay hostnames directly.
	DNSServer string `yaml:"dns_server"`
	// ProbesPerSecond paces probe admission. Zero disables pacing.
	ProbesPerSecond float64 `yaml:"probes_per_second"`
	// NextFastest is how many runners-up are shown.
	NextFastest int `yaml:"next_fastest"`
	// CacheTTL is how long a cached relay list is reused. Zero disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Notify sends a desktop notification with the result.
	Notify bool `yaml:"notify"`
	// LogToFile also writes logs under the config directory.
	LogToFile bool `yaml:"log_to_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIURL:             common.DefaultRelayAPIURL,
		RelayDomain:        common.DefaultRelayDomain,
		MaxConcurrentPings: common.DefaultMaxConcurrentPings,
		PingTimeout:        common.DefaultPingTimeout,
		PingMethod:         common.MethodSystem,
		TCPPort:            common.DefaultTCPPort,
		NextFastest:        common.DefaultNextFastest,
		CacheTTL:           common.DefaultCacheTTL,
	}
}

// DefaultPath returns ~/.config/mullvad-ping/config.yaml.
func DefaultPath() (string, error) {
	configDir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, common.ConfigFileName), nil
}

// Load reads the configuration at path, or at DefaultPath when path is empty.
// A missing file yields the defaults; nothing is written to disk.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a YAML document on top of the defaults.
// Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: error parsing configuration: %v", common.ErrConfigLoad, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate falls back to defaults for unusable values. An unknown ping
// method and a concurrency cap below one are rejected.
func (c *Config) validate() error {
	defaults := DefaultConfig()

	c.PingMethod = strings.ToLower(strings.TrimSpace(c.PingMethod))
	switch c.PingMethod {
	case common.MethodSystem, common.MethodICMP, common.MethodTCP:
	case "":
		c.PingMethod = defaults.PingMethod
	default:
		return fmt.Errorf("%w: unknown ping_method %q", common.ErrInvalidConfig, c.PingMethod)
	}

	if c.MaxConcurrentPings < 1 {
		return fmt.Errorf("%w: max_concurrent_pings is %d", common.ErrInvalidConcurrency, c.MaxConcurrentPings)
	}

	if c.APIURL == "" {
		c.APIURL = defaults.APIURL
	}
	if c.RelayDomain == "" {
		c.RelayDomain = defaults.RelayDomain
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaults.PingTimeout
	}
	if c.TCPPort <= 0 || c.TCPPort > 65535 {
		c.TCPPort = defaults.TCPPort
	}
	if c.NextFastest < 0 {
		c.NextFastest = defaults.NextFastest
	}
	if c.ProbesPerSecond < 0 {
		c.ProbesPerSecond = 0
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}
	return nil
}
