// Package main provides the entry point for mullvad-ping.
// mullvad-ping downloads the Mullvad relay list, narrows it down with the
// given filters, pings every remaining relay with a bounded number of
// probes in flight and reports the one with the lowest latency.
//
// Usage:
//
//	mullvad-ping [options]
//
// Exit codes:
//
//	0  success, including runs in which no relay answered
//	1  relay list, configuration or output failure
//	2  invalid --max-concurrent-pings
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yllada/mullvad-ping/cli"
	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/config"
	"github.com/yllada/mullvad-ping/notify"
	"github.com/yllada/mullvad-ping/probe"
	"github.com/yllada/mullvad-ping/relay"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	// General flags
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")
	configPath  = flag.String("config", "", "Path to the configuration file")
	refresh     = flag.Bool("refresh", false, "Ignore the cached relay list")

	// Filters
	excludeCountry     = flag.String("exclude-country", "", "Exclude relays in a country (code or name)")
	excludeCountryCode = flag.String("exclude-country-code", "", "Exclude relays in a country code")
	excludeCity        = flag.String("exclude-city", "", "Exclude relays in a city (code or name)")
	excludeCityCode    = flag.String("exclude-city-code", "", "Exclude relays in a city code")
	excludeState       = flag.String("exclude-state", "", "Exclude relays in a state")
	excludeProvider    = flag.String("exclude-provider", "", "Exclude relays of a hosting provider")
	provider           = flag.String("provider", "", "Only relays of this hosting provider")
	countryCodes       = flag.String("country-code", "", "Only relays in these countries (comma separated)")
	cityCodes          = flag.String("city-code", "", "Only relays in these cities (comma separated)")
	vpnType            = flag.String("vpn-type", "", "Only wg or ovpn relays")
	excludeInactive    = flag.Bool("exclude-inactive", false, "Skip relays marked inactive")

	// Probing
	maxConcurrent = flag.Int("max-concurrent-pings", common.DefaultMaxConcurrentPings, "Probes in flight at once")
	timeout       = flag.Duration("timeout", common.DefaultPingTimeout, "Per-probe timeout")
	method        = flag.String("method", common.MethodSystem, "Latency method: system, icmp or tcp")
	port          = flag.Int("port", common.DefaultTCPPort, "Port for the tcp method")
	dnsServer     = flag.String("dns-server", "", "Resolve relay hostnames with this DNS server")
	rate          = flag.Float64("rate", 0, "Start at most N probes per second")

	// Results
	showNext      = flag.Bool("show-next-fastest", false, "Also list the next fastest relays")
	nextCount     = flag.Int("next", common.DefaultNextFastest, "How many runners-up to list")
	output        = flag.String("output", common.OutputTable, "Output format: table, json or csv")
	noInteractive = flag.Bool("no-interactive", false, "Never prompt for a relay")
	sendNotify    = flag.Bool("notify", false, "Send a desktop notification with the result")

	// Listings
	listCountries       = flag.Bool("list-countries", false, "List countries")
	listCities          = flag.Bool("list-cities", false, "List cities")
	listCitiesInCountry = flag.String("list-cities-in-country", "", "List the cities of a country code")
	listProviders       = flag.Bool("list-providers", false, "List hosting providers")
)

func main() {
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *showHelp {
		cli.PrintHelp(os.Stdout)
		return 0
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		return 0
	}

	// Rejected before anything touches the network.
	if *maxConcurrent < 1 {
		fmt.Fprintf(os.Stderr, "Error: %v (got %d)\n", common.ErrInvalidConcurrency, *maxConcurrent)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	applyFlags(cfg)

	logLevel := common.LevelInfo
	if *verbose {
		logLevel = common.LevelDebug
	} else if !strings.EqualFold(*output, common.OutputTable) {
		logLevel = common.LevelWarn
	}
	if err := common.InitLogger(common.LogConfig{
		Level:      logLevel,
		EnableFile: cfg.LogToFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	cliApp, err := cli.New(*output, *noInteractive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	servers, err := loadCatalog(ctx, cfg)
	if err != nil {
		common.LogError("Could not load relay list: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := dispatch(ctx, cliApp, cfg, servers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps a failed run onto the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, common.ErrInvalidConcurrency):
		return 2
	default:
		return 1
	}
}

// applyFlags overrides configuration values with the flags given on the
// command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-concurrent-pings":
			cfg.MaxConcurrentPings = *maxConcurrent
		case "timeout":
			cfg.PingTimeout = *timeout
		case "method":
			cfg.PingMethod = strings.ToLower(*method)
		case "port":
			cfg.TCPPort = *port
		case "dns-server":
			cfg.DNSServer = *dnsServer
		case "rate":
			cfg.ProbesPerSecond = *rate
		case "next":
			cfg.NextFastest = *nextCount
		case "notify":
			cfg.Notify = *sendNotify
		}
	})
}

func loadCatalog(ctx context.Context, cfg *config.Config) ([]relay.Server, error) {
	catalog := &relay.Catalog{
		Fetcher: relay.NewClient(cfg.APIURL, cfg.RelayDomain),
		TTL:     cfg.CacheTTL,
		Refresh: *refresh,
	}

	if cfg.CacheTTL > 0 {
		cache, err := relay.OpenDefaultCache()
		if err != nil {
			common.LogWarn("Relay cache unavailable: %v", err)
		} else {
			defer cache.Close()
			catalog.Cache = cache
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, common.CatalogFetchTimeout)
	defer cancel()
	return catalog.Load(fetchCtx)
}

// dispatch runs the listing or search selected by the flags.
func dispatch(ctx context.Context, cliApp *cli.CLI, cfg *config.Config, servers []relay.Server) error {
	switch {
	case *listCountries:
		return cliApp.ListCountries(servers)
	case *listCities:
		return cliApp.ListCities(servers)
	case *listCitiesInCountry != "":
		return cliApp.ListCitiesInCountry(servers, *listCitiesInCountry)
	case *listProviders:
		return cliApp.ListProviders(servers)
	}

	pinger, err := probe.NewPinger(probe.PingerOptions{
		Method:     cfg.PingMethod,
		TCPPort:    cfg.TCPPort,
		Privileged: cfg.PrivilegedICMP,
		DNSServer:  cfg.DNSServer,
	})
	if err != nil {
		return err
	}

	if cfg.Notify {
		notifier, err := notify.NewDBusNotifier()
		if err != nil {
			common.LogWarn("Desktop notifications unavailable: %v", err)
		} else {
			defer notifier.Close()
			cliApp.Notifier = notifier
		}
	}

	start := time.Now()
	_, err = cliApp.FindFastest(ctx, servers, cli.SearchOptions{
		Criteria: criteria(),
		Pinger:   pinger,
		Probe: probe.Options{
			Concurrency: cfg.MaxConcurrentPings,
			Timeout:     cfg.PingTimeout,
			Rate:        cfg.ProbesPerSecond,
		},
		ShowNext: *showNext,
		Next:     cfg.NextFastest,
	})
	common.LogDebug("Search finished in %v", time.Since(start).Round(time.Millisecond))
	return err
}

// criteria builds the relay filter from the flags.
func criteria() relay.Criteria {
	return relay.Criteria{
		ExcludeCountry:     *excludeCountry,
		ExcludeCountryCode: *excludeCountryCode,
		ExcludeCity:        *excludeCity,
		ExcludeCityCode:    *excludeCityCode,
		ExcludeState:       *excludeState,
		ExcludeProvider:    *excludeProvider,
		Provider:           *provider,
		CountryCodes:       common.SplitList(*countryCodes),
		CityCodes:          common.SplitList(*cityCodes),
		VPNType:            *vpnType,
		ExcludeInactive:    *excludeInactive,
	}
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so in-flight
// probes stop and the run ends cleanly.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, stopping...", sig)
		cancel()
	}()
}
