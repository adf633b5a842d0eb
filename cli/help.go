package cli

import (
	"fmt"
	"io"
)

// PrintHelp prints CLI usage help.
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, `mullvad-ping - find the Mullvad VPN relay with the lowest latency

Usage:
  mullvad-ping [OPTIONS]

Filters:
  --exclude-country NAME       Exclude relays in a country (code or name)
  --exclude-country-code CODE  Exclude relays in a country code
  --exclude-city NAME          Exclude relays in a city (code or name)
  --exclude-city-code CODE     Exclude relays in a city code
  --exclude-state STATE        Exclude relays in a state, e.g. NY
  --exclude-provider NAME      Exclude relays of a hosting provider
  --provider NAME              Only relays of this hosting provider
  --country-code CODES         Only relays in these countries (comma separated)
  --city-code CODES            Only relays in these cities (comma separated)
  --vpn-type wg|ovpn           Only WireGuard or OpenVPN relays
  --exclude-inactive           Skip relays marked inactive

Probing:
  --max-concurrent-pings N     Probes in flight at once (default 10)
  --timeout DURATION           Per-probe timeout (default 5s)
  --method system|icmp|tcp     How latency is measured (default system)
  --port N                     Port for the tcp method (default 443)
  --dns-server HOST[:PORT]     Resolve relay hostnames with this server
  --rate N                     Start at most N probes per second

Results:
  --show-next-fastest          Also list the runners-up and pick one
  --next N                     How many runners-up to list (default 10)
  --output table|json|csv      Output format (default table)
  --no-interactive             Never prompt for a relay
  --notify                     Send a desktop notification with the result

Listings:
  --list-countries             List countries with relay counts
  --list-cities                List cities with relay counts
  --list-cities-in-country CC  List the cities of one country
  --list-providers             List hosting providers

General:
  --refresh                    Ignore the cached relay list
  --config PATH                Configuration file
  --verbose                    Enable verbose logging
  --version                    Show version and exit
  --help                       Show this help message

Examples:
  mullvad-ping --country-code se,no --vpn-type wg
  mullvad-ping --exclude-country-code us --show-next-fastest --next 5
  mullvad-ping --method tcp --port 51820 --output json
  mullvad-ping --list-cities-in-country de`)
}
