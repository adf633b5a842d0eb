package relay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testCatalog() []Server {
	return []Server{
		{Hostname: "se-got-wg-001", CountryCode: "se", CountryName: "Sweden", CityCode: "got", CityName: "Gothenburg", Provider: "31173", Type: "wireguard", Active: true},
		{Hostname: "se-sto-ovpn-001", CountryCode: "se", CountryName: "Sweden", CityCode: "sto", CityName: "Stockholm", Provider: "31173", Type: "openvpn", Active: true},
		{Hostname: "us-atl-wg-001", CountryCode: "us", CountryName: "USA", CityCode: "atl", CityName: "Atlanta, GA", Provider: "M247", Type: "wireguard", Active: true},
		{Hostname: "us-nyc-wg-301", CountryCode: "us", CountryName: "USA", CityCode: "nyc", CityName: "New York, NY", Provider: "xtom", Type: "wireguard", Active: true},
		{Hostname: "de-fra-wg-001", CountryCode: "de", CountryName: "Germany", CityCode: "fra", CityName: "Frankfurt", Provider: "M247", Type: "wireguard", Active: true},
		{Hostname: "de-fra-wg-002", CountryCode: "de", CountryName: "Germany", CityCode: "fra", CityName: "Frankfurt", Provider: "M247", Type: "wireguard", Active: false},
	}
}

func hostnames(servers []Server) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		out = append(out, s.Hostname)
	}
	return out
}

func TestCriteria_Apply(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name: "no criteria keeps everything",
			want: []string{"se-got-wg-001", "se-sto-ovpn-001", "us-atl-wg-001", "us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude country code",
			criteria: Criteria{ExcludeCountry: "SE"},
			want:     []string{"us-atl-wg-001", "us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude country name",
			criteria: Criteria{ExcludeCountry: "germany"},
			want:     []string{"se-got-wg-001", "se-sto-ovpn-001", "us-atl-wg-001", "us-nyc-wg-301"},
		},
		{
			name:     "exclude city code and name",
			criteria: Criteria{ExcludeCity: "got"},
			want:     []string{"se-sto-ovpn-001", "us-atl-wg-001", "us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude state",
			criteria: Criteria{ExcludeState: "ga"},
			want:     []string{"se-got-wg-001", "se-sto-ovpn-001", "us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude provider",
			criteria: Criteria{ExcludeProvider: "m247"},
			want:     []string{"se-got-wg-001", "se-sto-ovpn-001", "us-nyc-wg-301"},
		},
		{
			name:     "include provider",
			criteria: Criteria{Provider: "M247"},
			want:     []string{"us-atl-wg-001", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "country and city code lists",
			criteria: Criteria{CountryCodes: []string{"us", "DE"}, CityCodes: []string{"nyc", "fra"}},
			want:     []string{"us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "vpn type ovpn",
			criteria: Criteria{VPNType: "ovpn"},
			want:     []string{"se-sto-ovpn-001"},
		},
		{
			name:     "inactive kept by default",
			criteria: Criteria{CountryCodes: []string{"de"}},
			want:     []string{"de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude inactive",
			criteria: Criteria{CountryCodes: []string{"de"}, ExcludeInactive: true},
			want:     []string{"de-fra-wg-001"},
		},
		{
			name:     "exclude country and country code together",
			criteria: Criteria{ExcludeCountry: "us", ExcludeCountryCode: "se"},
			want:     []string{"de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "exclude city and city code together",
			criteria: Criteria{ExcludeCity: "Gothenburg", ExcludeCityCode: "fra"},
			want:     []string{"se-sto-ovpn-001", "us-atl-wg-001", "us-nyc-wg-301"},
		},
		{
			name:     "country code exclusion ignores names",
			criteria: Criteria{ExcludeCountryCode: "Sweden"},
			want:     []string{"se-got-wg-001", "se-sto-ovpn-001", "us-atl-wg-001", "us-nyc-wg-301", "de-fra-wg-001", "de-fra-wg-002"},
		},
		{
			name:     "combined exclusions",
			criteria: Criteria{ExcludeCountry: "se", ExcludeState: "NY", VPNType: "wg"},
			want:     []string{"us-atl-wg-001", "de-fra-wg-001", "de-fra-wg-002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hostnames(tt.criteria.Apply(testCatalog()))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCriteria_ApplyExcludesEveryMatch(t *testing.T) {
	catalog := testCatalog()
	criteria := Criteria{ExcludeCountry: "us", ExcludeCity: "fra", ExcludeProvider: "31173"}

	got := criteria.Apply(catalog)
	for _, s := range got {
		if s.CountryCode == "us" || s.CityCode == "fra" || s.Provider == "31173" {
			t.Errorf("Apply() kept excluded relay %s", s.Hostname)
		}
	}
}

func TestCriteria_ApplyIsSubsetAndIdempotent(t *testing.T) {
	catalog := testCatalog()
	criteria := Criteria{ExcludeCountry: "se"}

	first := criteria.Apply(catalog)
	second := criteria.Apply(catalog)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Apply() should be idempotent (-first +second):\n%s", diff)
	}

	again := criteria.Apply(first)
	if diff := cmp.Diff(first, again); diff != "" {
		t.Errorf("re-filtering the candidate set should not change it (-want +got):\n%s", diff)
	}

	known := make(map[string]bool)
	for _, s := range catalog {
		known[s.Hostname] = true
	}
	for _, s := range first {
		if !known[s.Hostname] {
			t.Errorf("Apply() returned %s which is not in the catalog", s.Hostname)
		}
	}
}

func TestCriteria_ApplyEmptyIsNotNil(t *testing.T) {
	got := Criteria{CountryCodes: []string{"jp"}}.Apply(testCatalog())
	if got == nil {
		t.Fatal("Apply() should return an empty, non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("Apply() = %v, want empty", hostnames(got))
	}
}

func TestCriteria_ScenarioExcludeSweden(t *testing.T) {
	// records without an "active" field decode with Active == false
	catalog := []Server{
		{Hostname: "se1", CountryCode: "se"},
		{Hostname: "us1", CountryCode: "us"},
	}

	got := Criteria{ExcludeCountry: "se"}.Apply(catalog)
	if diff := cmp.Diff([]string{"us1"}, hostnames(got)); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestCriteria_IsZero(t *testing.T) {
	if !(Criteria{}).IsZero() {
		t.Error("zero Criteria should report IsZero")
	}
	if (Criteria{ExcludeState: "GA"}).IsZero() {
		t.Error("populated Criteria should not report IsZero")
	}
	if (Criteria{ExcludeInactive: true}).IsZero() {
		t.Error("ExcludeInactive should count as a populated criterion")
	}
	if (Criteria{ExcludeCountryCode: "se"}).IsZero() || (Criteria{ExcludeCityCode: "got"}).IsZero() {
		t.Error("code exclusions should count as populated criteria")
	}

	catalog := testCatalog()
	if got := (Criteria{}).Apply(catalog); len(got) != len(catalog) {
		t.Errorf("zero Criteria kept %d of %d relays, want all", len(got), len(catalog))
	}
}

func TestServer_State(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"Atlanta, GA", "GA"},
		{"Washington, D.C., DC", "DC"},
		{"Gothenburg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			if got := (Server{CityName: tt.city}).State(); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_Address(t *testing.T) {
	tests := []struct {
		name   string
		server Server
		want   string
	}{
		{"ipv4 wins", Server{Hostname: "se1", FQDN: "se1.mullvad.net", IPv4AddrIn: "185.213.154.66"}, "185.213.154.66"},
		{"fqdn", Server{Hostname: "se1", FQDN: "se1.mullvad.net"}, "se1.mullvad.net"},
		{"bare hostname", Server{Hostname: "se1"}, "se1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.server.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}
