package relay

import (
	"strings"

	"github.com/yllada/mullvad-ping/common"
)

// Criteria selects the candidate set out of the catalog.
//
// Exclude* fields drop relays that match; the remaining fields keep only
// relays that match. Empty fields impose no restriction and populated
// fields combine with AND. All comparisons are exact and case-insensitive.
type Criteria struct {
	// ExcludeCountry matches the country code or the country name.
	ExcludeCountry string
	// ExcludeCountryCode matches the country code only.
	ExcludeCountryCode string
	// ExcludeCity matches the city code or the city name.
	ExcludeCity string
	// ExcludeCityCode matches the city code only.
	ExcludeCityCode string
	// ExcludeState matches Server.State.
	ExcludeState string
	// ExcludeProvider matches the hosting provider.
	ExcludeProvider string

	// Provider keeps only relays from this provider.
	Provider string
	// CountryCodes keeps only relays in one of these countries.
	CountryCodes []string
	// CityCodes keeps only relays in one of these cities.
	CityCodes []string
	// VPNType keeps only "wg" or "ovpn" relays.
	VPNType string
	// ExcludeInactive drops relays the API marks as inactive.
	ExcludeInactive bool
}

// IsZero reports whether no filter is populated.
func (c Criteria) IsZero() bool {
	return c.ExcludeCountry == "" && c.ExcludeCountryCode == "" &&
		c.ExcludeCity == "" && c.ExcludeCityCode == "" && c.ExcludeState == "" &&
		c.ExcludeProvider == "" && c.Provider == "" && len(c.CountryCodes) == 0 &&
		len(c.CityCodes) == 0 && c.VPNType == "" && !c.ExcludeInactive
}

// Apply returns the relays matching the criteria in catalog order.
// The result is never nil, so an empty candidate set can be told apart
// from a filter that was never applied.
func (c Criteria) Apply(servers []Server) []Server {
	out := make([]Server, 0, len(servers))
	for _, s := range servers {
		if c.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Match reports whether a single relay passes every populated criterion.
func (c Criteria) Match(s Server) bool {
	if c.ExcludeInactive && !s.Active {
		return false
	}

	if c.ExcludeCountry != "" && (equal(s.CountryCode, c.ExcludeCountry) || equal(s.CountryName, c.ExcludeCountry)) {
		return false
	}
	if c.ExcludeCountryCode != "" && equal(s.CountryCode, c.ExcludeCountryCode) {
		return false
	}
	if c.ExcludeCity != "" && (equal(s.CityCode, c.ExcludeCity) || equal(s.CityName, c.ExcludeCity)) {
		return false
	}
	if c.ExcludeCityCode != "" && equal(s.CityCode, c.ExcludeCityCode) {
		return false
	}
	if c.ExcludeState != "" && equal(s.State(), c.ExcludeState) {
		return false
	}
	if c.ExcludeProvider != "" && equal(s.Provider, c.ExcludeProvider) {
		return false
	}

	if c.Provider != "" && !equal(s.Provider, c.Provider) {
		return false
	}
	if len(c.CountryCodes) > 0 && !common.ContainsFold(c.CountryCodes, s.CountryCode) {
		return false
	}
	if len(c.CityCodes) > 0 && !common.ContainsFold(c.CityCodes, s.CityCode) {
		return false
	}
	if c.VPNType != "" && !matchesType(s, c.VPNType) {
		return false
	}
	return true
}

func matchesType(s Server, vpnType string) bool {
	switch strings.ToLower(vpnType) {
	case "wg", common.TypeWireGuard:
		return s.IsWireGuard()
	case "ovpn", common.TypeOpenVPN:
		return s.IsOpenVPN()
	default:
		return equal(s.Type, vpnType)
	}
}

// equal compares two non-empty strings ignoring case; an empty field
// never matches.
func equal(field, want string) bool {
	return field != "" && strings.EqualFold(strings.TrimSpace(field), strings.TrimSpace(want))
}
