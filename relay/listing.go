package relay

import (
	"sort"
	"strings"
)

// TypeCounts holds per-tunnel-type relay counts.
type TypeCounts struct {
	WireGuard int `json:"wireguard"`
	OpenVPN   int `json:"openvpn"`
}

func (t *TypeCounts) add(s Server) {
	switch {
	case s.IsWireGuard():
		t.WireGuard++
	case s.IsOpenVPN():
		t.OpenVPN++
	}
}

// Country summarizes the relays in one country.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
	TypeCounts
}

// City summarizes the relays in one city.
type City struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	TypeCounts
}

// Provider summarizes the relays run by one hosting provider.
type Provider struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Countries lists every country in the catalog sorted by name.
func Countries(servers []Server) []Country {
	index := make(map[string]*Country)
	for _, s := range servers {
		if s.CountryCode == "" {
			continue
		}
		key := strings.ToLower(s.CountryCode)
		c, ok := index[key]
		if !ok {
			c = &Country{Code: s.CountryCode, Name: s.CountryName}
			index[key] = c
		}
		c.add(s)
	}

	out := make([]Country, 0, len(index))
	for _, c := range index {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Cities lists every city in the catalog sorted by name.
func Cities(servers []Server) []City {
	return cities(servers, "")
}

// CitiesInCountry lists the cities of one country, matched on the
// country code ignoring case.
func CitiesInCountry(servers []Server, countryCode string) []City {
	return cities(servers, countryCode)
}

func cities(servers []Server, countryCode string) []City {
	index := make(map[string]*City)
	for _, s := range servers {
		if s.CityCode == "" {
			continue
		}
		if countryCode != "" && !strings.EqualFold(s.CountryCode, countryCode) {
			continue
		}
		// city codes are only unique within a country
		key := strings.ToLower(s.CountryCode + "/" + s.CityCode)
		c, ok := index[key]
		if !ok {
			c = &City{
				Code:        s.CityCode,
				Name:        s.CityName,
				CountryCode: s.CountryCode,
				CountryName: s.CountryName,
			}
			index[key] = c
		}
		c.add(s)
	}

	out := make([]City, 0, len(index))
	for _, c := range index {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CountryCode < out[j].CountryCode
	})
	return out
}

// Providers lists every hosting provider sorted by name.
func Providers(servers []Server) []Provider {
	counts := make(map[string]int)
	for _, s := range servers {
		if s.Provider != "" {
			counts[s.Provider]++
		}
	}

	out := make([]Provider, 0, len(counts))
	for name, n := range counts {
		out = append(out, Provider{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
