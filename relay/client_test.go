package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yllada/mullvad-ping/common"
)

const relayListJSON = `[
  {"hostname":"se-got-wg-001","fqdn":"se-got-wg-001.relays.mullvad.net","country_code":"se","country_name":"Sweden","city_code":"got","city_name":"Gothenburg","provider":"31173","type":"wireguard","active":true,"owned":true,"ipv4_addr_in":"185.213.154.66"},
  {"hostname":"us-atl-ovpn-001","country_code":"us","country_name":"USA","city_code":"atl","city_name":"Atlanta, GA","provider":"M247","type":"openvpn","active":true,"owned":false,"pubkey":"ignored"}
]`

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(relayListJSON))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "mullvad.net")
	servers, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(servers) != 2 {
		t.Fatalf("Fetch() returned %d relays, want 2", len(servers))
	}
	if servers[0].IPv4AddrIn != "185.213.154.66" || !servers[0].Owned {
		t.Errorf("first relay decoded incorrectly: %+v", servers[0])
	}
	if servers[1].FQDN != "us-atl-ovpn-001.mullvad.net" {
		t.Errorf("FQDN = %q, want the relay domain appended", servers[1].FQDN)
	}
	if servers[1].State() != "GA" {
		t.Errorf("State() = %q, want GA", servers[1].State())
	}
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, "oops", common.ErrCatalogFetch},
		{"malformed", http.StatusOK, "{not json", common.ErrCatalogFetch},
		{"empty list", http.StatusOK, "[]", common.ErrEmptyCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "").Fetch(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, common.ErrCatalogFetch) {
				t.Errorf("Fetch() error = %v, should wrap ErrCatalogFetch", err)
			}
		})
	}
}

func TestClient_FetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "").Fetch(context.Background())
	if !errors.Is(err, common.ErrCatalogFetch) {
		t.Errorf("Fetch() error = %v, want ErrCatalogFetch", err)
	}
}
