package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/probe"
	"github.com/yllada/mullvad-ping/relay"
)

func testServers() []relay.Server {
	return []relay.Server{
		{Hostname: "se-got-wg-001", CountryCode: "se", CountryName: "Sweden", CityCode: "got", CityName: "Gothenburg", Provider: "31173", Type: "wireguard", Active: true, IPv4AddrIn: "10.0.0.1"},
		{Hostname: "se-sto-wg-002", CountryCode: "se", CountryName: "Sweden", CityCode: "sto", CityName: "Stockholm", Provider: "M247", Type: "wireguard", Active: true, IPv4AddrIn: "10.0.0.2"},
		{Hostname: "us-nyc-wg-301", CountryCode: "us", CountryName: "USA", CityCode: "nyc", CityName: "New York, NY", Provider: "xtom", Type: "wireguard", Active: true, IPv4AddrIn: "10.0.0.3"},
		{Hostname: "de-fra-ovpn-001", CountryCode: "de", CountryName: "Germany", CityCode: "fra", CityName: "Frankfurt", Provider: "M247", Type: "openvpn", Active: true, IPv4AddrIn: "10.0.0.4"},
	}
}

// latencies answers by address; anything missing is unreachable.
func latencies(ms map[string]int) probe.Pinger {
	return probe.PingerFunc(func(ctx context.Context, address string) (time.Duration, error) {
		if v, ok := ms[address]; ok {
			return time.Duration(v) * time.Millisecond, nil
		}
		return 0, errors.New("no route to host")
	})
}

func newTestCLI(format string) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	return &CLI{Out: &out, Err: &bytes.Buffer{}, In: strings.NewReader(""), Format: format}, &out
}

func searchOptions(pinger probe.Pinger) SearchOptions {
	return SearchOptions{
		Pinger: pinger,
		Probe:  probe.Options{Concurrency: 2, Timeout: time.Second},
		Next:   10,
	}
}

func TestNew_Format(t *testing.T) {
	if _, err := New("xml", true); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("New(xml) error = %v, want ErrInvalidConfig", err)
	}
	c, err := New("JSON", false)
	if err != nil {
		t.Fatal(err)
	}
	if c.Format != common.OutputJSON || c.Interactive || c.ShowProgress {
		t.Errorf("New(JSON) = %+v, want json without interaction", c)
	}
}

func TestFindFastest_Table(t *testing.T) {
	c, out := newTestCLI(common.OutputTable)
	opts := searchOptions(latencies(map[string]int{"10.0.0.1": 30, "10.0.0.2": 12, "10.0.0.3": 90}))
	opts.ShowNext = true

	report, err := c.FindFastest(context.Background(), testServers(), opts)
	if err != nil {
		t.Fatalf("FindFastest() error = %v", err)
	}
	if report.Ranking.FailureCount() != 1 {
		t.Errorf("FailureCount() = %d, want 1", report.Ranking.FailureCount())
	}

	text := out.String()
	for _, want := range []string{
		"Fastest Mullvad Server",
		"Next 2 Fastest Mullvad Servers",
		"se-sto-wg-002",
		"12.00",
		"1 of 4 relays did not respond",
		"mullvad relay set location se-sto-wg-002 && mullvad connect",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output is missing %q:\n%s", want, text)
		}
	}
}

func TestFindFastest_JSON(t *testing.T) {
	c, out := newTestCLI(common.OutputJSON)
	opts := searchOptions(latencies(map[string]int{"10.0.0.1": 30, "10.0.0.2": 12}))
	opts.Criteria = relay.Criteria{CountryCodes: []string{"se", "us"}}

	if _, err := c.FindFastest(context.Background(), testServers(), opts); err != nil {
		t.Fatalf("FindFastest() error = %v", err)
	}

	var got jsonReport
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.RunID == "" || got.TotalRelays != 4 || got.Candidates != 3 {
		t.Errorf("report header = %+v", got)
	}
	var ranked []string
	for _, r := range got.Ranked {
		ranked = append(ranked, r.Hostname)
	}
	if diff := cmp.Diff([]string{"se-sto-wg-002", "se-got-wg-001"}, ranked); diff != "" {
		t.Errorf("ranked mismatch (-want +got):\n%s", diff)
	}
	if got.Fastest == nil || got.Fastest.LatencyMs != 12 {
		t.Errorf("fastest = %+v, want se-sto-wg-002 at 12ms", got.Fastest)
	}
	if got.FailureCount != 1 || got.Failed[0].Hostname != "us-nyc-wg-301" || got.Failed[0].Error == "" {
		t.Errorf("failed = %+v", got.Failed)
	}
}

func TestFindFastest_CSV(t *testing.T) {
	c, out := newTestCLI(common.OutputCSV)
	opts := searchOptions(latencies(map[string]int{"10.0.0.4": 7}))
	opts.Criteria = relay.Criteria{Provider: "m247"}

	if _, err := c.FindFastest(context.Background(), testServers(), opts); err != nil {
		t.Fatalf("FindFastest() error = %v", err)
	}

	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d CSV records, want header + 2", len(records))
	}
	if records[1][0] != "1" || records[1][1] != "de-fra-ovpn-001" || records[1][2] != "7.00" {
		t.Errorf("first row = %v", records[1])
	}
	if records[2][0] != "" || records[2][1] != "se-sto-wg-002" || records[2][10] == "" {
		t.Errorf("failure row = %v", records[2])
	}
}

func TestFindFastest_Errors(t *testing.T) {
	c, _ := newTestCLI(common.OutputTable)

	opts := searchOptions(latencies(nil))
	opts.Probe.Concurrency = 0
	if _, err := c.FindFastest(context.Background(), testServers(), opts); !errors.Is(err, common.ErrInvalidConcurrency) {
		t.Errorf("error = %v, want ErrInvalidConcurrency", err)
	}

	opts = searchOptions(latencies(nil))
	opts.Criteria = relay.Criteria{CountryCodes: []string{"jp"}}
	if _, err := c.FindFastest(context.Background(), testServers(), opts); !errors.Is(err, common.ErrEmptyCandidateSet) {
		t.Errorf("error = %v, want ErrEmptyCandidateSet", err)
	}

	if _, err := c.FindFastest(context.Background(), nil, searchOptions(latencies(nil))); !errors.Is(err, common.ErrEmptyCatalog) {
		t.Errorf("error = %v, want ErrEmptyCatalog", err)
	}
}

func TestFindFastest_AllFailed(t *testing.T) {
	c, out := newTestCLI(common.OutputTable)

	report, err := c.FindFastest(context.Background(), testServers(), searchOptions(latencies(nil)))
	if err != nil {
		t.Fatalf("FindFastest() error = %v", err)
	}
	if report.Ranking.SuccessCount() != 0 {
		t.Errorf("SuccessCount() = %d, want 0", report.Ranking.SuccessCount())
	}
	if !strings.Contains(out.String(), "No ping results were obtained.") {
		t.Errorf("output = %s", out.String())
	}
}

type recorder struct{ messages []string }

func (r *recorder) Notify(title, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func TestFindFastest_Notify(t *testing.T) {
	c, _ := newTestCLI(common.OutputJSON)
	rec := &recorder{}
	c.Notifier = rec

	if _, err := c.FindFastest(context.Background(), testServers(), searchOptions(latencies(map[string]int{"10.0.0.3": 5}))); err != nil {
		t.Fatal(err)
	}
	if len(rec.messages) != 1 || !strings.Contains(rec.messages[0], "us-nyc-wg-301") {
		t.Errorf("notifications = %v", rec.messages)
	}
}

func TestListings(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *CLI) error
		want []string
	}{
		{"countries", func(c *CLI) error { return c.ListCountries(testServers()) }, []string{"Available Countries", "Sweden", "Germany"}},
		{"cities", func(c *CLI) error { return c.ListCities(testServers()) }, []string{"Available Cities", "Gothenburg", "New York, NY"}},
		{"cities in country", func(c *CLI) error { return c.ListCitiesInCountry(testServers(), "se") }, []string{"Country SE", "Stockholm"}},
		{"providers", func(c *CLI) error { return c.ListProviders(testServers()) }, []string{"Available Providers", "M247", "xtom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestCLI(common.OutputTable)
			if err := tt.run(c); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output is missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestListCountries_Machine(t *testing.T) {
	c, out := newTestCLI(common.OutputJSON)
	if err := c.ListCountries(testServers()); err != nil {
		t.Fatal(err)
	}
	var countries []relay.Country
	if err := json.Unmarshal(out.Bytes(), &countries); err != nil {
		t.Fatal(err)
	}
	if len(countries) != 3 {
		t.Errorf("got %d countries, want 3", len(countries))
	}

	c, out = newTestCLI(common.OutputCSV)
	if err := c.ListProviders(testServers()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "No.,Provider,Servers\n") {
		t.Errorf("csv output = %q", out.String())
	}
}

func TestPickerModel(t *testing.T) {
	choices := []probe.Result{
		{Server: relay.Server{Hostname: "a"}, Latency: time.Millisecond},
		{Server: relay.Server{Hostname: "b"}, Latency: 2 * time.Millisecond, Index: 1},
		{Server: relay.Server{Hostname: "c"}, Latency: 3 * time.Millisecond, Index: 2},
	}

	var m tea.Model = newPickerModel(choices)
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyDown},
		{Type: tea.KeyDown},
		{Type: tea.KeyDown},
		{Type: tea.KeyUp},
	} {
		m, _ = m.Update(key)
	}
	if !strings.Contains(m.View(), "❯ [1] - b") {
		t.Errorf("cursor should be on b:\n%s", m.View())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should quit the picker")
	}
	if got := m.(pickerModel); got.chosen != 1 {
		t.Errorf("chosen = %d, want 1", got.chosen)
	}

	m, _ = newPickerModel(choices).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.(pickerModel); !got.aborted || got.chosen != -1 {
		t.Errorf("esc should abort, got %+v", got)
	}
}

func TestProgressModel(t *testing.T) {
	var m tea.Model = newProgressModel(4)
	m, _ = m.Update(probedMsg(probe.Result{Server: relay.Server{Hostname: "a"}}))
	m, _ = m.Update(probedMsg(probe.Result{Server: relay.Server{Hostname: "b"}, Err: common.ErrProbeTimeout}))

	pm := m.(progressModel)
	if pm.done != 2 || pm.failed != 1 || pm.percent() != 0.5 {
		t.Errorf("progress = %d done, %d failed, %.2f", pm.done, pm.failed, pm.percent())
	}
	if !strings.Contains(m.View(), "2/4 relays probed, 1 failed") {
		t.Errorf("view = %q", m.View())
	}
	if _, cmd := m.Update(finishedMsg{}); cmd == nil {
		t.Error("finishedMsg should quit")
	}
}

func TestConnectCommand(t *testing.T) {
	if got := connectCommand("se-got-wg-001"); got != "mullvad relay set location se-got-wg-001 && mullvad connect" {
		t.Errorf("connectCommand() = %q", got)
	}
}
