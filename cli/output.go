package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/yllada/mullvad-ping/finder"
	"github.com/yllada/mullvad-ping/probe"
)

type jsonResult struct {
	Rank        int     `json:"rank,omitempty"`
	Hostname    string  `json:"hostname"`
	Address     string  `json:"address"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	CityCode    string  `json:"city_code"`
	CityName    string  `json:"city_name"`
	Provider    string  `json:"provider"`
	Type        string  `json:"type"`
	LatencyMs   float64 `json:"latency_ms,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type jsonReport struct {
	RunID        string       `json:"run_id"`
	Started      time.Time    `json:"started"`
	ElapsedMs    int64        `json:"elapsed_ms"`
	TotalRelays  int          `json:"total_relays"`
	Candidates   int          `json:"candidates"`
	Fastest      *jsonResult  `json:"fastest"`
	Ranked       []jsonResult `json:"ranked"`
	Failed       []jsonResult `json:"failed"`
	FailureCount int          `json:"failure_count"`
	Command      string       `json:"command,omitempty"`
}

func toJSONResult(rank int, r probe.Result) jsonResult {
	out := jsonResult{
		Rank:        rank,
		Hostname:    r.Server.Hostname,
		Address:     r.Server.Address(),
		CountryCode: r.Server.CountryCode,
		CountryName: r.Server.CountryName,
		CityCode:    r.Server.CityCode,
		CityName:    r.Server.CityName,
		Provider:    r.Server.Provider,
		Type:        r.Server.Type,
	}
	if r.OK() {
		out.LatencyMs = float64(r.Latency) / float64(time.Millisecond)
	} else {
		out.Error = r.Err.Error()
	}
	return out
}

func newJSONReport(report *finder.Report) jsonReport {
	out := jsonReport{
		RunID:        report.RunID.String(),
		Started:      report.Started,
		ElapsedMs:    report.Elapsed.Milliseconds(),
		TotalRelays:  report.Total,
		Candidates:   len(report.Candidates),
		Ranked:       make([]jsonResult, 0, report.Ranking.SuccessCount()),
		Failed:       make([]jsonResult, 0, report.Ranking.FailureCount()),
		FailureCount: report.Ranking.FailureCount(),
	}
	for i, r := range report.Ranking.Successful {
		out.Ranked = append(out.Ranked, toJSONResult(i+1, r))
	}
	for _, r := range report.Ranking.Failed {
		out.Failed = append(out.Failed, toJSONResult(0, r))
	}
	if len(out.Ranked) > 0 {
		out.Fastest = &out.Ranked[0]
		out.Command = connectCommand(out.Fastest.Hostname)
	}
	return out
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSV writes a header line followed by rows.
func writeCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// reportCSV flattens a report: ranked relays first, then failures with an
// empty rank and latency.
func reportCSV(report *finder.Report) ([]string, [][]string) {
	header := []string{"rank", "hostname", "latency_ms", "country_code", "country", "city_code", "city", "provider", "type", "address", "error"}

	rows := make([][]string, 0, len(report.Candidates))
	for i, r := range report.Ranking.Successful {
		rows = append(rows, csvRow(fmt.Sprint(i+1), formatLatency(r.Latency), r, ""))
	}
	for _, r := range report.Ranking.Failed {
		rows = append(rows, csvRow("", "", r, r.Err.Error()))
	}
	return header, rows
}

func csvRow(rank, latency string, r probe.Result, errText string) []string {
	s := r.Server
	return []string{rank, s.Hostname, latency, s.CountryCode, s.CountryName, s.CityCode, s.CityName, s.Provider, s.Type, s.Address(), errText}
}
