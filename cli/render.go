package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/yllada/mullvad-ping/probe"
	"github.com/yllada/mullvad-ping/relay"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cmdStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	ruleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// column colors, cycled per column index
var columnColors = []lipgloss.Color{"13", "14", "10", "11", "9"}

// newTable builds a bordered table. Columns listed in right are right-aligned.
func newTable(headers []string, rows [][]string, right ...int) *table.Table {
	aligned := make(map[int]bool, len(right))
	for _, col := range right {
		aligned[col] = true
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := cellStyle.Foreground(columnColors[col%len(columnColors)])
			if aligned[col] {
				style = style.Align(lipgloss.Right)
			}
			return style
		})
}

func writeTable(w io.Writer, title string, t *table.Table) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, t.String())
}

func formatLatency(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}

func location(s relay.Server) string {
	switch {
	case s.CityName != "" && s.CountryName != "":
		return s.CityName + ", " + s.CountryName
	case s.CountryName != "":
		return s.CountryName
	default:
		return "Unknown"
	}
}

func resultRows(results []probe.Result) ([]string, [][]string) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Server.Hostname,
			formatLatency(r.Latency),
			r.Server.CountryName,
			r.Server.CityName,
			r.Server.Provider,
		})
	}
	return []string{"Hostname", "Ping Time (ms)", "Country", "City", "Provider"}, rows
}

func countryRows(countries []relay.Country) ([]string, [][]string) {
	rows := make([][]string, 0, len(countries))
	for i, c := range countries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), c.Name, c.Code,
			strconv.Itoa(c.WireGuard), strconv.Itoa(c.OpenVPN),
		})
	}
	return []string{"No.", "Country", "Country Code", "WireGuard Servers", "OpenVPN Servers"}, rows
}

func cityRows(cities []relay.City) ([]string, [][]string) {
	rows := make([][]string, 0, len(cities))
	for i, c := range cities {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), c.Name, c.Code, c.CountryName, c.CountryCode,
			strconv.Itoa(c.WireGuard), strconv.Itoa(c.OpenVPN),
		})
	}
	return []string{"No.", "City", "City Code", "Country", "Country Code", "WireGuard Servers", "OpenVPN Servers"}, rows
}

func providerRows(providers []relay.Provider) ([]string, [][]string) {
	rows := make([][]string, 0, len(providers))
	for i, p := range providers {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, strconv.Itoa(p.Count)})
	}
	return []string{"No.", "Provider", "Servers"}, rows
}

func renderRule(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ruleStyle.Render(strings.Repeat("=", 80)))
	fmt.Fprintln(w)
}

// connectCommand is the mullvad CLI invocation that selects hostname.
func connectCommand(hostname string) string {
	return fmt.Sprintf("mullvad relay set location %s && mullvad connect", hostname)
}

func renderConnectHint(w io.Writer, s relay.Server) {
	fmt.Fprintf(w, "\nYou selected the server: %s\n\n", s.Hostname)
	fmt.Fprintln(w, hintStyle.Render("Run the following command to connect to the selected server:"))
	fmt.Fprintln(w, cmdStyle.Render(connectCommand(s.Hostname)))
}
