// Package cli renders relay listings and search results for the terminal,
// and drives the interactive parts of mullvad-ping: the probe progress bar
// and the relay picker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/finder"
	"github.com/yllada/mullvad-ping/notify"
	"github.com/yllada/mullvad-ping/probe"
	"github.com/yllada/mullvad-ping/relay"
)

// CLI represents the command-line interface.
type CLI struct {
	Out io.Writer // reports and listings
	Err io.Writer // progress and prompts
	In  io.Reader

	// Format is one of common.OutputTable, OutputJSON or OutputCSV.
	Format string
	// Interactive enables the relay picker.
	Interactive bool
	// ShowProgress enables the progress bar for table output.
	ShowProgress bool
	// Notifier, when set, announces the fastest relay.
	Notifier common.Notifier
}

// New creates a CLI on the process's standard streams. Progress and the
// picker are enabled only when stdout is a terminal.
func New(format string, noInteractive bool) (*CLI, error) {
	format = strings.ToLower(format)
	switch format {
	case "":
		format = common.OutputTable
	case common.OutputTable, common.OutputJSON, common.OutputCSV:
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", common.ErrInvalidConfig, format)
	}

	tty := IsTerminal(os.Stdout) && IsTerminal(os.Stdin)
	return &CLI{
		Out:          os.Stdout,
		Err:          os.Stderr,
		In:           os.Stdin,
		Format:       format,
		Interactive:  tty && !noInteractive && format == common.OutputTable,
		ShowProgress: IsTerminal(os.Stdout) && format == common.OutputTable,
	}, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SearchOptions configures FindFastest.
type SearchOptions struct {
	Criteria relay.Criteria
	Pinger   probe.Pinger
	Probe    probe.Options
	// ShowNext also lists the runners-up and offers the picker.
	ShowNext bool
	// Next is how many runners-up are listed.
	Next int
}

// ListCountries prints every country with its relay counts.
func (c *CLI) ListCountries(servers []relay.Server) error {
	countries := relay.Countries(servers)
	if c.Format == common.OutputJSON {
		return writeJSON(c.Out, countries)
	}
	header, rows := countryRows(countries)
	return c.listing("Available Countries", header, rows, 0, 3, 4)
}

// ListCities prints every city with its relay counts.
func (c *CLI) ListCities(servers []relay.Server) error {
	cities := relay.Cities(servers)
	if c.Format == common.OutputJSON {
		return writeJSON(c.Out, cities)
	}
	header, rows := cityRows(cities)
	return c.listing("Available Cities", header, rows, 0, 5, 6)
}

// ListCitiesInCountry prints the cities of one country.
func (c *CLI) ListCitiesInCountry(servers []relay.Server, countryCode string) error {
	cities := relay.CitiesInCountry(servers, countryCode)
	if len(cities) == 0 {
		common.LogWarn("No cities found for country code %q", countryCode)
	}
	if c.Format == common.OutputJSON {
		return writeJSON(c.Out, cities)
	}
	header, rows := cityRows(cities)
	title := fmt.Sprintf("Available Cities in Country %s", strings.ToUpper(countryCode))
	return c.listing(title, header, rows, 0, 5, 6)
}

// ListProviders prints every hosting provider.
func (c *CLI) ListProviders(servers []relay.Server) error {
	providers := relay.Providers(servers)
	if c.Format == common.OutputJSON {
		return writeJSON(c.Out, providers)
	}
	header, rows := providerRows(providers)
	return c.listing("Available Providers", header, rows, 0, 2)
}

func (c *CLI) listing(title string, header []string, rows [][]string, right ...int) error {
	if c.Format == common.OutputCSV {
		return writeCSV(c.Out, header, rows)
	}
	writeTable(c.Out, title, newTable(header, rows, right...))
	return nil
}

// FindFastest probes the relays matching opts.Criteria and reports the
// fastest one.
func (c *CLI) FindFastest(ctx context.Context, servers []relay.Server, opts SearchOptions) (*finder.Report, error) {
	if opts.Pinger == nil {
		return nil, fmt.Errorf("%w: no pinger", common.ErrInvalidConfig)
	}

	var reporter *progressReporter
	if c.ShowProgress {
		if total := len(opts.Criteria.Apply(servers)); total > 0 {
			reporter = startProgress(ctx, c.Err, total)
			next := opts.Probe.OnResult
			opts.Probe.OnResult = func(r probe.Result) {
				reporter.Observe(r)
				if next != nil {
					next(r)
				}
			}
		}
	}

	prober, err := probe.New(opts.Pinger, opts.Probe)
	if err != nil {
		if reporter != nil {
			reporter.Stop()
		}
		return nil, err
	}

	common.LogInfo("Total servers before filtering: %d", len(servers))
	report, err := finder.New(prober).Run(ctx, servers, opts.Criteria)
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		return nil, err
	}
	common.LogInfo("Total servers after filtering: %d", len(report.Candidates))

	if ctx.Err() != nil {
		return report, fmt.Errorf("%w: %d of %d probes did not run", common.ErrCancelled,
			report.Ranking.FailureCount(), len(report.Candidates))
	}

	switch c.Format {
	case common.OutputJSON:
		err = writeJSON(c.Out, newJSONReport(report))
	case common.OutputCSV:
		header, rows := reportCSV(report)
		err = writeCSV(c.Out, header, rows)
	default:
		err = c.renderReport(report, opts)
	}
	if err != nil {
		return report, err
	}

	if c.Notifier != nil {
		if fastest, ok := report.Ranking.Fastest(); ok {
			notify.FastestRelay(c.Notifier, fastest.Server.Hostname, location(fastest.Server),
				float64(fastest.Latency.Microseconds())/1000)
		}
	}
	return report, nil
}

func (c *CLI) renderReport(report *finder.Report, opts SearchOptions) error {
	fastest, ok := report.Ranking.Fastest()
	if !ok {
		fmt.Fprintln(c.Out, failStyle.Render("No ping results were obtained."))
		c.renderFailures(report)
		return nil
	}

	renderRule(c.Out)
	header, rows := resultRows([]probe.Result{fastest})
	writeTable(c.Out, "Fastest Mullvad Server", newTable(header, rows, 1))

	next := report.Ranking.Next(opts.Next)
	if opts.ShowNext && len(next) > 0 {
		renderRule(c.Out)
		header, rows := resultRows(next)
		title := fmt.Sprintf("Next %d Fastest Mullvad Servers", len(next))
		writeTable(c.Out, title, newTable(header, rows, 1))
	}
	c.renderFailures(report)

	selected := fastest
	if opts.ShowNext && c.Interactive && len(next) > 0 {
		choice, picked, err := pick(c.In, c.Err, append([]probe.Result{fastest}, next...))
		if err != nil {
			return err
		}
		if !picked {
			common.LogInfo("No server selected")
			return nil
		}
		selected = choice
	}

	renderConnectHint(c.Out, selected.Server)
	return nil
}

func (c *CLI) renderFailures(report *finder.Report) {
	failed := report.Ranking.FailureCount()
	if failed == 0 {
		return
	}
	fmt.Fprintln(c.Out)
	fmt.Fprintln(c.Out, failStyle.Render(fmt.Sprintf("%d of %d relays did not respond", failed, len(report.Candidates))))
	for _, r := range report.Ranking.Failed {
		common.LogDebug("%s: %v", r.Server.Hostname, r.Err)
	}
}
