// Package finder runs one search for the fastest relay: filter the
// catalog, probe the candidates and rank the results.
package finder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yllada/mullvad-ping/common"
	"github.com/yllada/mullvad-ping/probe"
	"github.com/yllada/mullvad-ping/rank"
	"github.com/yllada/mullvad-ping/relay"
)

// Report is the outcome of a run.
type Report struct {
	// RunID identifies the run in logs and JSON output.
	RunID uuid.UUID
	// Total is the size of the catalog before filtering.
	Total int
	// Candidates are the relays that passed the filter, in catalog order.
	Candidates []relay.Server
	// Ranking holds every probe result.
	Ranking rank.Ranking
	Started time.Time
	Elapsed time.Duration
}

// Finder ties the filter, the prober and the ranker together.
type Finder struct {
	Prober *probe.Prober
}

// New creates a Finder.
func New(prober *probe.Prober) *Finder {
	return &Finder{Prober: prober}
}

// Run filters servers by criteria, probes what is left and ranks the
// results. Every candidate is probed exactly once. A run in which every
// probe fails still returns a Report.
func (f *Finder) Run(ctx context.Context, servers []relay.Server, criteria relay.Criteria) (*Report, error) {
	if len(servers) == 0 {
		return nil, common.ErrEmptyCatalog
	}
	if f.Prober == nil {
		return nil, fmt.Errorf("%w: no prober", common.ErrInvalidConfig)
	}

	candidates := criteria.Apply(servers)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: none of %d relays match the filters", common.ErrEmptyCandidateSet, len(servers))
	}

	report := &Report{
		RunID:      uuid.New(),
		Total:      len(servers),
		Candidates: candidates,
		Started:    time.Now(),
	}

	common.LogInfo("Run %s: probing %d of %d relays (%d at a time)",
		report.RunID, len(candidates), len(servers), f.Prober.Concurrency())

	results := f.Prober.Probe(ctx, candidates)
	report.Ranking = rank.Rank(results)
	report.Elapsed = time.Since(report.Started)

	if fastest, ok := report.Ranking.Fastest(); ok {
		common.LogInfo("Run %s: fastest relay %s at %v (%d failed)",
			report.RunID, fastest.Server.Hostname, fastest.Latency, report.Ranking.FailureCount())
	} else {
		common.LogWarn("Run %s: no relay answered (%d failed)", report.RunID, report.Ranking.FailureCount())
	}

	return report, nil
}
