// Package rank orders probe results by latency.
package rank

import (
	"sort"

	"github.com/yllada/mullvad-ping/probe"
)

// Ranking splits probe results into successes, fastest first, and failures
// in input order.
type Ranking struct {
	Successful []probe.Result
	Failed     []probe.Result
}

// Rank sorts successful results by ascending latency. Equal latencies keep
// their input order, so the same measurements always rank the same way.
func Rank(results []probe.Result) Ranking {
	ranking := Ranking{
		Successful: make([]probe.Result, 0, len(results)),
		Failed:     []probe.Result{},
	}

	for _, r := range results {
		if r.OK() {
			ranking.Successful = append(ranking.Successful, r)
		} else {
			ranking.Failed = append(ranking.Failed, r)
		}
	}

	sort.SliceStable(ranking.Successful, func(i, j int) bool {
		a, b := ranking.Successful[i], ranking.Successful[j]
		if a.Latency != b.Latency {
			return a.Latency < b.Latency
		}
		return a.Index < b.Index
	})
	sort.SliceStable(ranking.Failed, func(i, j int) bool {
		return ranking.Failed[i].Index < ranking.Failed[j].Index
	})

	return ranking
}

// Fastest returns the lowest-latency result, if any probe succeeded.
func (r Ranking) Fastest() (probe.Result, bool) {
	if len(r.Successful) == 0 {
		return probe.Result{}, false
	}
	return r.Successful[0], true
}

// Next returns up to m results following the fastest one.
func (r Ranking) Next(m int) []probe.Result {
	if m <= 0 || len(r.Successful) <= 1 {
		return nil
	}
	end := min(1+m, len(r.Successful))
	return r.Successful[1:end]
}

// SuccessCount returns the number of relays that answered.
func (r Ranking) SuccessCount() int {
	return len(r.Successful)
}

// FailureCount returns the number of relays that did not answer.
func (r Ranking) FailureCount() int {
	return len(r.Failed)
}
