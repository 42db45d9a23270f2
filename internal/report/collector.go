package report

import (
	"sort"
	"sync"

	"github.com/crateprov/crateprov/internal/provenance"
)

// Summary aggregates tier counts over a batch of reports.
type Summary struct {
	GoldStar         int `json:"gold_star" yaml:"gold_star"`
	NeedsImprovement int `json:"needs_improvement" yaml:"needs_improvement"`
	LooksSketchy     int `json:"looks_sketchy" yaml:"looks_sketchy"`

	// Unanalyzed counts artifacts that could not be fetched; they carry no
	// trust tier and are excluded from the tier counters above.
	Unanalyzed int `json:"unanalyzed" yaml:"unanalyzed"`

	Total int `json:"total" yaml:"total"`
}

// Collector accumulates reports from concurrent workers.
// The zero value is ready to use.
type Collector struct {
	mu      sync.Mutex
	reports []provenance.Report
}

// Add records one report. Safe for concurrent use.
func (c *Collector) Add(r provenance.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = append(c.reports, r)
}

// Reports returns the collected reports ordered by rank, then crate name,
// regardless of worker completion order.
func (c *Collector) Reports() []provenance.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]provenance.Report, len(c.reports))
	copy(out, c.reports)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Crate < out[j].Crate
	})

	return out
}

// Summarize computes aggregate tier counts.
func (c *Collector) Summarize() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Summary
	for _, r := range c.reports {
		s.Total++
		switch r.Verdict {
		case provenance.VerdictGoldStar:
			s.GoldStar++
		case provenance.VerdictNeedsImprovement:
			s.NeedsImprovement++
		case provenance.VerdictLookSketchy:
			s.LooksSketchy++
		case provenance.VerdictUnanalyzed:
			s.Unanalyzed++
		}
	}

	return s
}
