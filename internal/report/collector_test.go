package report

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateprov/crateprov/internal/provenance"
)

func TestCollector_ReportsSorted(t *testing.T) {
	t.Parallel()

	var c Collector
	c.Add(provenance.Report{Crate: "b", Rank: 2, Verdict: provenance.VerdictGoldStar})
	c.Add(provenance.Report{Crate: "c", Rank: 0, Verdict: provenance.VerdictLookSketchy})
	c.Add(provenance.Report{Crate: "a", Rank: 1, Verdict: provenance.VerdictNeedsImprovement})

	reports := c.Reports()
	require.Len(t, reports, 3)
	assert.Equal(t, "c", reports[0].Crate)
	assert.Equal(t, "a", reports[1].Crate)
	assert.Equal(t, "b", reports[2].Crate)
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(provenance.Report{Verdict: provenance.VerdictGoldStar})
		}()
	}
	wg.Wait()

	assert.Len(t, c.Reports(), 50)
	assert.Equal(t, 50, c.Summarize().GoldStar)
}

func TestCollector_Summarize(t *testing.T) {
	t.Parallel()

	var c Collector
	c.Add(provenance.Report{Verdict: provenance.VerdictGoldStar})
	c.Add(provenance.Report{Verdict: provenance.VerdictGoldStar})
	c.Add(provenance.Report{Verdict: provenance.VerdictNeedsImprovement})
	c.Add(provenance.Report{Verdict: provenance.VerdictLookSketchy})
	c.Add(provenance.Report{Verdict: provenance.VerdictUnanalyzed})

	s := c.Summarize()
	assert.Equal(t, 2, s.GoldStar)
	assert.Equal(t, 1, s.NeedsImprovement)
	assert.Equal(t, 1, s.LooksSketchy)
	assert.Equal(t, 1, s.Unanalyzed)
	assert.Equal(t, 5, s.Total)
}
