package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateprov/crateprov/internal/cmd/output"
	"github.com/crateprov/crateprov/internal/provenance"
)

func TestPrinter_SingleReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := output.NewTextHandler[provenance.Report](&buf, &Printer{})

	require.NoError(t, h.HandleResult(provenance.Report{
		Crate:            "semver",
		Version:          "1.0.4",
		Verdict:          provenance.VerdictGoldStar,
		Reason:           provenance.ReasonVerified,
		DeclaredRevision: "ea9ea80c023ba3913b2ab0a1c1d0a3bf7e6c6db5",
		VersionTag:       "1.0.4",
	}))

	out := buf.String()
	assert.Contains(t, out, "semver 1.0.4: gold-star (verified)")
	assert.Contains(t, out, "revision: ea9ea80c023ba3913b2ab0a1c1d0a3bf7e6c6db5")
	assert.Contains(t, out, "tag: 1.0.4")
	assert.NotContains(t, out, "Checked")
}

func TestPrinter_Verbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := output.NewTextHandler[provenance.Report](&buf, &Printer{Verbose: true})

	require.NoError(t, h.HandleResult(provenance.Report{
		Crate:   "serde",
		Version: "1.0.0",
		Verdict: provenance.VerdictLookSketchy,
		Reason:  provenance.ReasonFileNotFound,
		Files: []provenance.FileMatch{
			{Path: "src/lib.rs", Found: true},
			{Path: "src/de.rs", Found: false},
		},
	}))

	out := buf.String()
	assert.Contains(t, out, "✓ src/lib.rs")
	assert.Contains(t, out, "✗ src/de.rs")
}

func TestPrinter_MultipleReportsHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := output.NewTextHandler[provenance.Report](&buf, &Printer{})

	require.NoError(t, h.HandleResults(
		provenance.Report{Crate: "a", Version: "0.1.0", Verdict: provenance.VerdictGoldStar, Reason: provenance.ReasonVerified},
		provenance.Report{Crate: "b", Version: "0.2.0", Verdict: provenance.VerdictLookSketchy, Reason: provenance.ReasonRepoUnreachable},
	))

	assert.Contains(t, buf.String(), "Checked 2 crate versions:")
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, Summary{GoldStar: 3, NeedsImprovement: 2, LooksSketchy: 1, Unanalyzed: 1, Total: 7})

	out := buf.String()
	assert.Contains(t, out, "gold-star:          3")
	assert.Contains(t, out, "could-not-analyze:  1 (excluded from tiers)")
	assert.Contains(t, out, "total:              7")
}

func TestPrintSummary_NoUnanalyzed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, Summary{GoldStar: 1, Total: 1})

	assert.NotContains(t, buf.String(), "could-not-analyze")
}
