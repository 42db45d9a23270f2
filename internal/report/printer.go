// Package report collects and renders classification results.
package report

import (
	"fmt"
	"io"

	"github.com/crateprov/crateprov/internal/provenance"
)

// Printer renders classification reports as human-readable text.
type Printer struct {
	// Verbose adds per-file match lines to each report.
	Verbose bool
}

// Header prints the leading line before any reports.
func (p *Printer) Header(w io.Writer, count int) {
	if count == 1 {
		return
	}
	_, _ = fmt.Fprintf(w, "Checked %d crate versions:\n\n", count)
}

// Item prints one report.
func (p *Printer) Item(w io.Writer, r provenance.Report) error {
	if _, err := fmt.Fprintf(w, "%s %s: %s (%s)\n", r.Crate, r.Version, r.Verdict, r.Reason); err != nil {
		return err
	}

	if r.Detail != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", r.Detail); err != nil {
			return err
		}
	}

	if r.DeclaredRevision != "" {
		if _, err := fmt.Fprintf(w, "  revision: %s\n", r.DeclaredRevision); err != nil {
			return err
		}
	}

	if r.VersionTag != "" {
		if _, err := fmt.Fprintf(w, "  tag: %s\n", r.VersionTag); err != nil {
			return err
		}
	}

	if p.Verbose {
		for _, f := range r.Files {
			mark := "✓"
			if !f.Found {
				mark = "✗"
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", mark, f.Path); err != nil {
				return err
			}
		}
	}

	return nil
}

// Footer prints the tier summary after the reports.
func (p *Printer) Footer(w io.Writer, count int) {
	if count == 1 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n")
}

// PrintSummary writes aggregate tier counts.
func PrintSummary(w io.Writer, s Summary) {
	_, _ = fmt.Fprintf(w, "gold-star:          %d\n", s.GoldStar)
	_, _ = fmt.Fprintf(w, "needs-improvement:  %d\n", s.NeedsImprovement)
	_, _ = fmt.Fprintf(w, "looks-sketchy:      %d\n", s.LooksSketchy)
	if s.Unanalyzed > 0 {
		_, _ = fmt.Fprintf(w, "could-not-analyze:  %d (excluded from tiers)\n", s.Unanalyzed)
	}
	_, _ = fmt.Fprintf(w, "total:              %d\n", s.Total)
}
