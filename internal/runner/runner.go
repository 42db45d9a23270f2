// Package runner drives batch classification: it fetches published
// artifacts, classifies them, and hands reports to a sink.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/crateprov/crateprov/internal/crates"
	errs "github.com/crateprov/crateprov/internal/errors"
	"github.com/crateprov/crateprov/internal/provenance"
)

// Target identifies one crate version to verify.
type Target struct {
	Name    string
	Version string
	Rank    int
}

// Classifier assigns a trust tier to a fetched artifact.
type Classifier interface {
	Classify(ctx context.Context, artifact *crates.Artifact) provenance.Report
}

// Sink receives completed reports. Implementations must be safe for
// concurrent use.
type Sink interface {
	Add(r provenance.Report)
}

// Runner fans targets out over a bounded worker pool while throttling
// registry downloads to a crawl delay.
//
// NewRunner should be used to create instances of Runner.
type Runner struct {
	logger     hclog.Logger
	fetcher    crates.Fetcher
	classifier Classifier
	sink       Sink
	workers    int
	crawlDelay time.Duration
}

// NewRunner creates a batch runner.
func NewRunner(logger hclog.Logger, fetcher crates.Fetcher, classifier Classifier, sink Sink, opts ...Option) (*Runner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink cannot be nil")
	}

	options, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		logger:     logger.Named("runner"),
		fetcher:    fetcher,
		classifier: classifier,
		sink:       sink,
		workers:    options.workers,
		crawlDelay: options.crawlDelay,
	}, nil
}

// Run processes every target, emitting one report per target to the sink.
// Fetch failures become could-not-analyze reports rather than aborting the
// batch; Run returns an error only when the context is cancelled.
func (r *Runner) Run(ctx context.Context, targets []Target) error {
	throttle := newThrottle(r.crawlDelay)
	defer throttle.stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, target := range targets {
		g.Go(func() error {
			if err := throttle.wait(ctx); err != nil {
				return err
			}
			r.process(ctx, target)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) process(ctx context.Context, target Target) {
	logger := r.logger.With("crate", target.Name, "version", target.Version)

	artifact, err := r.fetcher.Fetch(ctx, target.Name, target.Version)
	if err != nil {
		logger.Warn("Failed to fetch crate", "error", err)
		r.sink.Add(unanalyzed(target, err))
		return
	}

	report := r.classifier.Classify(ctx, artifact)
	report.Rank = target.Rank

	logger.Info("Classified crate", "verdict", report.Verdict, "reason", report.Reason)
	r.sink.Add(report)
}

// unanalyzed builds the report for an artifact that never reached the
// classifier. These carry no trust tier.
func unanalyzed(target Target, err error) provenance.Report {
	reason := provenance.ReasonFetchFailed
	if errors.Is(err, errs.ErrCrateForbidden) {
		reason = provenance.ReasonCrateForbidden
	}

	return provenance.Report{
		Crate:   target.Name,
		Version: target.Version,
		Rank:    target.Rank,
		Verdict: provenance.VerdictUnanalyzed,
		Reason:  reason,
		Detail:  err.Error(),
	}
}

// throttle spaces registry downloads out by a fixed delay. The first
// download proceeds immediately; the delay applies between downloads.
// A zero delay disables throttling.
type throttle struct {
	ticker *time.Ticker
	first  chan struct{}
}

func newThrottle(delay time.Duration) *throttle {
	if delay <= 0 {
		return &throttle{}
	}

	first := make(chan struct{}, 1)
	first <- struct{}{}

	return &throttle{
		ticker: time.NewTicker(delay),
		first:  first,
	}
}

func (t *throttle) wait(ctx context.Context) error {
	if t.ticker == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.first:
		return nil
	case <-t.ticker.C:
		return nil
	}
}

func (t *throttle) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
	}
}

// Option defines a functional option for configuring the Runner.
type Option func(*Options) error

// Options contains optional settings for the Runner.
type Options struct {
	workers    int
	crawlDelay time.Duration
}

func NewOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		workers:    4,
		crawlDelay: 2 * time.Second,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// WithWorkers bounds the number of concurrent classifications.
func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", n)
		}
		o.workers = n
		return nil
	}
}

// WithCrawlDelay sets the minimum spacing between registry downloads.
// Zero disables throttling.
func WithCrawlDelay(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return fmt.Errorf("crawl delay cannot be negative, got %v", d)
		}
		o.crawlDelay = d
		return nil
	}
}
