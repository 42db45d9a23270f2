package crates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	errs "github.com/crateprov/crateprov/internal/errors"
)

// Fetcher retrieves a crate archive by name and version.
type Fetcher interface {
	// Fetch downloads and parses one crate archive. It returns an error
	// wrapping errs.ErrCrateNotFound or errs.ErrCrateForbidden for the
	// registry's 404 and 403 responses respectively.
	Fetch(ctx context.Context, name, version string) (*Artifact, error)
}

// HTTPFetcher downloads .crate archives from the registry's static CDN.
// The archive is examined in memory, nothing is written to disk.
//
// NewHTTPFetcher should be used to create instances of HTTPFetcher.
type HTTPFetcher struct {
	logger     hclog.Logger
	client     *http.Client
	baseURL    string
	userAgent  string
	extensions []string
}

// NewHTTPFetcher creates a fetcher for the crates.io static download endpoint.
func NewHTTPFetcher(logger hclog.Logger, opts ...FetcherOption) (*HTTPFetcher, error) {
	options, err := NewFetcherOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &HTTPFetcher{
		logger:     logger.Named("crates"),
		client:     options.client,
		baseURL:    options.baseURL,
		userAgent:  options.userAgent,
		extensions: options.extensions,
	}, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, name, version string) (*Artifact, error) {
	url := fmt.Sprintf("%s/%s/%s-%s.crate", f.baseURL, name, name, version)
	f.logger.Debug("Downloading crate", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download crate %s-%s: %w", name, version, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s-%s", errs.ErrCrateForbidden, name, version)
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s-%s", errs.ErrCrateNotFound, name, version)
	default:
		return nil, fmt.Errorf("unexpected HTTP status %d downloading %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read crate archive %s-%s: %w", name, version, err)
	}

	f.logger.Debug("Downloaded crate", "crate", name, "version", version, "bytes", len(data))

	return ParseArchive(data, name, version, f.extensions)
}

// FetcherOption defines a functional option for configuring HTTPFetcher.
type FetcherOption func(*FetcherOptions) error

// FetcherOptions contains optional configuration for the fetcher.
type FetcherOptions struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	extensions []string
}

func NewFetcherOptions(opts ...FetcherOption) (FetcherOptions, error) {
	// Default options.
	o := FetcherOptions{
		client:     http.DefaultClient,
		baseURL:    "https://static.crates.io/crates",
		userAgent:  "crateprov",
		extensions: []string{".rs"},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return FetcherOptions{}, err
		}
	}

	return o, nil
}

// WithBaseURL sets the download endpoint.
func WithBaseURL(baseURL string) FetcherOption {
	return func(o *FetcherOptions) error {
		baseURL = strings.TrimSpace(baseURL)
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		o.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(o *FetcherOptions) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		o.client = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent to the registry.
func WithUserAgent(ua string) FetcherOption {
	return func(o *FetcherOptions) error {
		ua = strings.TrimSpace(ua)
		if ua == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
		o.userAgent = ua
		return nil
	}
}

// WithExtensions sets the extension filter for matchable files.
func WithExtensions(extensions []string) FetcherOption {
	return func(o *FetcherOptions) error {
		if len(extensions) == 0 {
			return fmt.Errorf("extensions cannot be empty")
		}
		o.extensions = extensions
		return nil
	}
}
