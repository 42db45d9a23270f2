// Package options wires command dependencies, allowing tests to substitute
// loaders and builders.
package options

import (
	"github.com/hashicorp/go-hclog"

	"github.com/crateprov/crateprov/internal/config"
	"github.com/crateprov/crateprov/internal/crates"
	"github.com/crateprov/crateprov/internal/gitrepo"
)

// FetcherBuilder constructs the registry fetcher from loaded config.
type FetcherBuilder func(logger hclog.Logger, cfg *config.Config) (crates.Fetcher, error)

// AccessorBuilder constructs the repository accessor from loaded config.
// The returned cleanup releases the accessor's clone cache.
type AccessorBuilder func(logger hclog.Logger, cfg *config.Config) (gitrepo.Accessor, func() error, error)

type CmdOption func(*CmdOptions) error

type CmdOptions struct {
	ConfigLoader      config.Loader
	ConfigInitializer config.Initializer
	FetcherBuilder    FetcherBuilder
	AccessorBuilder   AccessorBuilder
}

func defaultOptions() CmdOptions {
	configLoader := &config.DefaultLoader{}
	return CmdOptions{
		ConfigLoader:      configLoader,
		ConfigInitializer: configLoader,
		FetcherBuilder:    defaultFetcherBuilder,
		AccessorBuilder:   defaultAccessorBuilder,
	}
}

func NewOptions(opt ...CmdOption) (CmdOptions, error) {
	opts := defaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return CmdOptions{}, err
		}
	}
	return opts, nil
}

func WithConfigLoader(l config.Loader) CmdOption {
	return func(o *CmdOptions) error {
		o.ConfigLoader = l
		return nil
	}
}

func WithConfigInitializer(i config.Initializer) CmdOption {
	return func(o *CmdOptions) error {
		o.ConfigInitializer = i
		return nil
	}
}

func WithFetcherBuilder(b FetcherBuilder) CmdOption {
	return func(o *CmdOptions) error {
		o.FetcherBuilder = b
		return nil
	}
}

func WithAccessorBuilder(b AccessorBuilder) CmdOption {
	return func(o *CmdOptions) error {
		o.AccessorBuilder = b
		return nil
	}
}

func defaultFetcherBuilder(logger hclog.Logger, cfg *config.Config) (crates.Fetcher, error) {
	return crates.NewHTTPFetcher(
		logger,
		crates.WithBaseURL(cfg.Fetch.BaseURL),
		crates.WithUserAgent(cfg.Fetch.UserAgent),
		crates.WithExtensions(cfg.Match.Extensions),
	)
}

func defaultAccessorBuilder(logger hclog.Logger, cfg *config.Config) (gitrepo.Accessor, func() error, error) {
	cacheOpts := []gitrepo.CacheOption{
		gitrepo.WithKeepClones(cfg.Clone.KeepClones),
	}
	if cfg.Clone.CacheDir != "" {
		cacheOpts = append(cacheOpts, gitrepo.WithCacheDirectory(cfg.Clone.CacheDir))
	}

	cache, err := gitrepo.NewCloneCache(logger, cacheOpts...)
	if err != nil {
		return nil, nil, err
	}

	accessor := gitrepo.NewGitAccessor(logger, cache)

	return accessor, cache.Close, nil
}
