package pipeline

import (
	"log/slog"

	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/fetch"
	"github.com/novamedix/catalog-images/internal/normalize"
	"github.com/novamedix/catalog-images/internal/search"
)

// NewNormalizer builds the normalizer named by the config's mode and profile.
func NewNormalizer(cfg config.Config) (*normalize.Normalizer, error) {
	mode, err := normalize.ParseMode(cfg.Mode)
	if err != nil {
		return nil, &config.Error{Field: "mode", Message: err.Error()}
	}

	profile := normalize.DefaultProfile()
	if cfg.ProfilePath != "" {
		profile, err = normalize.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, &config.Error{Field: "profile", Message: "invalid normalizer profile", Cause: err}
		}
	}

	return normalize.New(profile, mode)
}

// SearchConfig maps the run configuration onto the search client settings.
func SearchConfig(cfg config.Config) search.Config {
	sc := search.DefaultConfig()
	if cfg.QuerySuffix != "" {
		sc.QuerySuffix = cfg.QuerySuffix
	}
	sc.Options.MaxResults = cfg.MaxResults
	if cfg.Region != "" {
		sc.Options.Region = cfg.Region
	}
	if cfg.SafeSearch != "" {
		sc.Options.SafeSearch = cfg.SafeSearch
	}
	if len(cfg.PreferredDomains) > 0 {
		sc.Selection.PreferredDomains = cfg.PreferredDomains
	}
	sc.Selection.MinWidth = cfg.MinWidth
	sc.Selection.MinHeight = cfg.MinHeight
	if cfg.RetryAttempts > 0 {
		sc.Retry.MaxAttempts = cfg.RetryAttempts
	}
	sc.Retry.Backoff = cfg.RetryBackoff()
	if cfg.RequestTimeoutMS > 0 {
		sc.RequestTimeout = cfg.RequestTimeout()
	}
	sc.RateLimit = cfg.RateLimit
	return sc
}

// NewProvider builds the DuckDuckGo image provider for the run configuration.
func NewProvider(cfg config.Config, logger *slog.Logger) *search.DuckDuckGoProvider {
	opts := fetch.DefaultOptions()
	if cfg.RequestTimeoutMS > 0 {
		opts.Timeout = cfg.RequestTimeout()
	}
	return search.NewDuckDuckGoProvider(search.DuckDuckGoConfig{
		Fetch:          opts,
		UseBrowser:     cfg.UseBrowser,
		BrowserTimeout: cfg.BrowserTimeout(),
		Logger:         logger,
	})
}
