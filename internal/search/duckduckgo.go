package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/novamedix/catalog-images/internal/fetch"
	"github.com/novamedix/catalog-images/internal/types"
)

const (
	duckDuckGoName    = "duckduckgo"
	duckDuckGoBaseURL = "https://duckduckgo.com"
)

var vqdRe = regexp.MustCompile(`vqd=["']?([\w-]+)`)

// DuckDuckGoConfig configures the DuckDuckGo image provider.
type DuckDuckGoConfig struct {
	BaseURL        string
	Fetch          *fetch.Options
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         *slog.Logger
}

// DuckDuckGoProvider searches DuckDuckGo images. Each search is two requests: the HTML
// search page (for the vqd query token) and the i.js JSON results endpoint.
type DuckDuckGoProvider struct {
	baseURL        string
	fetchOpts      *fetch.Options
	useBrowser     bool
	browserTimeout time.Duration
	render         func(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (string, error)
	logger         *slog.Logger
}

// NewDuckDuckGoProvider creates a provider; zero config values use defaults.
func NewDuckDuckGoProvider(cfg DuckDuckGoConfig) *DuckDuckGoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = duckDuckGoBaseURL
	}
	if cfg.Fetch == nil {
		cfg.Fetch = fetch.DefaultOptions()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DuckDuckGoProvider{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		fetchOpts:      cfg.Fetch,
		useBrowser:     cfg.UseBrowser,
		browserTimeout: cfg.BrowserTimeout,
		render:         fetch.WithBrowser,
		logger:         cfg.Logger.With("provider", duckDuckGoName),
	}
}

// Name implements Provider.
func (p *DuckDuckGoProvider) Name() string {
	return duckDuckGoName
}

// Search implements Provider.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]types.ImageCandidate, error) {
	opts = opts.withDefaults()

	vqd, err := p.token(ctx, query)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", opts.Region)
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("f", filterParam(opts))
	params.Set("p", safeSearchParam(opts.SafeSearch))

	reqOpts := *p.fetchOpts
	reqOpts.Headers = map[string]string{
		"Referer": p.baseURL + "/",
		"Accept":  "application/json, text/javascript, */*; q=0.01",
	}

	result, err := fetch.URL(ctx, p.baseURL+"/i.js", params, &reqOpts)
	if err != nil {
		return nil, err
	}

	var payload duckDuckGoResponse
	if err := json.Unmarshal([]byte(result.Body), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode image results: %w", err)
	}

	candidates := make([]types.ImageCandidate, 0, min(len(payload.Results), opts.MaxResults))
	for _, r := range payload.Results {
		if r.Image == "" {
			continue
		}
		candidates = append(candidates, types.ImageCandidate{
			URL:          r.Image,
			PageURL:      r.URL,
			Title:        r.Title,
			Width:        r.Width,
			Height:       r.Height,
			SourceDomain: hostOf(r.Image),
		})
		if len(candidates) == opts.MaxResults {
			break
		}
	}

	p.logger.Debug("image results received", "query", query, "results", len(payload.Results), "kept", len(candidates))
	return candidates, nil
}

// token fetches the search page and extracts the vqd token, falling back to a
// headless render when enabled and the plain response carries no token.
func (p *DuckDuckGoProvider) token(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("iax", "images")
	params.Set("ia", "images")

	result, err := fetch.URL(ctx, p.baseURL+"/", params, p.fetchOpts)
	if err != nil {
		return "", err
	}
	if vqd := extractVQD(result.Body); vqd != "" {
		return vqd, nil
	}

	if p.useBrowser {
		p.logger.Debug("no query token in page, rendering with browser", "query", query)
		html, err := p.render(ctx, result.URL, p.browserTimeout, p.logger)
		if err != nil {
			return "", err
		}
		if vqd := extractVQD(html); vqd != "" {
			return vqd, nil
		}
	}

	return "", &TokenError{Query: query, Message: "vqd token not found in search page"}
}

// extractVQD finds the query token in a hidden input, in inline scripts, or anywhere in the page.
func extractVQD(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		if v, ok := doc.Find(`input[name="vqd"]`).Attr("value"); ok && v != "" {
			return v
		}

		var found string
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := vqdRe.FindStringSubmatch(s.Text()); m != nil {
				found = m[1]
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if m := vqdRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// filterParam builds the f parameter: timelimit,size,color,type,layout,license.
func filterParam(opts SearchOptions) string {
	size, kind := "", ""
	if opts.Size != "" {
		size = "size:" + opts.Size
	}
	if opts.Type != "" {
		kind = "type:" + opts.Type
	}
	return strings.Join([]string{"", size, "", kind, "", ""}, ",")
}

func safeSearchParam(level string) string {
	if strings.EqualFold(level, SafeOff) {
		return "-1"
	}
	return "1"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

type duckDuckGoResponse struct {
	Results []duckDuckGoResult `json:"results"`
}

type duckDuckGoResult struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Source    string `json:"source"`
}
