package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenPage   = `<html><head><script>var nrj = 1; vqd="4-123456789012345678901234567890";</script></head><body></body></html>`
	resultsJSON = `{"results":[
		{"image":"","url":"https://example.com/empty","title":"sin imagen"},
		{"image":"https://www.fahorro.com/media/tempra.jpg","thumbnail":"https://tse.example/t.jpg","url":"https://www.fahorro.com/tempra","title":"Tempra 500mg","width":600,"height":600,"source":"Bing"},
		{"image":"https://cdn.example.com/b.jpg","url":"https://cdn.example.com/b","title":"b","width":300,"height":300},
		{"image":"https://cdn.example.com/c.jpg","url":"https://cdn.example.com/c","title":"c","width":300,"height":300},
		{"image":"https://cdn.example.com/d.jpg","url":"https://cdn.example.com/d","title":"d","width":300,"height":300},
		{"image":"https://cdn.example.com/e.jpg","url":"https://cdn.example.com/e","title":"e","width":300,"height":300},
		{"image":"https://cdn.example.com/f.jpg","url":"https://cdn.example.com/f","title":"f","width":300,"height":300}
	]}`
)

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestDuckDuckGoProvider_Search(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "tempra medicamento farmacia mexico", req.URL.Query().Get("q"))
			assert.Equal(t, "images", req.URL.Query().Get("iax"))
			return httpmock.NewStringResponse(http.StatusOK, tokenPage), nil
		})
	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/i.js",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "4-123456789012345678901234567890", q.Get("vqd"))
			assert.Equal(t, "json", q.Get("o"))
			assert.Equal(t, "mx-es", q.Get("l"))
			assert.Equal(t, ",size:Medium,,type:photo,,", q.Get("f"))
			assert.Equal(t, "1", q.Get("p"))
			assert.Equal(t, "https://duckduckgo.com/", req.Header.Get("Referer"))
			return httpmock.NewStringResponse(http.StatusOK, resultsJSON), nil
		})

	provider := NewDuckDuckGoProvider(DuckDuckGoConfig{})
	candidates, err := provider.Search(context.Background(), "tempra medicamento farmacia mexico", DefaultSearchOptions())

	require.NoError(t, err)
	require.Len(t, candidates, MaxResults)
	assert.Equal(t, "https://www.fahorro.com/media/tempra.jpg", candidates[0].URL)
	assert.Equal(t, "www.fahorro.com", candidates[0].SourceDomain)
	assert.Equal(t, "Tempra 500mg", candidates[0].Title)
	assert.Equal(t, 600, candidates[0].Width)

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET https://duckduckgo.com/"])
	assert.Equal(t, 1, info["GET https://duckduckgo.com/i.js"])
}

func TestDuckDuckGoProvider_Search_SafeSearchOff(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
		httpmock.NewStringResponder(http.StatusOK, tokenPage))
	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/i.js",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "-1", req.URL.Query().Get("p"))
			return httpmock.NewStringResponse(http.StatusOK, `{"results":[]}`), nil
		})

	opts := DefaultSearchOptions()
	opts.SafeSearch = SafeOff
	candidates, err := NewDuckDuckGoProvider(DuckDuckGoConfig{}).Search(context.Background(), "x", opts)

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDuckDuckGoProvider_Search_MissingToken(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
		httpmock.NewStringResponder(http.StatusOK, `<html><body>blocked</body></html>`))

	_, err := NewDuckDuckGoProvider(DuckDuckGoConfig{}).Search(context.Background(), "tempra", DefaultSearchOptions())

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "tempra", tokenErr.Query)
	assert.Zero(t, httpmock.GetCallCountInfo()["GET https://duckduckgo.com/i.js"])
}

func TestDuckDuckGoProvider_Search_BrowserFallback(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
		httpmock.NewStringResponder(http.StatusOK, `<html><body>js required</body></html>`))
	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/i.js",
		httpmock.NewStringResponder(http.StatusOK, resultsJSON))

	provider := NewDuckDuckGoProvider(DuckDuckGoConfig{UseBrowser: true, BrowserTimeout: time.Second})
	rendered := 0
	provider.render = func(_ context.Context, _ string, timeout time.Duration, _ *slog.Logger) (string, error) {
		rendered++
		assert.Equal(t, time.Second, timeout)
		return `<input type="hidden" name="vqd" value="4-rendered">`, nil
	}

	candidates, err := provider.Search(context.Background(), "tempra", DefaultSearchOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, rendered)
	assert.NotEmpty(t, candidates)
}

func TestDuckDuckGoProvider_Search_BrowserError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
		httpmock.NewStringResponder(http.StatusOK, `<html></html>`))

	provider := NewDuckDuckGoProvider(DuckDuckGoConfig{UseBrowser: true})
	renderErr := errors.New("chrome not installed")
	provider.render = func(context.Context, string, time.Duration, *slog.Logger) (string, error) {
		return "", renderErr
	}

	_, err := provider.Search(context.Background(), "tempra", DefaultSearchOptions())
	assert.ErrorIs(t, err, renderErr)
}

func TestDuckDuckGoProvider_Search_HTTPErrors(t *testing.T) {
	setupHTTPMock(t)

	tests := []struct {
		name       string
		tokenCode  int
		resultCode int
		resultBody string
	}{
		{"token_forbidden", http.StatusForbidden, http.StatusOK, resultsJSON},
		{"results_rate_limited", http.StatusOK, http.StatusTooManyRequests, ""},
		{"results_invalid_json", http.StatusOK, http.StatusOK, `{invalid`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/",
				httpmock.NewStringResponder(tt.tokenCode, tokenPage))
			httpmock.RegisterResponder(http.MethodGet, "https://duckduckgo.com/i.js",
				httpmock.NewStringResponder(tt.resultCode, tt.resultBody))

			candidates, err := NewDuckDuckGoProvider(DuckDuckGoConfig{}).Search(context.Background(), "tempra", DefaultSearchOptions())

			require.Error(t, err)
			assert.Nil(t, candidates)
		})
	}
}

func TestExtractVQD(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"hidden input", `<form><input type="hidden" name="vqd" value="4-abc"></form>`, "4-abc"},
		{"script double quotes", `<script>DDG.deep.initialize('/d.js?q=x&vqd="4-def"&p=1');</script>`, "4-def"},
		{"script single quotes", `<script>vqd='4-ghi';</script>`, "4-ghi"},
		{"bare query string", `<a href="/i.js?vqd=4-jkl&o=json">next</a>`, "4-jkl"},
		{"no token", `<html><body>nothing here</body></html>`, ""},
		{"empty input falls through", `<input name="vqd" value=""><script>vqd="4-mno"</script>`, "4-mno"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractVQD(tt.html))
		})
	}
}

func TestFilterParam(t *testing.T) {
	assert.Equal(t, ",size:Medium,,type:photo,,", filterParam(DefaultSearchOptions()))
	assert.Equal(t, ",,,,,", filterParam(SearchOptions{}))
}

func TestSearchOptions_WithDefaults(t *testing.T) {
	assert.Equal(t, MinResults, SearchOptions{MaxResults: 1}.withDefaults().MaxResults)
	assert.Equal(t, MaxResults, SearchOptions{MaxResults: 50}.withDefaults().MaxResults)
	assert.Equal(t, MaxResults, SearchOptions{}.withDefaults().MaxResults)
	assert.Equal(t, SizeMedium, SearchOptions{}.withDefaults().Size)
}
