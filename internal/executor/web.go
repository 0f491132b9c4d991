package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	errs "github.com/scribe-ai/scribe/internal/errors"
	"github.com/scribe-ai/scribe/internal/toolcall"
)

func (e *Executor) searchWeb(ctx context.Context, c toolcall.SearchWeb) (string, error) {
	if c.Query == "" {
		return "", errs.Model(errs.CodeToolInvalidParams, "search_web requires a query")
	}

	var results []WebResult
	err := errs.Do(ctx, errs.WebPolicy(), func() error {
		var serr error
		results, serr = e.search.Search(ctx, c.Query)
		return serr
	})
	if err != nil {
		return "", errs.Wrap(err, errs.CodeWebSearchFailed, "web search failed", errs.CategoryTemporary)
	}
	if len(results) == 0 {
		return "No results for: " + c.Query, nil
	}
	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			sb.WriteString("   " + r.Snippet + "\n")
		}
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// fetchURLs downloads each URL and converts the page to markdown. A
// failed URL contributes an error line instead of aborting the rest.
func (e *Executor) fetchURLs(ctx context.Context, c toolcall.FetchURLs) (string, error) {
	if len(c.URLs) == 0 {
		return "", errs.Model(errs.CodeToolInvalidParams, "fetch_urls requires at least one url")
	}

	var parts []string
	for _, u := range c.URLs {
		content, err := e.fetchOne(ctx, u)
		if err != nil {
			parts = append(parts, fmt.Sprintf("## %s\n\nFetch failed: %s", u, errs.FormatUserMessage(err)))
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}

func (e *Executor) fetchOne(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errs.Wrap(err, errs.CodeWebFetchFailed, "invalid url: "+rawURL, errs.CategoryModel)
	}
	req.Header.Set("User-Agent", e.ua)

	var body []byte
	var contentType string
	err = errs.Do(ctx, errs.WebPolicy(), func() error {
		resp, rerr := e.http.Do(req)
		if rerr != nil {
			return errs.Wrap(rerr, errs.CodeWebFetchFailed, "request failed", errs.CategoryTemporary)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return errs.Temporary(errs.CodeWebFetchFailed, fmt.Sprintf("server returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return errs.Permanent(errs.CodeWebFetchFailed, fmt.Sprintf("server returned %d", resp.StatusCode))
		}

		contentType = resp.Header.Get("Content-Type")
		body, rerr = io.ReadAll(io.LimitReader(resp.Body, e.maxFetch))
		if rerr != nil {
			return errs.Wrap(rerr, errs.CodeWebFetchFailed, "failed to read response", errs.CategoryTemporary)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if !strings.Contains(contentType, "html") {
		return fmt.Sprintf("## %s\n\n```\n%s\n```", rawURL, strings.TrimSpace(string(body))), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", errs.Wrap(err, errs.CodeWebFetchFailed, "failed to parse page", errs.CategoryPermanent)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = rawURL
	}
	doc.Find("script, style, noscript, iframe").Remove()

	sel := doc.Find("body")
	markdown := md.NewConverter("", true, nil).Convert(sel)
	return fmt.Sprintf("## %s\n\nSource: %s\n\n%s", title, rawURL, strings.TrimSpace(markdown)), nil
}

// DuckDuckGo is the default search provider, scraping the HTML endpoint.
type DuckDuckGo struct {
	Client    *http.Client
	UserAgent string

	// Endpoint overrides the search URL, for tests.
	Endpoint string
}

// Search runs a query and returns parsed results.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]WebResult, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = "https://html.duckduckgo.com/html/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeWebSearchFailed, "invalid search request", errs.CategoryPermanent)
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeWebSearchFailed, "search request failed", errs.CategoryTemporary)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Temporary(errs.CodeWebSearchFailed, fmt.Sprintf("search returned %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeWebSearchFailed, "failed to parse results", errs.CategoryPermanent)
	}

	var results []WebResult
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		results = append(results, WebResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
	})
	return results, nil
}
