// Package literature implements the rate-limited biomedical literature
// client the literature stage and the ingestion pipeline call through. Uses
// the pkg/shared/http client wrapper idiom (timeouts, retry via
// resilience.Breaker) generalized to a PubMed-style search+fetch pair and a
// token-bucket rate limiter keyed on whether an API key is configured.
package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/domain"
	"github.com/biomind/repurposing/pkg/resilience"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Client is an HTTP-backed LiteratureClient (pkg/ports.LiteratureClient),
// rate-limited at the client configured for a keyed or unkeyed caller and
// wrapped in a circuit breaker so a slow upstream degrades the literature
// stage instead of hanging the request.
type Client struct {
	http     *http.Client
	endpoint string
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	source   oauth2.TokenSource
}

// New builds a Client from LiteratureConfig. With an API key configured the
// limiter runs at RateWithKey (default 3/s); without one it runs at
// RateNoKey (default 1/s), a two-tier rate limit.
func New(cfg config.LiteratureConfig, breaker *resilience.Breaker) *Client {
	rps := cfg.RateNoKey
	var source oauth2.TokenSource
	if cfg.APIKey != "" {
		rps = cfg.RateWithKey
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey})
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.Endpoint,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		breaker:  breaker,
		source:   source,
	}
}

type searchResponse struct {
	PMIDs []string `json:"pmids"`
}

// Search returns up to maxResults PMIDs matching query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, coreerrors.New(coreerrors.KindCancelled, err)
	}
	run := func(ctx context.Context) (interface{}, error) {
		url := fmt.Sprintf("%s/search?q=%s&limit=%d", c.endpoint, strings.ReplaceAll(query, " ", "+"), maxResults)
		var out searchResponse
		if err := c.getJSON(ctx, url, &out); err != nil {
			return nil, err
		}
		if len(out.PMIDs) > maxResults {
			out.PMIDs = out.PMIDs[:maxResults]
		}
		return out.PMIDs, nil
	}
	res, err := c.do(ctx, run)
	if err != nil {
		return nil, coreerrors.New(coreerrors.KindRepositoryUnavailable, coreerrors.NetworkError("literature search", c.endpoint, err))
	}
	return res.([]string), nil
}

type fetchResponse struct {
	Articles []article `json:"articles"`
}

type article struct {
	PMID     string   `json:"pmid"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Year     *int     `json:"year"`
	URL      string   `json:"url"`
}

// fetchWindow bounds how many PMIDs are requested in a single call.
const fetchWindow = 50

// Fetch returns title/abstract/metadata for pmids, windowed at 50 ids per
// upstream call.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]domain.Citation, error) {
	var out []domain.Citation
	for start := 0; start < len(pmids); start += fetchWindow {
		end := start + fetchWindow
		if end > len(pmids) {
			end = len(pmids)
		}
		window := pmids[start:end]
		if err := c.limiter.Wait(ctx); err != nil {
			return out, coreerrors.New(coreerrors.KindCancelled, err)
		}
		run := func(ctx context.Context) (interface{}, error) {
			url := fmt.Sprintf("%s/fetch?ids=%s", c.endpoint, strings.Join(window, ","))
			var resp fetchResponse
			if err := c.getJSON(ctx, url, &resp); err != nil {
				return nil, err
			}
			return resp.Articles, nil
		}
		res, err := c.do(ctx, run)
		if err != nil {
			return out, coreerrors.New(coreerrors.KindRepositoryUnavailable, coreerrors.NetworkError("literature fetch", c.endpoint, err))
		}
		for _, a := range res.([]article) {
			excerpt := a.Abstract
			if len(excerpt) > 500 {
				excerpt = excerpt[:500]
			}
			relevance := 0.5
			cit, err := domain.NewCitation("pubmed", a.PMID, a.Title, a.Authors, a.Year, a.URL, excerpt, relevance)
			if err != nil {
				continue
			}
			out = append(out, *cit)
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if c.breaker != nil {
		return c.breaker.Do(ctx, fn)
	}
	return fn(ctx)
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.source != nil {
		tok, err := c.source.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("literature endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
