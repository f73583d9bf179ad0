// Package api is the REST client for the content pipeline backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the backend REST API. All calls are synchronous;
// callers run them from Bubble Tea commands.
type Client struct {
	baseURL string
	client  *http.Client
	// limiter spaces out scrape requests, which fan out to every
	// configured source on the backend.
	limiter *rate.Limiter
}

// New creates a REST client. timeout bounds every call, scrapeInterval
// is the minimum spacing between scrape requests.
func New(baseURL string, timeout, scrapeInterval time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(scrapeInterval), 1),
	}
}

// PendingPosts fetches posts awaiting approval.
func (c *Client) PendingPosts(ctx context.Context) ([]Post, error) {
	var out struct {
		Posts []Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/pending", nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// ApprovedPosts fetches approved, not yet published posts.
func (c *Client) ApprovedPosts(ctx context.Context) ([]Post, error) {
	var out struct {
		Posts []Post `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/approved", nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// Approve marks a post as approved.
func (c *Client) Approve(ctx context.Context, id int) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/approve/%d", id), nil, &out)
	return out, err
}

// Publish publishes an approved post.
func (c *Client) Publish(ctx context.Context, id int) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/publish/%d", id), nil, &out)
	return out, err
}

// Delete removes a post.
func (c *Client) Delete(ctx context.Context, id int) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/delete/%d", id), nil, &out)
	return out, err
}

// Edit replaces a post's content.
func (c *Client) Edit(ctx context.Context, id int, content string) (ActionResult, error) {
	var out ActionResult
	body := map[string]string{"content": content}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/edit/%d", id), body, &out)
	return out, err
}

// Domains lists the topic categories available for scraping.
func (c *Client) Domains(ctx context.Context) (map[string]Domain, error) {
	var out struct {
		Domains map[string]Domain `json:"domains"`
	}
	if err := c.do(ctx, http.MethodGet, "/domains", nil, &out); err != nil {
		return nil, err
	}
	return out.Domains, nil
}

// Scrape starts a scraping job for a domain. The returned session id,
// when present, can be joined on the event channel for live progress.
func (c *Client) Scrape(ctx context.Context, domain string, forceRefresh bool) (ScrapeResult, error) {
	var out ScrapeResult
	if err := c.limiter.Wait(ctx); err != nil {
		return out, fmt.Errorf("rate limiter: %w", err)
	}
	body := map[string]bool{"force_refresh": forceRefresh}
	err := c.do(ctx, http.MethodPost, "/scrape/"+domain, body, &out)
	return out, err
}

// Generate starts post generation from the selected articles.
// numberOfPosts is clamped by the backend to 1..5.
func (c *Client) Generate(ctx context.Context, articles []Article, domain string, numberOfPosts int) (GenerateResult, error) {
	var out GenerateResult
	body := map[string]any{
		"articles":      articles,
		"domain":        domain,
		"numberOfPosts": numberOfPosts,
	}
	err := c.do(ctx, http.MethodPost, "/generate-from-selection", body, &out)
	return out, err
}

// CacheStats fetches the backend's article cache summary.
func (c *Client) CacheStats(ctx context.Context) (CacheStats, error) {
	var out CacheStats
	err := c.do(ctx, http.MethodGet, "/cache/stats", nil, &out)
	return out, err
}

// CacheByDomains fetches the per-domain cache breakdown.
func (c *Client) CacheByDomains(ctx context.Context) (map[string]DomainCacheStats, error) {
	out := map[string]DomainCacheStats{}
	err := c.do(ctx, http.MethodGet, "/cache/domains", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
