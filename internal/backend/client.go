package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"twquant/internal/util"
)

// Client talks to the analysis backend over HTTP JSON. Calls are read-only
// and idempotent on the server side; the client adds no caching, no
// deduplication, and no cancellation beyond the context it is handed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewClient creates a client for the given base URL. rateLimitPerMin bounds
// outbound calls; zero disables the limiter.
func NewClient(baseURL string, timeout time.Duration, rateLimitPerMin int, log *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		log: log,
	}
	if rateLimitPerMin > 0 {
		c.limiter = util.NewRateLimiter(rateLimitPerMin)
	}
	return c
}

// ---------------------------------------------------------------------------
// Analysis endpoints
// ---------------------------------------------------------------------------

// Recommend requests a single-ticker (or comma-list) recommendation.
func (c *Client) Recommend(ctx context.Context, ticker string) (*Response, error) {
	return c.postAnalysis(ctx, "/api/recommend", map[string]any{"ticker": ticker})
}

// RecommendByIndustry requests a recommendation batch for one industry.
func (c *Client) RecommendByIndustry(ctx context.Context, industry string) (*Response, error) {
	return c.postAnalysis(ctx, "/api/recommend/auto", map[string]any{"industry": industry})
}

// RecommendAI requests the AI-only single-ticker analysis.
func (c *Client) RecommendAI(ctx context.Context, ticker string) (*Response, error) {
	return c.postAnalysis(ctx, "/api/recommend/ai", map[string]any{"ticker": ticker})
}

// Backtest runs a strategy backtest on the backend.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*Response, error) {
	return c.postAnalysis(ctx, "/api/backtest", req)
}

// AnalyzeStock requests the swing/position analysis.
func (c *Client) AnalyzeStock(ctx context.Context, req StockAnalyzeRequest) (*Response, error) {
	return c.postAnalysis(ctx, "/api/stock/analyze", req)
}

// AnalyzeIndustry runs the swing analysis over a whole industry.
func (c *Client) AnalyzeIndustry(ctx context.Context, industry string) (*Response, error) {
	return c.postAnalysis(ctx, "/api/stock/analyze/industry", map[string]any{"industry": industry})
}

// Daytrade requests the intraday analysis at the given interval (1m/5m/15m).
func (c *Client) Daytrade(ctx context.Context, ticker, interval string) (*Response, error) {
	body := map[string]any{"ticker": ticker}
	if interval != "" {
		body["interval"] = interval
	}
	return c.postAnalysis(ctx, "/api/daytrade/analyze", body)
}

// ---------------------------------------------------------------------------
// List / config / watchlist endpoints
// ---------------------------------------------------------------------------

// Industries fetches the fixed selectable industry list.
func (c *Client) Industries(ctx context.Context) ([]string, error) {
	raw, err := c.get(ctx, "/api/industries")
	if err != nil {
		return nil, err
	}
	var out struct {
		Industries []string `json:"industries"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding industries: %w", err)
	}
	return out.Industries, nil
}

// RemoteConfig fetches the backend feature-flag document.
func (c *Client) RemoteConfig(ctx context.Context) (*RemoteConfig, error) {
	raw, err := c.get(ctx, "/api/config")
	if err != nil {
		return nil, err
	}
	var cfg RemoteConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Watchlist fetches the remote watchlist.
func (c *Client) Watchlist(ctx context.Context) ([]WatchlistItem, error) {
	raw, err := c.get(ctx, "/api/watchlist")
	if err != nil {
		return nil, err
	}
	var out struct {
		Items []WatchlistItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding watchlist: %w", err)
	}
	return out.Items, nil
}

// WatchlistAdd adds a ticker to the remote watchlist.
func (c *Client) WatchlistAdd(ctx context.Context, ticker string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/watchlist", map[string]any{"ticker": ticker})
	return err
}

// WatchlistRemove removes a ticker from the remote watchlist.
func (c *Client) WatchlistRemove(ctx context.Context, ticker string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(ticker), nil)
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// get wraps do for the idempotent GET endpoints with a short retry so a
// momentary backend hiccup does not fail the startup prefetch.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := util.Retry(ctx, 3, 200*time.Millisecond, func() error {
		var err error
		raw, err = c.do(ctx, http.MethodGet, path, nil)
		return err
	})
	return raw, err
}

func (c *Client) postAnalysis(ctx context.Context, path string, body any) (*Response, error) {
	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return Classify(raw)
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug("backend call", "method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The status code is the whole story for the UI error line.
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return raw, nil
}
