// Package twquant provides a Go client for the twquant gateway API. The
// terminal UI is built on it; anything else that talks to the gateway can
// use it the same way.
package twquant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"twquant/internal/backend"
	"twquant/internal/derive"
	"twquant/internal/listops"
	"twquant/internal/prefs"
	"twquant/internal/session"
)

// Client talks to a twquant gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client. Analysis calls can run for minutes;
// cancel through the context for anything shorter.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Card is one recommendation entry with the gateway's derived display
// fields attached.
type Card struct {
	backend.Recommendation
	Tone            derive.Tone        `json:"tone"`
	Highlights      []string           `json:"highlights,omitempty"`
	HighlightSource derive.Provenance  `json:"highlight_source,omitempty"`
	Tips            []string           `json:"tips,omitempty"`
	Ops             *derive.Ops        `json:"ops,omitempty"`
	Chart           *derive.ChartStats `json:"chart,omitempty"`
}

// RecPage is one rendered window of the recommendation list.
type RecPage struct {
	ListTab     session.ListTab `json:"list_tab"`
	Items       []Card          `json:"items"`
	Page        int             `json:"page"`
	TotalPages  int             `json:"totalPages"`
	Total       int             `json:"total"`
	Recommended int             `json:"recommended"`
	Rejected    int             `json:"rejected"`
	Summary     *derive.Summary `json:"summary,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// ---------------------------------------------------------------------------
// View state
// ---------------------------------------------------------------------------

// View fetches the session snapshot.
func (c *Client) View(ctx context.Context) (*session.View, error) {
	var v session.View
	if err := c.do(ctx, http.MethodGet, "/api/view", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetTab switches the active tab.
func (c *Client) SetTab(ctx context.Context, tab session.Tab) error {
	return c.do(ctx, http.MethodPost, "/api/view/tab", map[string]any{"tab": tab}, nil)
}

// SetListTab switches between the recommended and rejected list halves.
func (c *Client) SetListTab(ctx context.Context, lt session.ListTab) error {
	return c.do(ctx, http.MethodPost, "/api/view/list-tab", map[string]any{"list_tab": lt}, nil)
}

// SetFilters replaces the recommendation filter/sort settings.
func (c *Client) SetFilters(ctx context.Context, f listops.FilterState) error {
	return c.do(ctx, http.MethodPost, "/api/view/filters", f, nil)
}

// SetPage moves the recommendation list to page n.
func (c *Client) SetPage(ctx context.Context, n int) error {
	return c.do(ctx, http.MethodPost, "/api/view/page", map[string]int{"page": n}, nil)
}

// Select marks a ticker as selected across all views, returning its
// normalized form.
func (c *Client) Select(ctx context.Context, ticker string) (string, error) {
	var out struct {
		Ticker string `json:"ticker"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/select", map[string]string{"ticker": ticker}, &out); err != nil {
		return "", err
	}
	return out.Ticker, nil
}

// ---------------------------------------------------------------------------
// Analysis
// ---------------------------------------------------------------------------

// Recommend runs a recommendation over a comma-separated ticker list.
func (c *Client) Recommend(ctx context.Context, tickers string) (*backend.Response, error) {
	return c.analysis(ctx, "/api/recommend", map[string]string{"tickers": tickers})
}

// RecommendIndustry runs the realtime industry scan.
func (c *Client) RecommendIndustry(ctx context.Context, industry string) (*backend.Response, error) {
	return c.analysis(ctx, "/api/recommend/industry", map[string]string{"industry": industry})
}

// AIRecommend runs the AI-only single-ticker analysis.
func (c *Client) AIRecommend(ctx context.Context, ticker string) (*backend.Response, error) {
	return c.analysis(ctx, "/api/ai/recommend", map[string]string{"ticker": ticker})
}

// AnalyzeStock runs the swing/position analysis with optional tuning.
func (c *Client) AnalyzeStock(ctx context.Context, req backend.StockAnalyzeRequest) (*backend.Response, error) {
	return c.analysis(ctx, "/api/stock/analyze", req)
}

// AnalyzeIndustry runs the swing analysis over a whole industry.
func (c *Client) AnalyzeIndustry(ctx context.Context, industry string) (*backend.Response, error) {
	return c.analysis(ctx, "/api/industry/analyze", map[string]string{"industry": industry})
}

// Daytrade runs the intraday analysis.
func (c *Client) Daytrade(ctx context.Context, ticker, interval string) (*backend.Response, error) {
	return c.analysis(ctx, "/api/daytrade", map[string]string{"ticker": ticker, "interval": interval})
}

// Backtest runs a strategy backtest.
func (c *Client) Backtest(ctx context.Context, req backend.BacktestRequest) (*backend.Response, error) {
	return c.analysis(ctx, "/api/backtest", req)
}

// RecommendPage fetches the current rendered window of the recommendation
// list.
func (c *Client) RecommendPage(ctx context.Context) (*RecPage, error) {
	var p RecPage
	if err := c.do(ctx, http.MethodGet, "/api/recommend/page", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) analysis(ctx context.Context, path string, body any) (*backend.Response, error) {
	var resp backend.Response
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// Reference data and preferences
// ---------------------------------------------------------------------------

// Industries fetches the selectable industry list.
func (c *Client) Industries(ctx context.Context) ([]string, error) {
	var out struct {
		Industries []string `json:"industries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/industries", nil, &out); err != nil {
		return nil, err
	}
	return out.Industries, nil
}

// Config fetches the backend feature flags.
func (c *Client) Config(ctx context.Context) (*backend.RemoteConfig, error) {
	var rc backend.RemoteConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

// Tuning fetches the persisted analysis tuning preferences.
func (c *Client) Tuning(ctx context.Context) (prefs.Tuning, error) {
	var t prefs.Tuning
	err := c.do(ctx, http.MethodGet, "/api/tuning", nil, &t)
	return t, err
}

// SaveTuning stores the analysis tuning preferences.
func (c *Client) SaveTuning(ctx context.Context, t prefs.Tuning) error {
	return c.do(ctx, http.MethodPut, "/api/tuning", t, nil)
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

// Watchlist fetches the saved tickers and reports whether they came from
// the backend or the local mirror.
func (c *Client) Watchlist(ctx context.Context) ([]backend.WatchlistItem, string, error) {
	var out struct {
		Items  []backend.WatchlistItem `json:"items"`
		Source string                  `json:"source"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &out); err != nil {
		return nil, "", err
	}
	return out.Items, out.Source, nil
}

// WatchlistAdd saves a ticker, returning the user-facing confirmation.
func (c *Client) WatchlistAdd(ctx context.Context, ticker string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/watchlist", map[string]string{"ticker": ticker}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// WatchlistRemove removes a ticker, returning the user-facing confirmation.
func (c *Client) WatchlistRemove(ctx context.Context, ticker string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := "/api/watchlist/" + url.PathEscape(ticker)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Health checks gateway liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// ---------------------------------------------------------------------------
// Event stream
// ---------------------------------------------------------------------------

// Subscribe opens the gateway's WebSocket stream and delivers session
// events until the context is cancelled or the connection drops, at which
// point the channel closes.
func (c *Client) Subscribe(ctx context.Context) (<-chan session.Event, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	events := make(chan session.Event, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var e session.Event
			if err := conn.ReadJSON(&e); err != nil {
				return
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
