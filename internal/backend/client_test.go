package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, 5*time.Second, 0, log)
}

func TestRecommendSendsNormalizedTicker(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recommend" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"type":"recommendation","recommendations":[]}`)
	})

	resp, err := c.Recommend(context.Background(), "2330.TW")
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if gotBody["ticker"] != "2330.TW" {
		t.Errorf("ticker sent = %v, want 2330.TW", gotBody["ticker"])
	}
	if resp.Kind != KindRecommendation {
		t.Errorf("Kind = %q, want recommendation", resp.Kind)
	}
}

func TestAnalyzeStockClearedFieldsGoOutAsNull(t *testing.T) {
	var raw map[string]json.RawMessage
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		io.WriteString(w, `{"type":"stock_analysis","ticker":"2330.TW"}`)
	})

	lookback := 60.0
	req := StockAnalyzeRequest{Ticker: "2330.TW", LookbackDays: &lookback}
	if _, err := c.AnalyzeStock(context.Background(), req); err != nil {
		t.Fatalf("AnalyzeStock returned error: %v", err)
	}

	if string(raw["lookback_days"]) != "60" {
		t.Errorf("lookback_days = %s, want 60", raw["lookback_days"])
	}
	// Cleared tuning fields must be present as explicit nulls, not omitted.
	for _, key := range []string{"entry_frac", "target_frac", "stop_atr_mult", "stop_floor_pct", "account_size", "risk_pct"} {
		v, ok := raw[key]
		if !ok {
			t.Errorf("field %s omitted, want explicit null", key)
			continue
		}
		if string(v) != "null" {
			t.Errorf("field %s = %s, want null", key, v)
		}
	}
}

func TestHTTPErrorSynthesized(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.Recommend(context.Background(), "2330.TW")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if got := err.Error(); got != "HTTP 502" {
		t.Errorf("error = %q, want %q", got, "HTTP 502")
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	var deleted string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, `{"items":[{"ticker":"2330.TW","name":"台積電"}]}`)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	})

	items, err := c.Watchlist(context.Background())
	if err != nil {
		t.Fatalf("Watchlist returned error: %v", err)
	}
	if len(items) != 1 || items[0].Ticker != "2330.TW" {
		t.Errorf("unexpected items: %+v", items)
	}
	if err := c.WatchlistAdd(context.Background(), "2317.TW"); err != nil {
		t.Fatalf("WatchlistAdd returned error: %v", err)
	}
	if err := c.WatchlistRemove(context.Background(), "2330.TW"); err != nil {
		t.Fatalf("WatchlistRemove returned error: %v", err)
	}
	if deleted != "/api/watchlist/2330.TW" {
		t.Errorf("DELETE path = %q", deleted)
	}
}

func TestGetRetriesTransientFailure(t *testing.T) {
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"industries":["半導體業"]}`)
	})
	got, err := c.Industries(context.Background())
	if err != nil {
		t.Fatalf("Industries returned error: %v", err)
	}
	if len(got) != 1 || calls != 2 {
		t.Errorf("industries = %v after %d calls", got, calls)
	}
}

func TestIndustries(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"industries":["半導體業","金融業"]}`)
	})
	got, err := c.Industries(context.Background())
	if err != nil {
		t.Fatalf("Industries returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "半導體業" {
		t.Errorf("unexpected industries: %v", got)
	}
}
