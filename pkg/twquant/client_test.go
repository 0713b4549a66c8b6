package twquant

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twquant/internal/api"
	"twquant/internal/backend"
	"twquant/internal/prefs"
	"twquant/internal/session"
	"twquant/internal/watchlist"
)

// newGateway stands up a real gateway over a scripted upstream backend and
// returns a typed client pointed at it.
func newGateway(t *testing.T, upstream *http.ServeMux) *Client {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	remote := backend.NewClient(up.URL, 5*time.Second, 60000, log)
	store := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"), log)
	t.Cleanup(store.Close)
	state := session.New(10, log)
	watch := watchlist.NewService(remote, store, log)

	srv := api.NewServer(remote, state, store, watch, log)
	go srv.Hub().Run()
	gw := httptest.NewServer(srv.Handler())
	t.Cleanup(gw.Close)

	return NewClient(gw.URL)
}

func TestClientSelectAndView(t *testing.T) {
	c := newGateway(t, http.NewServeMux())
	ctx := context.Background()

	norm, err := c.Select(ctx, "2330")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if norm != "2330.TW" {
		t.Errorf("Select = %q", norm)
	}

	v, err := c.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Selected != "2330.TW" {
		t.Errorf("view selected = %q", v.Selected)
	}
	if v.ActiveTab != session.TabRecommend {
		t.Errorf("active tab = %q", v.ActiveTab)
	}
}

func TestClientRecommendAndPage(t *testing.T) {
	upstream := http.NewServeMux()
	upstream.HandleFunc("POST /api/recommend", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"type": "recommendation",
			"recommendations": []map[string]any{
				{"ticker": "2330.TW", "rating": "強烈推薦", "risk_reward_ratio": "2.5:1"},
				{"ticker": "2002.TW", "rating": "不推薦"},
			},
		})
	})
	c := newGateway(t, upstream)
	ctx := context.Background()

	resp, err := c.Recommend(ctx, "2330,2002")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Kind != backend.KindRecommendation || len(resp.Recommendation.Recommendations) != 2 {
		t.Fatalf("response = %+v", resp)
	}

	page, err := c.RecommendPage(ctx)
	if err != nil {
		t.Fatalf("RecommendPage: %v", err)
	}
	if page.Recommended != 1 || page.Rejected != 1 {
		t.Errorf("counts = %d/%d", page.Recommended, page.Rejected)
	}
	if len(page.Items) != 1 || page.Items[0].Tone != "strong" {
		t.Errorf("items = %+v", page.Items)
	}
}

func TestClientErrorIncludesServerMessage(t *testing.T) {
	upstream := http.NewServeMux()
	upstream.HandleFunc("POST /api/daytrade/analyze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newGateway(t, upstream)

	_, err := c.Daytrade(context.Background(), "2330", "5m")
	if err == nil {
		t.Fatal("Daytrade succeeded against a failing upstream")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %v, want upstream status carried through", err)
	}
}

func TestClientTuningRoundTrip(t *testing.T) {
	c := newGateway(t, http.NewServeMux())
	ctx := context.Background()

	days := 120.0
	if err := c.SaveTuning(ctx, prefs.Tuning{LookbackDays: &days}); err != nil {
		t.Fatalf("SaveTuning: %v", err)
	}
	got, err := c.Tuning(ctx)
	if err != nil {
		t.Fatalf("Tuning: %v", err)
	}
	if got.LookbackDays == nil || *got.LookbackDays != 120 {
		t.Errorf("LookbackDays = %v", got.LookbackDays)
	}
}

func TestClientSubscribeReceivesSelection(t *testing.T) {
	c := newGateway(t, http.NewServeMux())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	time.Sleep(50 * time.Millisecond) // let the hub register the connection

	if _, err := c.Select(ctx, "2603"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	select {
	case e := <-events:
		if e.Type != "ticker_selected" || e.Ticker != "2603.TW" {
			t.Errorf("event = %+v", e)
		}
	case <-ctx.Done():
		t.Fatal("no event before timeout")
	}
}

func TestClientHealth(t *testing.T) {
	c := newGateway(t, http.NewServeMux())
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
