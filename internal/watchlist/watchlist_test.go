package watchlist

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

	"twquant/internal/backend"
	"twquant/internal/prefs"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(t *testing.T, handler http.Handler) (*Service, *prefs.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"), discard())
	t.Cleanup(store.Close)

	remote := backend.NewClient(srv.URL, 5*time.Second, 6000, discard())
	return NewService(remote, store, discard()), store
}

func TestListRemoteMirrorsLocally(t *testing.T) {
	svc, store := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []backend.WatchlistItem{{Ticker: "2330.TW", Name: "台積電"}},
		})
	}))

	items, src, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if src != SourceRemote {
		t.Errorf("source = %q, want remote", src)
	}
	if len(items) != 1 || items[0].Ticker != "2330.TW" {
		t.Errorf("items = %+v", items)
	}

	// The remote copy landed in the local mirror.
	if mirror := store.LoadWatchlist(); len(mirror) != 1 || mirror[0].Name != "台積電" {
		t.Errorf("mirror = %+v", mirror)
	}
}

func TestListFallsBackToMirror(t *testing.T) {
	svc, store := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	store.SaveWatchlist([]backend.WatchlistItem{{Ticker: "2603.TW"}})

	items, src, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List with mirror present: %v", err)
	}
	if src != SourceLocal {
		t.Errorf("source = %q, want local", src)
	}
	if len(items) != 1 || items[0].Ticker != "2603.TW" {
		t.Errorf("items = %+v", items)
	}
}

func TestListErrorWhenNoMirror(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	_, _, err := svc.List(context.Background())
	if err == nil {
		t.Fatal("List succeeded with no backend and no mirror")
	}
	if !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("error = %v, want wrapped HTTP 502", err)
	}
}

func TestAddNormalizesTicker(t *testing.T) {
	var gotBody map[string]string
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(`{"ok":true}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []backend.WatchlistItem{{Ticker: "2330.TW"}},
		})
	}))

	msg, err := svc.Add(context.Background(), " 2330 ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if gotBody["ticker"] != "2330.TW" {
		t.Errorf("sent ticker %q, want 2330.TW", gotBody["ticker"])
	}
	if !strings.Contains(msg, "2330.TW") {
		t.Errorf("message %q does not name the ticker", msg)
	}
}

func TestAddOfflineKeepsLocalCopy(t *testing.T) {
	svc, store := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	msg, err := svc.Add(context.Background(), "2603")
	if err != nil {
		t.Fatalf("Add with working mirror: %v", err)
	}
	if !strings.Contains(msg, "後端未同步") {
		t.Errorf("offline add message = %q", msg)
	}
	if mirror := store.LoadWatchlist(); len(mirror) != 1 || mirror[0].Ticker != "2603.TW" {
		t.Errorf("mirror = %+v", mirror)
	}

	// Adding the same ticker again does not duplicate the mirror entry.
	if _, err := svc.Add(context.Background(), "2603.TW"); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if mirror := store.LoadWatchlist(); len(mirror) != 1 {
		t.Errorf("mirror after duplicate add = %+v", mirror)
	}
}

func TestAddEmptyTicker(t *testing.T) {
	svc, _ := testService(t, http.NewServeMux())
	if _, err := svc.Add(context.Background(), "   "); err == nil {
		t.Fatal("Add accepted a blank ticker")
	}
}

func TestRemoveMirrors(t *testing.T) {
	var gotPath string
	svc, store := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	store.SaveWatchlist([]backend.WatchlistItem{{Ticker: "2330.TW"}, {Ticker: "2603.TW"}})

	msg, err := svc.Remove(context.Background(), "2330")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if gotPath != "/api/watchlist/2330.TW" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(msg, "移除") {
		t.Errorf("message = %q", msg)
	}
	if mirror := store.LoadWatchlist(); len(mirror) != 1 || mirror[0].Ticker != "2603.TW" {
		t.Errorf("mirror = %+v", mirror)
	}
}
