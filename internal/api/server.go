// Package api serves the dashboard gateway: it fronts the analysis backend,
// owns the shared session state, and pushes state changes to connected
// terminals over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"twquant/internal/backend"
	"twquant/internal/prefs"
	"twquant/internal/session"
	"twquant/internal/watchlist"
)

// Server hosts the gateway HTTP API.
type Server struct {
	remote *backend.Client
	state  *session.State
	store  *prefs.Store
	watch  *watchlist.Service
	hub    *Hub
	log    *slog.Logger

	mu         sync.RWMutex
	industries []string
	remoteCfg  *backend.RemoteConfig
}

// NewServer creates a gateway server. Call Init before serving to warm the
// industry list and feature flags, and run the hub's loop in a goroutine.
func NewServer(remote *backend.Client, state *session.State, store *prefs.Store, watch *watchlist.Service, log *slog.Logger) *Server {
	s := &Server{
		remote: remote,
		state:  state,
		store:  store,
		watch:  watch,
		log:    log,
	}
	s.hub = NewHub(state, log)
	return s
}

// Hub returns the WebSocket hub; its Run loop must be started by the caller.
func (s *Server) Hub() *Hub { return s.hub }

// Init prefetches the industry list and the backend feature flags in
// parallel. Failures are logged, not fatal: both are refetched lazily on
// first use.
func (s *Server) Init(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		inds, err := s.remote.Industries(gctx)
		if err != nil {
			s.log.Warn("prefetching industries", "error", err)
			return nil
		}
		s.mu.Lock()
		s.industries = inds
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		rc, err := s.remote.RemoteConfig(gctx)
		if err != nil {
			s.log.Warn("prefetching remote config", "error", err)
			return nil
		}
		s.mu.Lock()
		s.remoteCfg = rc
		s.mu.Unlock()
		return nil
	})

	g.Wait()

	// Seed the session's filter settings from the last run.
	if f, ok := s.store.LoadFilters(); ok {
		s.state.SetFilters(f)
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/view/tab", s.handleSetTab)
	mux.HandleFunc("POST /api/view/list-tab", s.handleSetListTab)
	mux.HandleFunc("POST /api/view/filters", s.handleSetFilters)
	mux.HandleFunc("POST /api/view/page", s.handleSetPage)
	mux.HandleFunc("POST /api/select", s.handleSelect)

	mux.HandleFunc("POST /api/recommend", s.handleRecommend)
	mux.HandleFunc("POST /api/recommend/industry", s.handleRecommendIndustry)
	mux.HandleFunc("GET /api/recommend/page", s.handleRecommendPage)
	mux.HandleFunc("POST /api/ai/recommend", s.handleAIRecommend)
	mux.HandleFunc("POST /api/stock/analyze", s.handleAnalyzeStock)
	mux.HandleFunc("POST /api/industry/analyze", s.handleAnalyzeIndustry)
	mux.HandleFunc("POST /api/daytrade", s.handleDaytrade)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)

	mux.HandleFunc("GET /api/industries", s.handleIndustries)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/tuning", s.handleGetTuning)
	mux.HandleFunc("PUT /api/tuning", s.handlePutTuning)

	mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	mux.HandleFunc("POST /api/watchlist", s.handleWatchlistAdd)
	mux.HandleFunc("DELETE /api/watchlist/{ticker}", s.handleWatchlistRemove)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)

	return corsMiddleware(mux)
}

// aiEnabled reports whether AI features are switched on upstream. An
// unknown state (flags never fetched) counts as enabled; the backend is the
// final arbiter.
func (s *Server) aiEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.remoteCfg == nil {
		return true
	}
	return s.remoteCfg.AI.Enabled
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
