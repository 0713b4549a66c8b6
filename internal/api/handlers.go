package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"twquant/internal/backend"
	"twquant/internal/derive"
	"twquant/internal/listops"
	"twquant/internal/prefs"
	"twquant/internal/session"
	"twquant/internal/symbol"
)

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// View state
// ---------------------------------------------------------------------------

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.View())
}

func (s *Server) handleSetTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tab, ok := session.ParseTab(req.Tab)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tab %q", req.Tab))
		return
	}
	s.state.SetActive(tab)
	writeJSON(w, map[string]any{"active_tab": tab})
}

func (s *Server) handleSetListTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListTab string `json:"list_tab"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lt := session.ListTab(req.ListTab)
	if lt != session.ListRecommended && lt != session.ListRejected {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown list tab %q", req.ListTab))
		return
	}
	s.state.SetListTab(lt)
	writeJSON(w, map[string]any{"list_tab": lt})
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var f listops.FilterState
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch f.SortKey {
	case "":
		f.SortKey = listops.SortDefault
	case listops.SortDefault, listops.SortRRDesc, listops.SortATRAsc, listops.SortTrendBull:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown sort key %q", f.SortKey))
		return
	}
	s.state.SetFilters(f)
	s.store.SaveFilters(f)
	writeJSON(w, f)
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.state.SetPage(req.Page)
	_, _, page, _ := s.state.ListState()
	writeJSON(w, map[string]int{"page": page})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	norm := s.state.SelectTicker(req.Ticker)
	if norm == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}
	// Selecting also refreshes the stock-analysis slot.
	go s.analyzeSelected(norm)
	writeJSON(w, map[string]string{"ticker": norm})
}

// analyzeSelected runs a stock analysis for a freshly selected ticker with
// the saved tuning. Loading and error state land on the stock slot exactly
// as for an explicit analyze call; the sequence check drops the completion
// when a newer request started meanwhile.
func (s *Server) analyzeSelected(ticker string) {
	tuning, _ := s.store.LoadTuning()
	req := backend.StockAnalyzeRequest{
		Ticker:       ticker,
		LookbackDays: tuning.LookbackDays,
		EntryFrac:    tuning.EntryFrac,
		TargetFrac:   tuning.TargetFrac,
		StopATRMult:  tuning.StopATRMult,
		StopFloorPct: tuning.StopFloorPct,
		AccountSize:  tuning.AccountSize,
		RiskPct:      tuning.RiskPct,
	}
	seq := s.state.Begin(session.TabStock)
	resp, err := s.remote.AnalyzeStock(context.Background(), req)
	if err == nil {
		if sa := resp.StockAnalysis; sa != nil && sa.SparkStats == nil {
			sa.SparkStats = derive.SparkWindowStats(sa.Spark)
		}
	}
	s.state.Complete(session.TabStock, seq, resp, err)
}

// ---------------------------------------------------------------------------
// Analysis dispatch
// ---------------------------------------------------------------------------

// runAnalysis runs one backend call under the tab's sequence token. When a
// newer request for the same tab started while this one was in flight the
// result is discarded and the caller gets 409.
func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, tab session.Tab, call func(ctx context.Context) (*backend.Response, error)) {
	seq := s.state.Begin(tab)
	resp, err := call(r.Context())
	if !s.state.Complete(tab, seq, resp, err) {
		writeError(w, http.StatusConflict, "superseded by a newer request")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tickers string `json:"tickers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tickers := strings.Join(symbol.NormalizeList(req.Tickers), ",")
	if tickers == "" {
		writeError(w, http.StatusBadRequest, "tickers is empty")
		return
	}
	s.runAnalysis(w, r, session.TabRecommend, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.Recommend(ctx, tickers)
	})
}

func (s *Server) handleRecommendIndustry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Industry string `json:"industry"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Industry == "" {
		writeError(w, http.StatusBadRequest, "industry is empty")
		return
	}
	s.runAnalysis(w, r, session.TabRealtime, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.RecommendByIndustry(ctx, req.Industry)
	})
}

func (s *Server) handleAIRecommend(w http.ResponseWriter, r *http.Request) {
	if !s.aiEnabled() {
		writeError(w, http.StatusForbidden, "AI 分析未啟用")
		return
	}
	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ticker := symbol.Normalize(req.Ticker)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}
	s.runAnalysis(w, r, session.TabAI, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.RecommendAI(ctx, ticker)
	})
}

func (s *Server) handleAnalyzeStock(w http.ResponseWriter, r *http.Request) {
	var req backend.StockAnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Ticker = symbol.Normalize(req.Ticker)
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}

	// Remember the tuning values so the next session starts from them.
	s.store.SaveTuning(prefs.Tuning{
		LookbackDays: req.LookbackDays,
		EntryFrac:    req.EntryFrac,
		TargetFrac:   req.TargetFrac,
		StopATRMult:  req.StopATRMult,
		StopFloorPct: req.StopFloorPct,
		AccountSize:  req.AccountSize,
		RiskPct:      req.RiskPct,
	})

	s.runAnalysis(w, r, session.TabStock, func(ctx context.Context) (*backend.Response, error) {
		resp, err := s.remote.AnalyzeStock(ctx, req)
		if err != nil {
			return nil, err
		}
		// Backfill window stats when the backend omitted them.
		if sa := resp.StockAnalysis; sa != nil && sa.SparkStats == nil {
			sa.SparkStats = derive.SparkWindowStats(sa.Spark)
		}
		return resp, nil
	})
}

func (s *Server) handleAnalyzeIndustry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Industry string `json:"industry"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Industry == "" {
		writeError(w, http.StatusBadRequest, "industry is empty")
		return
	}
	s.runAnalysis(w, r, session.TabStock, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.AnalyzeIndustry(ctx, req.Industry)
	})
}

func (s *Server) handleDaytrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker   string `json:"ticker"`
		Interval string `json:"interval"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ticker := symbol.Normalize(req.Ticker)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}
	interval := req.Interval
	switch interval {
	case "":
		interval = "5m"
	case "1m", "5m", "15m":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown interval %q", interval))
		return
	}
	s.runAnalysis(w, r, session.TabRealtime, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.Daytrade(ctx, ticker, interval)
	})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backend.BacktestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Ticker = symbol.Normalize(req.Ticker)
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}
	s.runAnalysis(w, r, session.TabBacktest, func(ctx context.Context) (*backend.Response, error) {
		return s.remote.Backtest(ctx, req)
	})
}

// ---------------------------------------------------------------------------
// Recommendation list rendering
// ---------------------------------------------------------------------------

// cardView is one recommendation entry enriched with the derived fields the
// terminal renders directly.
type cardView struct {
	backend.Recommendation
	Tone            derive.Tone        `json:"tone"`
	Highlights      []string           `json:"highlights,omitempty"`
	HighlightSource derive.Provenance  `json:"highlight_source,omitempty"`
	Tips            []string           `json:"tips,omitempty"`
	Ops             *derive.Ops        `json:"ops,omitempty"`
	Chart           *derive.ChartStats `json:"chart,omitempty"`
}

type recPageResponse struct {
	ListTab     session.ListTab `json:"list_tab"`
	Items       []cardView      `json:"items"`
	Page        int             `json:"page"`
	TotalPages  int             `json:"totalPages"`
	Total       int             `json:"total"`
	Recommended int             `json:"recommended"`
	Rejected    int             `json:"rejected"`
	Summary     *derive.Summary `json:"summary,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func (s *Server) handleRecommendPage(w http.ResponseWriter, r *http.Request) {
	listTab, filters, page, pageSize := s.state.ListState()
	out := recPageResponse{ListTab: listTab, Items: []cardView{}}

	slot := s.state.Slot(session.TabRecommend)
	if slot.Result == nil || slot.Result.Recommendation == nil {
		writeJSON(w, out)
		return
	}
	result := slot.Result.Recommendation
	out.Message = result.Message

	recommended, rejected := listops.Bucket(result.Recommendations)
	out.Recommended = len(recommended)
	out.Rejected = len(rejected)

	active := recommended
	if listTab == session.ListRejected {
		active = rejected
	}

	filtered := listops.Filter(active, filters)
	if sum, ok := derive.Summarize(filtered); ok {
		out.Summary = &sum
	}

	sorted := listops.Sort(filtered, filters.SortKey)
	items, totalPages := listops.Paginate(sorted, page, pageSize)
	// An out-of-range page (filters shrank the list) falls back to the
	// first page rather than rendering an empty window.
	if len(items) == 0 && totalPages > 0 {
		page = 1
		items, totalPages = listops.Paginate(sorted, page, pageSize)
	}
	out.Page = page
	out.TotalPages = totalPages
	out.Total = len(sorted)

	for i := range items {
		rec := &items[i]
		card := cardView{
			Recommendation: *rec,
			Tone:           derive.RatingTone(rec.Rating),
			Tips:           derive.Tips(rec),
		}
		card.Highlights, card.HighlightSource = derive.Highlights(rec.AISummary, rec.Insights)
		if ops := derive.ExtractOps(rec.AISummary.BodyText()); !ops.Empty() {
			card.Ops = &ops
		}
		if chart, ok := derive.ChartSeriesStats(rec.ChartData); ok {
			card.Chart = &chart
		}
		out.Items = append(out.Items, card)
	}

	writeJSON(w, out)
}

// ---------------------------------------------------------------------------
// Reference data and preferences
// ---------------------------------------------------------------------------

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	inds := s.industries
	s.mu.RUnlock()

	if inds == nil {
		fetched, err := s.remote.Industries(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.mu.Lock()
		s.industries = fetched
		s.mu.Unlock()
		inds = fetched
	}
	if inds == nil {
		inds = []string{}
	}
	writeJSON(w, map[string]any{"industries": inds})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rc := s.remoteCfg
	s.mu.RUnlock()

	if rc == nil {
		fetched, err := s.remote.RemoteConfig(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.mu.Lock()
		s.remoteCfg = fetched
		s.mu.Unlock()
		rc = fetched
	}
	writeJSON(w, rc)
}

func (s *Server) handleGetTuning(w http.ResponseWriter, r *http.Request) {
	t, _ := s.store.LoadTuning()
	writeJSON(w, t)
}

func (s *Server) handlePutTuning(w http.ResponseWriter, r *http.Request) {
	var t prefs.Tuning
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.SaveTuning(t) {
		writeError(w, http.StatusInternalServerError, "preference store unavailable")
		return
	}
	writeJSON(w, t)
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	items, src, err := s.watch.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if items == nil {
		items = []backend.WatchlistItem{}
	}
	writeJSON(w, map[string]any{"items": items, "source": src})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker string `json:"ticker"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if symbol.Normalize(req.Ticker) == "" {
		writeError(w, http.StatusBadRequest, "ticker is empty")
		return
	}
	msg, err := s.watch.Add(r.Context(), req.Ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, map[string]string{"message": msg})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker required")
		return
	}
	msg, err := s.watch.Remove(r.Context(), ticker)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, map[string]string{"message": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
