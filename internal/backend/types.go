// Package backend is the typed client for the external Taiwan-equity
// analysis service. All quantitative computation (indicators, backtests,
// AI summaries) happens on the remote side; this package only shapes
// requests and decodes the tagged responses.
package backend

// Kind is the discriminant carried in every analysis response.
type Kind string

const (
	KindNone             Kind = ""
	KindBacktest         Kind = "backtest"
	KindRecommendation   Kind = "recommendation"
	KindAIRecommendation Kind = "ai_recommendation"
	KindStockAnalysis    Kind = "stock_analysis"
	KindIndustryAnalysis Kind = "stock_analysis_by_industry"
	KindDaytrade         Kind = "daytrade"
)

// Response is the decoded union of all analysis payloads. Exactly the
// variant matching Kind is non-nil; an unrecognized or missing discriminant
// leaves Kind == KindNone with every variant nil.
type Response struct {
	Kind             Kind                    `json:"kind"`
	Backtest         *BacktestResult         `json:"backtest,omitempty"`
	Recommendation   *RecommendationResult   `json:"recommendation,omitempty"`
	AIRecommendation *AIRecommendationResult `json:"ai_recommendation,omitempty"`
	StockAnalysis    *StockAnalysisResult    `json:"stock_analysis,omitempty"`
	IndustryAnalysis *IndustryAnalysisResult `json:"industry_analysis,omitempty"`
	Daytrade         *DaytradeResult         `json:"daytrade,omitempty"`
}

// ---------------------------------------------------------------------------
// Recommendation payloads
// ---------------------------------------------------------------------------

// RecommendationResult is the payload for single-ticker and industry-batch
// recommendations.
type RecommendationResult struct {
	Type            string             `json:"type"`
	Recommendations []Recommendation   `json:"recommendations"`
	Message         string             `json:"message,omitempty"`
	Insights        *PortfolioInsights `json:"insights,omitempty"`
}

// Recommendation is one entry of a recommendation list. Price-level fields
// arrive pre-formatted as strings; numeric access goes through the parse
// helpers in internal/listops and internal/derive.
type Recommendation struct {
	Ticker          string       `json:"ticker"`
	Name            string       `json:"name,omitempty"`
	Rating          string       `json:"rating"`
	CurrentPrice    string       `json:"current_price,omitempty"`
	EntryPriceRange string       `json:"entry_price_range,omitempty"`
	TargetProfit    string       `json:"target_profit,omitempty"`
	StopLoss        string       `json:"stop_loss,omitempty"`
	RiskRewardRatio string       `json:"risk_reward_ratio,omitempty"`
	PotentialReturn string       `json:"potential_return,omitempty"`
	Insights        *Insights    `json:"insights,omitempty"`
	ChartData       []ChartPoint `json:"chart_data,omitempty"`
	AISummary       *AISummary   `json:"ai_summary,omitempty"`
}

// PortfolioInsights aggregates one recommendation batch server-side.
type PortfolioInsights struct {
	IndustryDistribution map[string]int `json:"industry_distribution,omitempty"`
	AvgRiskReward        float64        `json:"avg_risk_reward,omitempty"`
	Count                int            `json:"count,omitempty"`
}

// ChartPoint is one element of a recommendation's short chart series.
type ChartPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Insights is the structured quantitative block attached to recommendations
// and AI analyses. Every section is optional.
type Insights struct {
	Trend       *TrendInsight       `json:"trend,omitempty"`
	Momentum    *MomentumInsight    `json:"momentum,omitempty"`
	Volatility  *VolatilityInsight  `json:"volatility,omitempty"`
	Volume      *VolumeInsight      `json:"volume,omitempty"`
	Levels      *LevelsInsight      `json:"levels,omitempty"`
	Performance *PerformanceInsight `json:"performance,omitempty"`
}

// TrendInsight carries the moving-average alignment state.
type TrendInsight struct {
	State string   `json:"state,omitempty"`
	MA5   *float64 `json:"ma5,omitempty"`
	MA20  *float64 `json:"ma20,omitempty"`
	MA60  *float64 `json:"ma60,omitempty"`
}

type MomentumInsight struct {
	RSI       *float64 `json:"rsi,omitempty"`
	RSIState  string   `json:"rsi_state,omitempty"`
	MACDState string   `json:"macd_state,omitempty"`
}

// VolatilityInsight holds ATR both absolute and as a fraction of price.
type VolatilityInsight struct {
	ATR    *float64 `json:"atr,omitempty"`
	ATRPct *float64 `json:"atr_pct,omitempty"` // fraction, e.g. 0.021
	Label  string   `json:"label,omitempty"`
}

type VolumeInsight struct {
	Current *float64 `json:"current,omitempty"`
	Avg20   *float64 `json:"avg20,omitempty"`
	Ratio   *float64 `json:"ratio,omitempty"`
	State   string   `json:"state,omitempty"`
}

type LevelsInsight struct {
	Support                 *float64 `json:"support,omitempty"`
	Resistance              *float64 `json:"resistance,omitempty"`
	DistanceToSupportPct    *float64 `json:"distance_to_support_pct,omitempty"`
	DistanceToResistancePct *float64 `json:"distance_to_resistance_pct,omitempty"`
}

type PerformanceInsight struct {
	Ret5DPct  *float64 `json:"ret_5d_pct,omitempty"`
	Ret20DPct *float64 `json:"ret_20d_pct,omitempty"`
}

// AISummary is the optional AI sub-object of a payload. Error is set when
// generation failed even though the surrounding payload succeeded; the
// quantitative sections of the response stay valid in that case.
type AISummary struct {
	Summary string    `json:"summary,omitempty"`
	Text    string    `json:"text,omitempty"`
	Model   string    `json:"model,omitempty"`
	Error   string    `json:"error,omitempty"`
	Result  *AIResult `json:"result,omitempty"`
}

// BodyText returns the summary text, falling back to the legacy text field.
func (a *AISummary) BodyText() string {
	if a == nil {
		return ""
	}
	if a.Summary != "" {
		return a.Summary
	}
	return a.Text
}

// AIResult is the structured part of an AI summary.
type AIResult struct {
	Highlights []string `json:"highlights,omitempty"`
	AIRating   string   `json:"ai_rating,omitempty"`
}

// AIRecommendationResult is the AI-only single-ticker payload.
type AIRecommendationResult struct {
	Type     string    `json:"type"`
	Ticker   string    `json:"ticker"`
	Name     string    `json:"name,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Model    string    `json:"model,omitempty"`
	Details  *AIResult `json:"details,omitempty"`
	Insights *Insights `json:"insights,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Stock / industry analysis payloads
// ---------------------------------------------------------------------------

// StockAnalysisResult is the swing/position analysis payload.
type StockAnalysisResult struct {
	Type       string        `json:"type"`
	Ticker     string        `json:"ticker"`
	Name       string        `json:"name,omitempty"`
	Metrics    *StockMetrics `json:"metrics,omitempty"`
	Spark      []SparkPoint  `json:"spark,omitempty"`
	SparkStats *SparkStats   `json:"spark_stats,omitempty"`
	AISummary  string        `json:"ai_summary,omitempty"`
}

// StockMetrics holds the headline KPI row. All percent fields are already
// scaled to percent by the backend.
type StockMetrics struct {
	Price          *float64 `json:"price,omitempty"`
	ATRPct         *float64 `json:"atr_pct,omitempty"`
	Trend          string   `json:"trend,omitempty"`
	From52wHighPct *float64 `json:"from_52w_high_pct,omitempty"`
	From52wLowPct  *float64 `json:"from_52w_low_pct,omitempty"`
	Ret1MPct       *float64 `json:"ret_1m_pct,omitempty"`
	Ret3MPct       *float64 `json:"ret_3m_pct,omitempty"`
	Ret6MPct       *float64 `json:"ret_6m_pct,omitempty"`
}

// SparkPoint is one day of the 30-day sparkline series.
type SparkPoint struct {
	Date    string   `json:"date"`
	Close   float64  `json:"close"`
	Pct     *float64 `json:"pct,omitempty"`
	MA20    *float64 `json:"ma20,omitempty"`
	DDPct   *float64 `json:"dd_pct,omitempty"`
	BBUpper *float64 `json:"bb_upper,omitempty"`
	BBLower *float64 `json:"bb_lower,omitempty"`
	BBMid   *float64 `json:"bb_mid,omitempty"`
}

// SparkStats summarizes the sparkline window.
type SparkStats struct {
	RangeMin            *float64 `json:"range_min,omitempty"`
	RangeMax            *float64 `json:"range_max,omitempty"`
	ChangePct           *float64 `json:"change_pct,omitempty"`
	TrendSlopePctPerDay *float64 `json:"trend_slope_pct_per_day,omitempty"`
}

// IndustryAnalysisResult is the batch swing analysis over one industry.
type IndustryAnalysisResult struct {
	Type     string                `json:"type"`
	Industry string                `json:"industry"`
	Results  []StockAnalysisResult `json:"results,omitempty"`
	Message  string                `json:"message,omitempty"`
}

// ---------------------------------------------------------------------------
// Daytrade payload
// ---------------------------------------------------------------------------

// Daytrade data sources.
const (
	SourceDirect = "direct"
	SourceDB     = "db"
)

// DaytradeResult is the intraday analysis payload. IntervalUsed differs from
// Interval when the backend auto-downgraded the requested resolution.
type DaytradeResult struct {
	Type         string   `json:"type"`
	Ticker       string   `json:"ticker"`
	Decision     string   `json:"decision,omitempty"`
	Interval     string   `json:"interval,omitempty"`
	IntervalUsed string   `json:"interval_used,omitempty"`
	DataSource   string   `json:"data_source,omitempty"`
	Bars         int      `json:"bars,omitempty"`
	NowPrice     *float64 `json:"now_price,omitempty"`
	Entry        *float64 `json:"entry,omitempty"`
	Target       *float64 `json:"target,omitempty"`
	Stop         *float64 `json:"stop,omitempty"`
	Signals      []string `json:"signals,omitempty"`
}

// Downgraded reports whether the backend fell back to a coarser interval
// than the one requested.
func (d *DaytradeResult) Downgraded() bool {
	return d != nil && d.IntervalUsed != "" && d.IntervalUsed != d.Interval
}

// ---------------------------------------------------------------------------
// Backtest payload
// ---------------------------------------------------------------------------

// BacktestResult carries the summary statistics of one backtest run.
type BacktestResult struct {
	Type             string   `json:"type"`
	Symbol           string   `json:"symbol"`
	Strategy         string   `json:"strategy,omitempty"`
	Period           string   `json:"period,omitempty"`
	TotalReturn      *float64 `json:"totalReturn,omitempty"`
	WinRate          *float64 `json:"winRate,omitempty"`
	SharpeRatio      *float64 `json:"sharpeRatio,omitempty"`
	MaxDrawdown      *float64 `json:"maxDrawdown,omitempty"`
	Trades           int      `json:"trades,omitempty"`
	ProfitableTrades int      `json:"profitableTrades,omitempty"`
}

// ---------------------------------------------------------------------------
// Non-analysis payloads
// ---------------------------------------------------------------------------

// RemoteConfig is the backend's feature-flag/config document.
type RemoteConfig struct {
	AI  AIConfig  `json:"ai"`
	App AppConfig `json:"app"`
}

// AIConfig gates every AI-dependent action in the UI. When Enabled is false
// the dashboard shows an inline notice instead of attempting AI calls.
type AIConfig struct {
	Enabled      bool   `json:"enabled"`
	HasKey       bool   `json:"has_key,omitempty"`
	SDKInstalled bool   `json:"sdk_installed,omitempty"`
	SDK          string `json:"sdk,omitempty"`
	SDKVersion   string `json:"sdk_version,omitempty"`
	Model        string `json:"model,omitempty"`
}

type AppConfig struct {
	Version string `json:"version,omitempty"`
}

// WatchlistItem is one remote (or locally cached) watchlist entry.
type WatchlistItem struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ---------------------------------------------------------------------------
// Request bodies
// ---------------------------------------------------------------------------

// StockAnalyzeRequest is the swing-analysis request. Tuning pointers are
// marshalled without omitempty on purpose: a cleared field goes out as an
// explicit null.
type StockAnalyzeRequest struct {
	Ticker       string   `json:"ticker"`
	LookbackDays *float64 `json:"lookback_days"`
	EntryFrac    *float64 `json:"entry_frac"`
	TargetFrac   *float64 `json:"target_frac"`
	StopATRMult  *float64 `json:"stop_atr_mult"`
	StopFloorPct *float64 `json:"stop_floor_pct"`
	AccountSize  *float64 `json:"account_size"`
	RiskPct      *float64 `json:"risk_pct"`
}

// BacktestRequest is the backtest request body.
type BacktestRequest struct {
	Ticker         string             `json:"ticker"`
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	StrategyParams map[string]float64 `json:"strategy_params"`
}
