// Package listops applies the client-side list pipeline to recommendation
// lists: bucket split, conjunctive filters, a fixed menu of sort
// comparators, and fixed-size pagination. Inputs are never mutated; every
// stage works on copies.
package listops

import (
	"math"
	"sort"

	"twquant/internal/backend"
	"twquant/internal/derive"
)

// SortKey selects exactly one comparator; keys are never combined.
type SortKey string

const (
	SortDefault   SortKey = "default"    // preserve backend order
	SortRRDesc    SortKey = "rr_desc"    // risk/reward descending
	SortATRAsc    SortKey = "atr_asc"    // ATR% ascending, missing last
	SortTrendBull SortKey = "trend_bull" // bullish entries first, stable
)

// FilterState is the persisted filter/sort preference blob. All active
// filters are conjunctive. JSON field names match the stored recFilters
// blob shape.
type FilterState struct {
	OnlyBullish   bool     `json:"onlyBull"`
	MaxATRPct     *float64 `json:"maxAtrPct,omitempty"`
	MinRiskReward *float64 `json:"minRR,omitempty"`
	SortKey       SortKey  `json:"sortKey"`
}

// Page is one pagination window over a filtered, sorted list.
type Page struct {
	Items      []backend.Recommendation `json:"items"`
	Page       int                      `json:"page"`
	TotalPages int                      `json:"totalPages"`
	Total      int                      `json:"total"`
}

// Bucket splits a recommendation list into the recommended and rejected
// tabs. The split is total and disjoint: an entry lands in rejected iff its
// rating equals the rejected label, otherwise in recommended.
func Bucket(recs []backend.Recommendation) (recommended, rejected []backend.Recommendation) {
	for _, r := range recs {
		if r.Rating == backend.RatingRejected {
			rejected = append(rejected, r)
		} else {
			recommended = append(recommended, r)
		}
	}
	return recommended, rejected
}

// Match reports whether one entry passes every active filter. Entries
// missing a field required by an active numeric filter are excluded, never
// waved through.
func (f FilterState) Match(rec *backend.Recommendation) bool {
	if f.OnlyBullish && trendState(rec) != backend.TrendBullish {
		return false
	}
	if f.MaxATRPct != nil {
		atrp, ok := atrPercent(rec)
		if !ok || atrp > *f.MaxATRPct {
			return false
		}
	}
	if f.MinRiskReward != nil {
		rr, ok := derive.ParseRatio(rec.RiskRewardRatio)
		if !ok || rr < *f.MinRiskReward {
			return false
		}
	}
	return true
}

// Filter returns the entries passing every active filter, in input order.
func Filter(list []backend.Recommendation, f FilterState) []backend.Recommendation {
	out := make([]backend.Recommendation, 0, len(list))
	for i := range list {
		if f.Match(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// Sort orders a copy of the list by the given key. Every comparator is
// stable; SortDefault returns the copy untouched.
func Sort(list []backend.Recommendation, key SortKey) []backend.Recommendation {
	out := make([]backend.Recommendation, len(list))
	copy(out, list)
	switch key {
	case SortRRDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return rrValue(&out[i]) > rrValue(&out[j])
		})
	case SortATRAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return atrSortValue(&out[i]) < atrSortValue(&out[j])
		})
	case SortTrendBull:
		sort.SliceStable(out, func(i, j int) bool {
			return bullRank(&out[i]) > bullRank(&out[j])
		})
	}
	return out
}

// Paginate returns the 1-indexed page window and the total page count,
// ceil(len/pageSize). An empty list yields zero pages and no items; an
// out-of-range page yields empty items with the true total.
func Paginate(list []backend.Recommendation, page, pageSize int) ([]backend.Recommendation, int) {
	if pageSize <= 0 || len(list) == 0 {
		return nil, 0
	}
	totalPages := (len(list) + pageSize - 1) / pageSize
	if page < 1 || page > totalPages {
		return nil, totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], totalPages
}

// Apply runs the whole pipeline: filter, sort, paginate.
func Apply(list []backend.Recommendation, f FilterState, page, pageSize int) Page {
	filtered := Sort(Filter(list, f), f.SortKey)
	items, totalPages := Paginate(filtered, page, pageSize)
	return Page{Items: items, Page: page, TotalPages: totalPages, Total: len(filtered)}
}

// ---------------------------------------------------------------------------
// Field accessors
// ---------------------------------------------------------------------------

func trendState(rec *backend.Recommendation) string {
	if rec.Insights == nil || rec.Insights.Trend == nil {
		return ""
	}
	return rec.Insights.Trend.State
}

// atrPercent returns the entry's ATR as percent of price.
func atrPercent(rec *backend.Recommendation) (float64, bool) {
	if rec.Insights == nil || rec.Insights.Volatility == nil || rec.Insights.Volatility.ATRPct == nil {
		return 0, false
	}
	return *rec.Insights.Volatility.ATRPct * 100, true
}

func atrSortValue(rec *backend.Recommendation) float64 {
	if v, ok := atrPercent(rec); ok {
		return v
	}
	return math.Inf(1) // missing ATR sorts last
}

func rrValue(rec *backend.Recommendation) float64 {
	if v, ok := derive.ParseRatio(rec.RiskRewardRatio); ok {
		return v
	}
	return math.Inf(-1) // unparseable RR sorts last in descending order
}

func bullRank(rec *backend.Recommendation) int {
	if trendState(rec) == backend.TrendBullish {
		return 1
	}
	return 0
}
