// Package derive computes secondary display values from analysis payloads.
// Every function here is pure: payload in, derived value out, no I/O and no
// shared state. The heavy numbers (indicators, backtests) were computed by
// the backend; this package only aggregates, labels, and mines them.
package derive

import (
	"math"
	"strconv"

	"twquant/internal/backend"
)

// Summary aggregates a recommendation list. Nil fields mean "unavailable":
// no entry carried a finite value for that statistic. Divisions never
// produce NaN or Inf.
type Summary struct {
	Count        int      `json:"count"`
	AvgRR        *float64 `json:"avg_rr,omitempty"`         // mean risk/reward ratio
	AvgATRPct    *float64 `json:"avg_atr_pct,omitempty"`    // mean ATR as percent of price
	BullRatioPct *float64 `json:"bull_ratio_pct,omitempty"` // bullish entries / entries with any trend label
	AvgRet5Pct   *float64 `json:"avg_ret_5d_pct,omitempty"`
	AvgRet20Pct  *float64 `json:"avg_ret_20d_pct,omitempty"`
}

// Summarize computes aggregate statistics over a recommendation list. Each
// mean runs over only the entries where that field parses to a finite
// number; missing fields shrink the denominator instead of counting as
// zero. ok is false for an empty list.
func Summarize(recs []backend.Recommendation) (s Summary, ok bool) {
	if len(recs) == 0 {
		return Summary{}, false
	}
	s.Count = len(recs)

	var rr, atr, r5, r20 meanAcc
	bull, trended := 0, 0

	for i := range recs {
		rec := &recs[i]
		if v, numOK := ParseRatio(rec.RiskRewardRatio); numOK {
			rr.add(v)
		}
		ins := rec.Insights
		if ins == nil {
			continue
		}
		if ins.Volatility != nil && ins.Volatility.ATRPct != nil {
			// Payload carries a fraction; the dashboard speaks percent.
			atr.add(*ins.Volatility.ATRPct * 100)
		}
		if ins.Trend != nil && ins.Trend.State != "" {
			trended++
			if ins.Trend.State == backend.TrendBullish {
				bull++
			}
		}
		if ins.Performance != nil {
			if p := ins.Performance.Ret5DPct; p != nil {
				r5.add(*p)
			}
			if p := ins.Performance.Ret20DPct; p != nil {
				r20.add(*p)
			}
		}
	}

	s.AvgRR = rr.mean()
	s.AvgATRPct = atr.mean()
	s.AvgRet5Pct = r5.mean()
	s.AvgRet20Pct = r20.mean()
	if trended > 0 {
		pct := float64(bull) / float64(trended) * 100
		s.BullRatioPct = &pct
	}
	return s, true
}

// ParseRatio parses the backend's string-formatted risk/reward ratio.
// ok is false for empty, unparseable, or non-finite values.
func ParseRatio(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// meanAcc accumulates finite samples for an arithmetic mean.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.sum += v
	m.n++
}

func (m *meanAcc) mean() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
